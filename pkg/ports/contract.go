package ports

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/pkg/domain"
)

// AuditStore is an audit sink that can also be inspected.
type AuditStore interface {
	AuditSink
	AuditReader
}

// RunAuditSinkContract runs a suite of tests to verify that an AuditSink
// implementation adheres to the append-only contract. The store must be empty.
func RunAuditSinkContract(t *testing.T, store AuditStore) {
	ctx := context.Background()
	requestID := "contract-" + time.Now().Format("20060102150405")

	t.Run("Append preserves order and content", func(t *testing.T) {
		in := domain.NewState("Quantos casos de SRAG em 2025?")
		out := in
		out.NextNode = domain.Text(domain.NodeTranslation)

		for i, node := range []string{domain.NodeRouter, domain.NodeTranslation, domain.NodeQueryExecution} {
			err := store.Record(ctx, domain.AuditEvent{
				Timestamp:   time.Now().UTC(),
				RequestID:   requestID,
				Node:        node,
				InputState:  in,
				Decision:    fmt.Sprintf("step %d", i),
				OutputState: out,
			})
			require.NoError(t, err, "Record should not return error")
		}

		events, err := store.Events(ctx)
		require.NoError(t, err)
		require.Len(t, events, 3)
		assert.Equal(t, domain.NodeRouter, events[0].Node)
		assert.Equal(t, domain.NodeTranslation, events[1].Node)
		assert.Equal(t, domain.NodeQueryExecution, events[2].Node)
		assert.Equal(t, "step 1", events[1].Decision)
		assert.Equal(t, in.Question, events[0].InputState.Question)
		next, ok := events[0].OutputState.Next()
		assert.True(t, ok)
		assert.Equal(t, domain.NodeTranslation, next)
	})

	t.Run("Concurrent appends stay whole", func(t *testing.T) {
		before, err := store.Events(ctx)
		require.NoError(t, err)

		const writers = 16
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_ = store.Record(ctx, domain.AuditEvent{
					Timestamp:  time.Now().UTC(),
					RequestID:  fmt.Sprintf("%s-%d", requestID, i),
					Node:       domain.NodeExplanation,
					InputState: domain.NewState(fmt.Sprintf("question %d", i)),
					Decision:   "Explicação gerada por LLM",
				})
			}(i)
		}
		wg.Wait()

		after, err := store.Events(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+writers)
		for _, e := range after[len(before):] {
			assert.Equal(t, domain.NodeExplanation, e.Node)
			assert.Contains(t, e.InputState.Question, "question ")
		}
	})
}
