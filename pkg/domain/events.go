package domain

import (
	"context"
	"time"
)

// AuditEvent records one node execution. Events are append-only and never
// read back by the machine.
type AuditEvent struct {
	Timestamp   time.Time   `json:"timestamp"`
	RequestID   string      `json:"request_id"`
	Node        string      `json:"node"`
	InputState  State       `json:"input_state"`
	Decision    string      `json:"decision"`
	OutputState State       `json:"output_state"`
	Failure     FailureKind `json:"failure,omitempty"`
	DurationMS  int64       `json:"duration_ms"`
}

// NodeEvent represents entry into or exit from a node.
type NodeEvent struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id"`
	NodeID    string    `json:"node_id"`
	Decision  string    `json:"decision,omitempty"`
	// Next is the routing directive, set only when leaving the router.
	Next     string        `json:"next,omitempty"`
	Failure  FailureKind   `json:"failure,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks observe; they cannot alter the path of a question.
type LifecycleHooks struct {
	OnNodeEnter func(context.Context, *NodeEvent)
	OnNodeLeave func(context.Context, *NodeEvent)
}

// Merge returns hooks that call h and then other.
func (h LifecycleHooks) Merge(other LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnNodeEnter: chain(h.OnNodeEnter, other.OnNodeEnter),
		OnNodeLeave: chain(h.OnNodeLeave, other.OnNodeLeave),
	}
}

func chain(a, b func(context.Context, *NodeEvent)) func(context.Context, *NodeEvent) {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	}
	return func(ctx context.Context, e *NodeEvent) {
		a(ctx, e)
		b(ctx, e)
	}
}
