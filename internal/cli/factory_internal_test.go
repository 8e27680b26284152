package cli

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/internal/config"
	"github.com/aretw0/srag/internal/logging"
)

func TestBuild_ReleasesOnFailure(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := config.Default()
	cfg.Observability.Metrics = false
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.jsonl")
	cfg.Audit.RedisAddr = mr.Addr()
	cfg.Audit.MaskPatterns = []string{"("}

	released := 0
	app := &App{
		Config:  cfg,
		Logger:  logging.NewNop(),
		closers: []func(context.Context) error{func(context.Context) error { released++; return nil }},
	}

	err := app.wire(context.Background(), BuildOptions{})
	require.ErrorContains(t, err, "invalid audit mask pattern")
	assert.Len(t, app.closers, 2, "redis client registered before the failure")

	assert.Equal(t, err, app.fail(context.Background(), err))
	assert.Equal(t, 1, released)
	assert.Empty(t, app.closers)
}
