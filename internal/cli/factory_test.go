package cli_test

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/internal/cli"
	"github.com/aretw0/srag/internal/config"
	"github.com/aretw0/srag/internal/logging"
	"github.com/aretw0/srag/pkg/domain"
)

func offlineConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Audit.Path = filepath.Join(t.TempDir(), "audit.jsonl")
	cfg.Observability.Metrics = false
	return cfg
}

func TestBuild_Offline(t *testing.T) {
	cfg := offlineConfig(t)
	ctx := context.Background()

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)
	defer app.Close(ctx)

	res, err := app.Agent.Run(ctx, domain.NewState("Explique o que é SRAG"))
	require.NoError(t, err)
	assert.Equal(t, []string{domain.NodeRouter, domain.NodeExplanation}, res.Path)
	assert.Contains(t, res.Answer, "not configured")

	require.NotNil(t, app.Audit)
	events, err := app.Audit.Events(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, res.RequestID, events[0].RequestID)
	assert.Nil(t, app.Metrics)
}

func TestBuild_AuditDisabled(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Audit.Path = ""

	app, err := cli.Build(context.Background(), cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)
	assert.Nil(t, app.Audit)
}

func TestBuild_RedisAudit(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := offlineConfig(t)
	cfg.Audit.RedisAddr = mr.Addr()
	cfg.Audit.RedisKey = "srag:test"
	ctx := context.Background()

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)
	defer app.Close(ctx)

	app.Agent.Ask(ctx, "Quantos casos em 2024?")

	items, err := mr.List("srag:test")
	require.NoError(t, err)
	assert.NotEmpty(t, items)

	data, err := os.ReadFile(cfg.Audit.Path)
	require.NoError(t, err)
	assert.Equal(t, len(items), strings.Count(string(data), "\n"))
}

func TestBuild_Metrics(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Observability.Metrics = true
	ctx := context.Background()

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)
	require.NotNil(t, app.Metrics)

	app.Agent.Ask(ctx, "Notícias sobre SRAG")

	w := httptest.NewRecorder()
	app.Metrics.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `srag_node_visits_total{node_id="news"} 1`)
	assert.Contains(t, w.Body.String(), `srag_route_decisions_total{target="news"} 1`)
}

func TestBuild_Tracing(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Observability.Tracing = true
	ctx := context.Background()
	var spans bytes.Buffer

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{TraceWriter: &spans})
	require.NoError(t, err)

	app.Agent.Ask(ctx, "O que é SRAG?")
	require.NoError(t, app.Close(ctx))
	assert.Contains(t, spans.String(), "node router")
}

func TestBuild_DictionaryFallback(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.DataDictionary = filepath.Join(t.TempDir(), "missing.json")

	_, err := cli.Build(context.Background(), cfg, logging.NewNop(), cli.BuildOptions{})
	assert.NoError(t, err)
}

func TestBuild_DenyWhenClassifierUnavailable(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Guardrail.OnClassifierUnavailable = "deny"
	ctx := context.Background()

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)

	res, err := app.Agent.Run(ctx, domain.NewState("Quantos casos em 2024?"))
	require.NoError(t, err)
	assert.Equal(t, app.Agent.Messages().OutOfScope, res.Answer)
	assert.Equal(t, []string{domain.NodeRouter}, res.Path)
}

func TestBuild_MaskedAudit(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Audit.MaskPatterns = []string{`\d{3}\.\d{3}\.\d{3}-\d{2}`}
	ctx := context.Background()

	app, err := cli.Build(ctx, cfg, logging.NewNop(), cli.BuildOptions{})
	require.NoError(t, err)

	app.Agent.Ask(ctx, "O que é SRAG? CPF 123.456.789-09")

	data, err := os.ReadFile(cfg.Audit.Path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "123.456.789-09")
	assert.Contains(t, string(data), "CPF ***")
}

func TestBuild_InvalidMaskPattern(t *testing.T) {
	cfg := offlineConfig(t)
	cfg.Audit.MaskPatterns = []string{"("}

	_, err := cli.Build(context.Background(), cfg, logging.NewNop(), cli.BuildOptions{})
	assert.ErrorContains(t, err, "invalid audit mask pattern")
}
