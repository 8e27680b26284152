package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/srag"
	"github.com/aretw0/srag/internal/config"
	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/pkg/adapters/audit"
	"github.com/aretw0/srag/pkg/adapters/file"
	"github.com/aretw0/srag/pkg/adapters/openai"
	"github.com/aretw0/srag/pkg/adapters/postgres"
	"github.com/aretw0/srag/pkg/adapters/redis"
	"github.com/aretw0/srag/pkg/adapters/tavily"
	"github.com/aretw0/srag/pkg/dictionary"
	"github.com/aretw0/srag/pkg/observability"
	"github.com/aretw0/srag/pkg/ports"
)

// App is an Agent together with the resources it owns.
type App struct {
	Agent  *srag.Agent
	Config *config.Config
	// Audit reads back what the sinks recorded; nil when auditing is off.
	Audit ports.AuditReader
	// Metrics serves the Prometheus registry; nil when metrics are off.
	Metrics http.Handler
	Logger  *slog.Logger

	closers []func(context.Context) error
}

// Close releases pools, clients and exporters in reverse order.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i](ctx))
	}
	return errors.Join(errs...)
}

// BuildOptions tweak what Build wires beyond the configuration.
type BuildOptions struct {
	Debug bool
	// TraceWriter receives exported spans when tracing is enabled.
	TraceWriter io.Writer
}

// Build assembles an App from cfg. Capabilities whose credentials are
// missing are left out, so the nodes needing them answer with their
// failure message instead of aborting start-up.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger, bo BuildOptions) (*App, error) {
	app := &App{Config: cfg, Logger: logger}
	if err := app.wire(ctx, bo); err != nil {
		return nil, app.fail(ctx, err)
	}
	return app, nil
}

// fail releases whatever wire opened before err and returns err.
func (a *App) fail(ctx context.Context, err error) error {
	if cerr := a.Close(ctx); cerr != nil {
		a.Logger.Warn("failed to release resources", "error", cerr)
	}
	a.closers = nil
	return err
}

func (a *App) wire(ctx context.Context, bo BuildOptions) error {
	cfg, logger := a.Config, a.Logger
	opts := []srag.Option{
		srag.WithLogger(logger),
		srag.WithMessages(cfg.Messages),
		srag.WithClassifierPolicy(guardrail.Policy(cfg.Guardrail.OnClassifierUnavailable)),
		srag.WithExternalTimeout(cfg.ExternalTimeout),
		srag.WithSchemaHint(schemaHint(cfg.DataDictionary, logger)),
	}

	if len(cfg.Guardrail.AllowedTables) > 0 {
		policy := guardrail.DefaultQueryPolicy()
		policy.AllowedTables = cfg.Guardrail.AllowedTables
		opts = append(opts, srag.WithQueryPolicy(policy))
	}

	if cfg.OpenAI.APIKey != "" {
		gen, err := openai.New(cfg.OpenAI.APIKey,
			openai.WithModel(cfg.OpenAI.Model),
			openai.WithTemperature(cfg.OpenAI.Temperature),
			openai.WithBaseURL(cfg.OpenAI.BaseURL),
			openai.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("failed to create generator: %w", err)
		}
		opts = append(opts, srag.WithGenerator(gen))
	} else {
		logger.Warn("no OpenAI key configured; generation is disabled", "env", config.EnvOpenAIKey)
	}

	if cfg.Database.URL != "" {
		var storeOpts []postgres.Option
		if cfg.Database.MaxConns > 0 {
			storeOpts = append(storeOpts, postgres.WithMaxConns(cfg.Database.MaxConns))
		}
		store, err := postgres.New(ctx, cfg.Database.URL, storeOpts...)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, func(context.Context) error { store.Close(); return nil })
		opts = append(opts, srag.WithDataStore(store))
	} else {
		logger.Warn("no database configured; data questions will fail", "env", config.EnvDatabaseURL)
	}

	if cfg.Tavily.APIKey != "" {
		news := tavily.New(cfg.Tavily.APIKey)
		news.Depth = cfg.Tavily.Depth
		news.MaxResults = cfg.Tavily.MaxResults
		if cfg.Tavily.BaseURL != "" {
			news.BaseURL = cfg.Tavily.BaseURL
		}
		opts = append(opts, srag.WithNewsSearcher(news))
	}

	sink, reader := a.auditSinks(cfg.Audit)
	if sink != nil && len(cfg.Audit.MaskPatterns) > 0 {
		mask, err := audit.NewPIIMiddleware(cfg.Audit.MaskPatterns)
		if err != nil {
			return fmt.Errorf("invalid audit mask pattern: %w", err)
		}
		sink = mask(sink)
	}
	if sink != nil {
		opts = append(opts, srag.WithAuditSink(sink))
		a.Audit = reader
	}

	if cfg.Observability.Metrics {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		m, err := observability.NewMetrics(reg)
		if err != nil {
			return fmt.Errorf("failed to register metrics: %w", err)
		}
		opts = append(opts, srag.WithLifecycleHooks(m.Hooks()))
		a.Metrics = promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	}

	if cfg.Observability.Tracing {
		w := bo.TraceWriter
		if w == nil {
			w = io.Discard
		}
		shutdown, err := observability.SetupTracing(w)
		if err != nil {
			return fmt.Errorf("failed to set up tracing: %w", err)
		}
		a.closers = append(a.closers, shutdown)
	}

	if bo.Debug {
		opts = append(opts, srag.WithLifecycleHooks(observability.LoggingHooks(logger)))
	}

	a.Agent = srag.New(opts...)
	return nil
}

// auditSinks fans out to the file and Redis sinks that are configured.
// The file sink, when present, is the one read back.
func (a *App) auditSinks(cfg config.Audit) (ports.AuditSink, ports.AuditReader) {
	var (
		sinks  []ports.AuditSink
		reader ports.AuditReader
	)
	if cfg.Path != "" {
		f := file.NewAuditLog(cfg.Path)
		sinks = append(sinks, f)
		reader = f
	}
	if cfg.RedisAddr != "" {
		r := redis.New(cfg.RedisAddr, "", cfg.RedisDB, redis.WithKey(cfg.RedisKey))
		sinks = append(sinks, r)
		if reader == nil {
			reader = r
		}
		a.closers = append(a.closers, func(context.Context) error { return r.Close() })
	}
	if len(sinks) == 0 {
		return nil, nil
	}
	if len(sinks) == 1 {
		return sinks[0], reader
	}
	return audit.NewMulti(sinks...), reader
}

func schemaHint(path string, logger *slog.Logger) string {
	if path == "" {
		return dictionary.FallbackHint
	}
	d, err := dictionary.Load(path)
	if err != nil {
		logger.Warn("data dictionary unavailable; using fallback hint", "path", path, "error", err)
		return dictionary.FallbackHint
	}
	return d.SchemaHint()
}
