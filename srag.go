package srag

import (
	"context"
	"io"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/internal/runtime"
	"github.com/aretw0/srag/pkg/adapters/sqlgen"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
	"github.com/aretw0/srag/pkg/report"
)

// Agent is the high-level entry point of the library.
// It wraps the internal runtime and exposes one call per question.
type Agent struct {
	engine   *runtime.Engine
	messages domain.Messages
	logger   *slog.Logger
}

// Result is a completed run.
type Result struct {
	RequestID string
	Answer    string
	State     domain.State
	// Path lists the nodes executed, in order.
	Path []string
}

type builder struct {
	svc      runtime.Services
	opts     []runtime.Option
	policy   guardrail.Policy
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	timeout  time.Duration
	denylist []string
}

// Option defines a functional option for configuring the Agent.
type Option func(*builder)

// WithGenerator sets the text generator used for scope classification,
// explanations and summaries.
func WithGenerator(g ports.Generator) Option {
	return func(b *builder) { b.svc.Generator = g }
}

// WithTranslator overrides the default generator-backed translator.
func WithTranslator(t ports.Translator) Option {
	return func(b *builder) { b.svc.Translator = t }
}

// WithDataStore sets the tabular data store.
func WithDataStore(s ports.DataStore) Option {
	return func(b *builder) { b.svc.Store = s }
}

// WithNewsSearcher sets the news retrieval capability.
func WithNewsSearcher(n ports.NewsSearcher) Option {
	return func(b *builder) { b.svc.News = n }
}

// WithSummarizer overrides the default executive summary capability.
func WithSummarizer(s ports.Summarizer) Option {
	return func(b *builder) { b.svc.Summarizer = s }
}

// WithMessages overrides entries of the message catalog.
func WithMessages(m domain.Messages) Option {
	return func(b *builder) { b.svc.Messages = m }
}

// WithSchemaHint sets the column description handed to the translator.
func WithSchemaHint(hint string) Option {
	return func(b *builder) { b.svc.SchemaHint = hint }
}

// WithQueryPolicy replaces the generated-query validator.
func WithQueryPolicy(p guardrail.QueryPolicy) Option {
	return func(b *builder) { b.svc.Policy = p }
}

// WithClassifierPolicy decides what happens when the scope classifier fails.
func WithClassifierPolicy(p guardrail.Policy) Option {
	return func(b *builder) { b.policy = p }
}

// WithInputDenylist replaces the tokens that reject a question outright.
func WithInputDenylist(tokens []string) Option {
	return func(b *builder) { b.denylist = tokens }
}

// WithAuditSink records one event per node execution.
func WithAuditSink(sink ports.AuditSink) Option {
	return func(b *builder) { b.opts = append(b.opts, runtime.WithAuditSink(sink)) }
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *builder) { b.hooks = b.hooks.Merge(hooks) }
}

// WithTracer overrides the globally registered tracer.
func WithTracer(t trace.Tracer) Option {
	return func(b *builder) { b.opts = append(b.opts, runtime.WithTracer(t)) }
}

// WithExternalTimeout bounds every node. Zero, the default, means no bound.
func WithExternalTimeout(d time.Duration) Option {
	return func(b *builder) { b.timeout = d }
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *builder) { b.logger = logger }
}

// New assembles an Agent. Capabilities left unset make the nodes that need
// them answer with their failure message.
func New(opts ...Option) *Agent {
	b := &builder{policy: guardrail.PolicyPermit}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if b.svc.Translator == nil && b.svc.Generator != nil {
		b.svc.Translator = sqlgen.New(b.svc.Generator)
	}
	if b.svc.Summarizer == nil && b.svc.Store != nil && b.svc.Generator != nil {
		b.svc.Summarizer = report.NewSummarizer(b.svc.Store, b.svc.News, b.svc.Generator,
			report.WithLogger(b.logger))
	}

	guardOpts := []guardrail.InputOption{
		guardrail.WithClassifierPolicy(b.policy),
		guardrail.WithLogger(b.logger),
	}
	if b.denylist != nil {
		guardOpts = append(guardOpts, guardrail.WithDenylist(b.denylist))
	}
	b.svc.Guard = guardrail.NewInputGuard(b.svc.Generator, guardOpts...)

	runtimeOpts := append([]runtime.Option{
		runtime.WithLogger(b.logger),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithNodeTimeout(b.timeout),
	}, b.opts...)

	eng := runtime.NewEngine(b.svc, runtimeOpts...)
	return &Agent{
		engine:   eng,
		messages: eng.Messages(),
		logger:   b.logger,
	}
}

// Ask routes question through the machine and returns the final result.
// It returns the "no result" message when no node produced one.
func (a *Agent) Ask(ctx context.Context, question string) string {
	res, err := a.Run(ctx, domain.NewState(question))
	if err != nil {
		a.logger.Error("run failed", "error", err)
		return a.messages.NoResult
	}
	return res.Answer
}

// Summary produces the executive summary by starting at the summary node.
func (a *Agent) Summary(ctx context.Context) string {
	res, err := a.RunFrom(ctx, domain.NodeSummary, domain.NewState(""))
	if err != nil {
		a.logger.Error("summary failed", "error", err)
		return a.messages.NoResult
	}
	return res.Answer
}

// Run starts at the router with a possibly pre-populated state.
func (a *Agent) Run(ctx context.Context, initial domain.State) (*Result, error) {
	return a.RunFrom(ctx, domain.NodeRouter, initial)
}

// RunFrom starts at entry.
func (a *Agent) RunFrom(ctx context.Context, entry string, initial domain.State) (*Result, error) {
	res, err := a.engine.RunFrom(ctx, entry, initial)
	if err != nil {
		return nil, err
	}
	return &Result{
		RequestID: res.RequestID,
		Answer:    res.Answer(a.messages.NoResult),
		State:     res.State,
		Path:      res.Path,
	}, nil
}

// Messages returns the catalog in use.
func (a *Agent) Messages() domain.Messages {
	return a.messages
}
