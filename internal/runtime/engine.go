package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/aretw0/srag/internal/guardrail"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
)

// TracerName identifies the spans emitted by the engine.
const TracerName = "github.com/aretw0/srag/internal/runtime"

// Outcome is what a node hands back to the engine.
type Outcome struct {
	State    domain.State
	Decision string
	Failure  domain.FailureKind
}

// Handler is a node body. It receives a snapshot and returns a new state.
type Handler func(ctx context.Context, s domain.State) Outcome

// Services are the collaborators reached by node handlers.
// Any of them may be nil; the dependent node then fails with its message.
type Services struct {
	Guard      *guardrail.InputGuard
	Policy     guardrail.QueryPolicy
	Generator  ports.Generator
	Translator ports.Translator
	Store      ports.DataStore
	News       ports.NewsSearcher
	Summarizer ports.Summarizer
	Messages   domain.Messages
	SchemaHint string
	Routes     []Route
}

// Result is the outcome of a complete run.
type Result struct {
	RequestID string
	State     domain.State
	Path      []string
}

// Answer returns the final result, or fallback when no node wrote one.
func (r *Result) Answer(fallback string) string {
	if v, ok := r.State.Final(); ok {
		return v
	}
	return fallback
}

// Engine drives a question through the node graph.
type Engine struct {
	handlers map[string]Handler
	messages domain.Messages

	sink    ports.AuditSink
	hooks   domain.LifecycleHooks
	logger  *slog.Logger
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string
	timeout time.Duration
}

// Option configures the Engine.
type Option func(*Engine)

// WithAuditSink records one event per node execution.
func WithAuditSink(sink ports.AuditSink) Option {
	return func(e *Engine) { e.sink = sink }
}

// WithLifecycleHooks registers observers for node entry and exit.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) { e.hooks = e.hooks.Merge(hooks) }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithTracer overrides the tracer taken from the global provider.
func WithTracer(tracer trace.Tracer) Option {
	return func(e *Engine) { e.tracer = tracer }
}

// WithClock overrides the time source used for audit timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithRequestIDs overrides the request id generator.
func WithRequestIDs(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

// WithNodeTimeout bounds each node execution. Zero disables the bound.
func WithNodeTimeout(d time.Duration) Option {
	return func(e *Engine) { e.timeout = d }
}

// NewEngine wires the node handlers over svc.
func NewEngine(svc Services, opts ...Option) *Engine {
	svc.Messages = svc.Messages.Merge(domain.DefaultMessages())
	if svc.Routes == nil {
		svc.Routes = DefaultRoutes
	}
	if svc.Policy.AllowedTables == nil && svc.Policy.Denylist == nil {
		svc.Policy = guardrail.DefaultQueryPolicy()
	}

	e := &Engine{
		messages: svc.Messages,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(TracerName)
	}
	if svc.Guard == nil {
		svc.Guard = guardrail.NewInputGuard(svc.Generator, guardrail.WithLogger(e.logger))
	}

	h := &handlers{Services: svc}
	e.handlers = map[string]Handler{
		domain.NodeRouter:         h.route,
		domain.NodeTranslation:    h.translate,
		domain.NodeQueryExecution: h.execute,
		domain.NodeSummarization:  h.summarize,
		domain.NodeExplanation:    h.explain,
		domain.NodeNews:           h.news,
		domain.NodeSummary:        h.summary,
	}
	return e
}

// Messages returns the catalog in use, defaults filled in.
func (e *Engine) Messages() domain.Messages {
	return e.messages
}

// Run starts at the router. Stale routing directives and final results in
// initial are discarded; any other pre-populated field is kept.
func (e *Engine) Run(ctx context.Context, initial domain.State) (*Result, error) {
	return e.RunFrom(ctx, domain.NodeRouter, initial)
}

// RunFrom starts the machine at entry.
func (e *Engine) RunFrom(ctx context.Context, entry string, initial domain.State) (*Result, error) {
	if _, ok := e.handlers[entry]; !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownNode, entry)
	}

	res := &Result{RequestID: e.newID()}
	state := initial.WithoutNext()
	state.FinalResult = nil

	logger := e.logger.With("request_id", res.RequestID)
	logger.Debug("run started", "entry", entry)

	current := entry
	for current != "" {
		out := e.step(ctx, res.RequestID, current, state)
		res.Path = append(res.Path, current)

		var next string
		next, state = e.resolve(logger, current, out.State)
		current = next
	}

	res.State = state
	logger.Debug("run finished", "path", res.Path, "terminal", state.Terminal())
	return res, nil
}

// resolve picks the node that follows from and returns the state handed to it.
// The routing directive is consumed here so no later node can observe it.
func (e *Engine) resolve(logger *slog.Logger, from string, s domain.State) (string, domain.State) {
	if s.Terminal() {
		return "", s.WithoutNext()
	}

	if from == domain.NodeRouter {
		directive, ok := s.Next()
		s = s.WithoutNext()
		if !ok {
			logger.Warn("router left no directive")
			return "", s
		}
		if !domain.IsRoutable(directive) {
			logger.Warn("discarding unknown directive", "next_node", directive)
			return "", s
		}
		return directive, s
	}

	return domain.FixedEdges[from], s.WithoutNext()
}

func (e *Engine) step(ctx context.Context, requestID, node string, in domain.State) Outcome {
	ctx, span := e.tracer.Start(ctx, "node "+node,
		trace.WithAttributes(
			attribute.String("srag.request_id", requestID),
			attribute.String("srag.node", node),
		))
	defer span.End()

	start := e.now()
	if e.hooks.OnNodeEnter != nil {
		e.hooks.OnNodeEnter(ctx, &domain.NodeEvent{
			Timestamp: start,
			RequestID: requestID,
			NodeID:    node,
		})
	}

	runCtx := ctx
	if e.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	out := e.handlers[node](runCtx, in)
	out.State.Question = in.Question
	elapsed := e.now().Sub(start)

	span.SetAttributes(attribute.String("srag.decision", out.Decision))
	if out.Failure != domain.FailureNone {
		span.SetStatus(codes.Error, string(out.Failure))
	}

	if e.hooks.OnNodeLeave != nil {
		next, _ := out.State.Next()
		e.hooks.OnNodeLeave(ctx, &domain.NodeEvent{
			Timestamp: e.now(),
			RequestID: requestID,
			NodeID:    node,
			Decision:  out.Decision,
			Next:      next,
			Failure:   out.Failure,
			Duration:  elapsed,
		})
	}

	e.record(ctx, domain.AuditEvent{
		Timestamp:   start,
		RequestID:   requestID,
		Node:        node,
		InputState:  in,
		Decision:    out.Decision,
		OutputState: out.State,
		Failure:     out.Failure,
		DurationMS:  elapsed.Milliseconds(),
	})
	return out
}

func (e *Engine) record(ctx context.Context, ev domain.AuditEvent) {
	if e.sink == nil {
		return
	}
	if err := e.sink.Record(ctx, ev); err != nil {
		e.logger.Warn("audit sink failed", "request_id", ev.RequestID, "node", ev.Node, "error", err)
	}
}
