package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/time/rate"

	"github.com/aretw0/srag"
	"github.com/aretw0/srag/internal/presentation/graph"
	"github.com/aretw0/srag/pkg/domain"
	"github.com/aretw0/srag/pkg/ports"
	"github.com/aretw0/srag/pkg/runner"
)

// Agent is the part of srag.Agent served over HTTP.
type Agent interface {
	Run(ctx context.Context, initial domain.State) (*srag.Result, error)
	RunFrom(ctx context.Context, entry string, initial domain.State) (*srag.Result, error)
}

// AskRequest is the body of POST /ask.
type AskRequest struct {
	Question string `json:"question"`
}

// AnswerResponse is returned by POST /ask and POST /summary.
type AnswerResponse struct {
	RequestID string   `json:"request_id"`
	Answer    string   `json:"answer"`
	Path      []string `json:"path,omitempty"`
}

// Server holds the handlers of the HTTP API.
type Server struct {
	Agent   Agent
	Audit   ports.AuditReader
	Metrics http.Handler
	Limiter *rate.Limiter
	Logger  *slog.Logger
	// MaxInputSize bounds each question; zero selects the runner default.
	MaxInputSize int
}

// Option configures the handler built by NewHandler.
type Option func(*Server)

// WithRateLimit bounds POST requests to r per second with the given burst.
// A non-positive r disables limiting.
func WithRateLimit(r float64, burst int) Option {
	return func(s *Server) {
		if r <= 0 {
			s.Limiter = nil
			return
		}
		s.Limiter = rate.NewLimiter(rate.Limit(r), burst)
	}
}

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.Metrics = h }
}

// WithAuditReader exposes recorded events at /audit.
func WithAuditReader(r ports.AuditReader) Option {
	return func(s *Server) { s.Audit = r }
}

// WithMaxInputSize bounds the question accepted by POST /ask.
func WithMaxInputSize(n int) Option {
	return func(s *Server) { s.MaxInputSize = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.Logger = l }
}

// NewHandler creates the HTTP handler for agent. Requests to documented
// paths are validated against the embedded OpenAPI document.
func NewHandler(agent Agent, opts ...Option) (http.Handler, error) {
	s := &Server{
		Agent:  agent,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}

	validator, err := loadRouter(context.Background())
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(validateRequests(validator))

	r.Get("/healthz", s.Health)
	r.Get("/graph", s.Graph)
	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	if s.Audit != nil {
		r.Get("/audit", s.AuditEvents)
	}
	if s.Metrics != nil {
		r.Handle("/metrics", s.Metrics)
	}

	r.Group(func(r chi.Router) {
		r.Use(s.limit)
		r.Post("/ask", s.Ask)
		r.Post("/summary", s.Summary)
	})
	return r, nil
}

// Ask handles POST /ask.
func (s *Server) Ask(w http.ResponseWriter, r *http.Request) {
	var body AskRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		s.Logger.Warn("ask: invalid request body", "error", err)
		return
	}

	question, err := runner.SanitizeInputLimit(body.Question, s.MaxInputSize)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid input: %v", err))
		s.Logger.Warn("ask: input rejected", "error", err, "size", len(body.Question))
		return
	}

	res, err := s.Agent.Run(r.Context(), domain.NewState(question))
	s.respond(w, res, err)
}

// Summary handles POST /summary.
func (s *Server) Summary(w http.ResponseWriter, r *http.Request) {
	res, err := s.Agent.RunFrom(r.Context(), domain.NodeSummary, domain.State{})
	s.respond(w, res, err)
}

// Graph handles GET /graph.
func (s *Server) Graph(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(nil))
}

// AuditEvents handles GET /audit, optionally filtered by request_id.
func (s *Server) AuditEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.Audit.Events(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read audit trail")
		s.Logger.Error("audit read failed", "error", err)
		return
	}

	id := r.URL.Query().Get("request_id")
	if id != "" {
		filtered := make([]domain.AuditEvent, 0, len(events))
		for _, ev := range events {
			if ev.RequestID == id {
				filtered = append(filtered, ev)
			}
		}
		if len(filtered) == 0 {
			writeError(w, http.StatusNotFound, "unknown request_id")
			return
		}
		events = filtered
	}
	writeJSON(w, http.StatusOK, events)
}

// Health handles GET /healthz.
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) respond(w http.ResponseWriter, res *srag.Result, err error) {
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		s.Logger.Error("run failed", "error", err)
		return
	}
	writeJSON(w, http.StatusOK, AnswerResponse{
		RequestID: res.RequestID,
		Answer:    res.Answer,
		Path:      res.Path,
	})
}

func (s *Server) limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Limiter != nil {
			if res := s.Limiter.Reserve(); !res.OK() || res.Delay() > 0 {
				delay := res.Delay()
				res.Cancel()
				w.Header().Set("Retry-After", strconv.Itoa(int(delay.Seconds())+1))
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
