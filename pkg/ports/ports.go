package ports

import (
	"context"

	"github.com/aretw0/srag/pkg/domain"
)

// Row is one record returned by the data store, keyed by column name.
type Row = map[string]any

// Generator is a text-generation service used for explanation,
// summarization and scope classification.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Translator turns a natural-language question into a restricted query string.
// An empty result means no query could be produced.
type Translator interface {
	Translate(ctx context.Context, question, schemaHint string) (string, error)
}

// DataStore executes read-only statements. It performs no validation of its own.
type DataStore interface {
	Execute(ctx context.Context, query string) ([]Row, error)
}

// NewsSearcher retrieves recent news as free text (possibly a JSON list of
// {title, url, snippet} objects).
type NewsSearcher interface {
	Search(ctx context.Context, query string) (string, error)
}

// Summarizer produces the executive summary combining metrics and news.
type Summarizer interface {
	Summarize(ctx context.Context) (string, error)
}

// AuditSink receives one event per node execution.
// Implementations must be safe for concurrent use and must never
// interleave two events.
type AuditSink interface {
	Record(ctx context.Context, event domain.AuditEvent) error
}

// AuditReader exposes recorded events for post-hoc inspection tools.
// The machine itself never reads the audit trail.
type AuditReader interface {
	Events(ctx context.Context) ([]domain.AuditEvent, error)
}
