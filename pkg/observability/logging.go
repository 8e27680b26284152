package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/srag/pkg/domain"
)

// LoggingHooks writes one line per node transition.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter", "request_id", e.RequestID, "node_id", e.NodeID)
		},
		OnNodeLeave: func(ctx context.Context, e *domain.NodeEvent) {
			attrs := []any{
				"request_id", e.RequestID,
				"node_id", e.NodeID,
				"decision", e.Decision,
				"duration", e.Duration,
			}
			if e.Failure != domain.FailureNone {
				logger.InfoContext(ctx, "node_leave", append(attrs, "failure", e.Failure)...)
				return
			}
			logger.DebugContext(ctx, "node_leave", attrs...)
		},
	}
}
