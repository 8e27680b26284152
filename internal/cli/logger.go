package cli

import (
	"log/slog"

	"github.com/aretw0/srag/internal/logging"
)

// NewLogger configures the application logger. Debug overrides level.
func NewLogger(level string, debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.New(logging.ParseLevel(level))
}
