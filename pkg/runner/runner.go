package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aretw0/srag"
	"github.com/aretw0/srag/pkg/domain"
)

// Agent is the part of srag.Agent the runner needs.
type Agent interface {
	Run(ctx context.Context, initial domain.State) (*srag.Result, error)
}

// ExitWords end an interactive session.
var ExitWords = []string{"sair", "exit", "quit"}

// Runner reads questions until the stream ends or the context is cancelled.
type Runner struct {
	Agent   Agent
	Handler IOHandler
	Logger  *slog.Logger
	// MaxInputSize bounds each question; zero selects DefaultMaxInputSize.
	MaxInputSize int
}

// New creates a Runner on stdin and stdout.
func New(agent Agent) *Runner {
	return &Runner{
		Agent:   agent,
		Handler: NewTextHandler(nil, nil),
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Run is the read-ask-reply loop. Blank lines are skipped. It returns nil
// on end of input, an exit word or cancellation.
func (r *Runner) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		line, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return fmt.Errorf("input error: %w", err)
		}
		if line == "" {
			continue
		}
		if isExit(line) {
			return nil
		}

		reply := r.Ask(ctx, line)
		if err := r.Handler.Output(ctx, reply); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// Ask sanitizes and answers a single question.
func (r *Runner) Ask(ctx context.Context, question string) Reply {
	clean, err := SanitizeInputLimit(question, r.MaxInputSize)
	if err != nil {
		r.Logger.Warn("input rejected", "error", err)
		return Reply{Question: question, Error: err.Error()}
	}

	res, err := r.Agent.Run(ctx, domain.NewState(clean))
	if err != nil {
		r.Logger.Error("run failed", "error", err)
		return Reply{Question: clean, Error: err.Error()}
	}
	return Reply{
		RequestID: res.RequestID,
		Question:  clean,
		Answer:    res.Answer,
		Path:      res.Path,
	}
}

func isExit(line string) bool {
	for _, w := range ExitWords {
		if strings.EqualFold(line, w) {
			return true
		}
	}
	return false
}
