package cli

import (
	"context"
	"io"
	"os"

	"github.com/aretw0/srag/internal/presentation/tui"
	"github.com/aretw0/srag/pkg/runner"
)

// SessionOptions configure an interactive or piped session.
type SessionOptions struct {
	JSON bool
	In   io.Reader
	Out  io.Writer
}

// RunSession reads questions until end of input. On a terminal it prints
// the banner and renders answers as markdown.
func RunSession(ctx context.Context, app *App, opts SessionOptions) error {
	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	r := runner.New(app.Agent)
	r.Logger = app.Logger
	if app.Config != nil {
		r.MaxInputSize = app.Config.MaxInputSize
	}

	if opts.JSON {
		r.Handler = runner.NewJSONHandler(in, out)
		return r.Run(ctx)
	}

	h := runner.NewTextHandler(in, out)
	if f, ok := out.(*os.File); ok && tui.IsInteractive(f) {
		tui.PrintBanner(out)
		if render, err := tui.NewRenderer(tui.Width(f, 100) - 4); err == nil {
			h.Renderer = render
		}
	} else {
		h.Prompt = ""
	}
	r.Handler = h
	return r.Run(ctx)
}
