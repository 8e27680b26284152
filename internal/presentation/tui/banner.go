package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

var bannerLines = []struct {
	text  string
	color string
}{
	{"   ____  ____      _    ____ ", "#38bdf8"},
	{"  / ___||  _ \\    / \\  / ___|", "#22d3ee"},
	{"  \\___ \\| |_) |  / _ \\| |  _ ", "#2dd4bf"},
	{"   ___) |  _ <  / ___ \\ |_| |", "#34d399"},
	{"  |____/|_| \\_\\/_/   \\_\\____|", "#4ade80"},
}

// PrintBanner writes the colored banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.EnvColorProfile()
	fmt.Fprintln(w)
	for _, l := range bannerLines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w, termenv.String("  Vigilância de SRAG: pergunte sobre casos, conceitos ou notícias.").Faint())
	fmt.Fprintln(w)
}
