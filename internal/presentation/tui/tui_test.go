package tui_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/internal/presentation/tui"
)

func TestNewRenderer(t *testing.T) {
	render, err := tui.NewRenderer(80)
	require.NoError(t, err)

	out, err := render("# Casos\n\n**42** notificações")
	require.NoError(t, err)
	assert.Contains(t, out, "Casos")
	assert.Contains(t, out, "42")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Contains(t, buf.String(), "Vigilância de SRAG")
}

func TestWidth_NotTerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	require.NoError(t, err)
	defer f.Close()

	assert.False(t, tui.IsInteractive(f))
	assert.Equal(t, 100, tui.Width(f, 100))
}
