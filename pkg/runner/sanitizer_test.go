package runner_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/srag/pkg/runner"
)

func TestSanitizeInput(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"plain", "Quantos casos em 2024?", "Quantos casos em 2024?", nil},
		{"accents kept", "Notícias sobre síndrome", "Notícias sobre síndrome", nil},
		{"safe controls kept", "linha1\nlinha2\tfim\r", "linha1\nlinha2\tfim\r", nil},
		{"escape stripped", "casos\x1b[31m vermelhos", "casos[31m vermelhos", nil},
		{"null stripped", "a\x00b", "ab", nil},
		{"invalid utf8", "\xff\xfe", "", runner.ErrInvalidUTF8},
		{"too large", strings.Repeat("a", runner.DefaultMaxInputSize+1), "", runner.ErrInputTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := runner.SanitizeInput(tt.input)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSanitizeInputLimit(t *testing.T) {
	_, err := runner.SanitizeInputLimit(strings.Repeat("a", 11), 10)
	assert.ErrorIs(t, err, runner.ErrInputTooLarge)

	got, err := runner.SanitizeInputLimit(strings.Repeat("a", 10), 10)
	require.NoError(t, err)
	assert.Len(t, got, 10)

	// non-positive limit falls back to the default
	_, err = runner.SanitizeInputLimit(strings.Repeat("a", 100), -3)
	assert.NoError(t, err)
}
