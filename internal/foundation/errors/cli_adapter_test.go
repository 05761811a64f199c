package errors

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(io.Discard, nil)))

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil error", nil, 0},
		{"validation", ValidationError("bad status").Build(), 2},
		{"config", ConfigError("bad config").Build(), 7},
		{"highlight", HighlightError("unknown theme").Build(), 11},
		{"filesystem", FileSystemError("missing source").Build(), 11},
		{"internal", InternalError("boom").Build(), 10},
		{"unclassified", errors.New("unknown"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, adapter.ExitCodeFor(tt.err))
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, nil)

	err := ValidationError("unknown project status").
		WithContext("entry", "src/projects/foo.md").
		WithContext("status", "paused").
		Build()

	got := adapter.FormatError(err)
	assert.Equal(t, "Error: unknown project status\n  entry: src/projects/foo.md\n  status: paused", got)
	assert.Equal(t, "Error: plain", adapter.FormatError(errors.New("plain")))
	assert.Empty(t, adapter.FormatError(nil))

	verbose := NewCLIErrorAdapter(true, nil)
	assert.Contains(t, verbose.FormatError(err), "[validation:fatal]")
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	var logs, out bytes.Buffer
	adapter := NewCLIErrorAdapter(false, slog.New(slog.NewTextHandler(&logs, nil)))
	adapter.out = &out
	code := -1
	adapter.exit = func(c int) { code = c }

	adapter.HandleError(ConfigError("missing input directory").Build())

	require.Equal(t, 7, code)
	assert.Contains(t, out.String(), "missing input directory")
	assert.Contains(t, logs.String(), "category=config")
}
