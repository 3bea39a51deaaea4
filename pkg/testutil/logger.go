// Package testutil provides shared helpers for tests.
package testutil

import (
	"bytes"
	"io"
	"log/slog"
	"testing"
)

// NewTestLogger creates a debug-level logger writing to w.
// If w is nil, output is discarded.
func NewTestLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

// DiscardLogger returns a logger that discards all output
func DiscardLogger() *slog.Logger {
	return NewTestLogger(nil)
}

// Logger returns a debug-level logger that routes records through
// tb.Logf, so log lines show up next to the failing assertion.
func Logger(tb testing.TB) *slog.Logger {
	return NewTestLogger(&tbWriter{tb: tb})
}

type tbWriter struct {
	tb testing.TB
}

func (w *tbWriter) Write(p []byte) (int, error) {
	w.tb.Helper()
	w.tb.Logf("%s", bytes.TrimRight(p, "\n"))
	return len(p), nil
}
