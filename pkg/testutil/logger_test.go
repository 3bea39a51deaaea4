package testutil

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewTestLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewTestLogger(buf)
	if logger == nil {
		t.Fatal("NewTestLogger returned nil")
	}

	logger.Debug("debug message", "key", "value")
	if !strings.Contains(buf.String(), "debug message") {
		t.Errorf("debug record not written, got %q", buf.String())
	}

	// nil writer should fall back to io.Discard
	logger = NewTestLogger(nil)
	if logger == nil {
		t.Error("NewTestLogger returned nil with nil writer")
	}
	logger.Info("dropped")
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	if logger == nil {
		t.Fatal("DiscardLogger returned nil")
	}

	logger.Info("test message", "key", "value")
	logger.Debug("debug message", "key", "value")
	logger.Warn("warning message", "key", "value")
	logger.Error("error message", "key", "value")
}

func TestLogger(t *testing.T) {
	logger := Logger(t)
	if logger == nil {
		t.Fatal("Logger returned nil")
	}

	// Records should land in the test log without failing the test.
	logger.Debug("routed through testing.TB", "key", "value")
}
