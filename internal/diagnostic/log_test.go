package diagnostic

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"
)

func captureStderr(fn func()) string {
	old := os.Stderr
	r, w, _ := os.Pipe()
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = old

	var buf bytes.Buffer
	_, _ = io.Copy(&buf, r)
	return buf.String()
}

func TestInfoSuppressedByQuiet(t *testing.T) {
	out := captureStderr(func() {
		l := New(true, false)
		l.Info("should not appear")
	})
	if out != "" {
		t.Errorf("expected no output in quiet mode, got %q", out)
	}
}

func TestInfoVisibleByDefault(t *testing.T) {
	out := captureStderr(func() {
		l := New(false, false)
		l.Info("hello %s", "world")
	})
	if !strings.Contains(out, "hello world") {
		t.Errorf("expected 'hello world' in output, got %q", out)
	}
}

func TestDebugRequiresVerbose(t *testing.T) {
	out := captureStderr(func() {
		l := New(false, false)
		l.Debug("should not appear")
	})
	if out != "" {
		t.Errorf("expected no debug output without --verbose, got %q", out)
	}
}

func TestDebugVisibleWhenVerbose(t *testing.T) {
	out := captureStderr(func() {
		l := New(false, true)
		l.Debug("probe failed: %d", 42)
	})
	if !strings.Contains(out, "DEBUG: probe failed: 42") {
		t.Errorf("expected debug line, got %q", out)
	}
}

func TestVerboseOverridesQuiet(t *testing.T) {
	out := captureStderr(func() {
		l := New(true, true)
		l.Info("visible despite quiet")
	})
	if !strings.Contains(out, "visible despite quiet") {
		t.Errorf("expected verbose to override quiet, got %q", out)
	}
}

func TestWarnPrefixesLine(t *testing.T) {
	out := captureStderr(func() {
		l := New(false, false)
		l.Warn("disk nearly full")
	})
	if !strings.Contains(out, "WARN: disk nearly full") {
		t.Errorf("expected WARN prefix, got %q", out)
	}
}
