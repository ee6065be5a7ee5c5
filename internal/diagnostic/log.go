// Package diagnostic is a thin, leveled wrapper over output.Progress used
// for the per-probe debug/info/warn lines every engine emits, the Go
// counterpart of the original tool's tracing::{debug,info,warn} calls.
package diagnostic

import "github.com/dmitriimaksimovdevelop/nelst/internal/output"

// Level classifies a diagnostic line for filtering.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelWarn:
		return "WARN"
	default:
		return "INFO"
	}
}

// Logger emits elapsed-time-prefixed stderr lines, gated by level: Info
// and Warn respect --quiet, Debug additionally requires --verbose.
type Logger struct {
	progress *output.Progress
}

// New builds a Logger. quiet suppresses Info/Warn; verbose additionally
// enables Debug (and, like the CLI's own flag precedence, overrides quiet).
func New(quiet, verbose bool) *Logger {
	return &Logger{progress: output.NewVerboseProgress(!quiet, verbose)}
}

// Debug logs a line visible only with --verbose.
func (l *Logger) Debug(format string, args ...interface{}) {
	l.progress.Debug(format, args...)
}

// Info logs a line suppressed by --quiet.
func (l *Logger) Info(format string, args ...interface{}) {
	l.progress.Log(format, args...)
}

// Warn logs a line suppressed by --quiet, same as Info but semantically a
// warning; callers choose the level, this wrapper does not escalate exit
// codes or otherwise change behavior based on it.
func (l *Logger) Warn(format string, args ...interface{}) {
	l.progress.Log("WARN: "+format, args...)
}
