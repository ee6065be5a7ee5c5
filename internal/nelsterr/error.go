// Package nelsterr defines the error taxonomy shared by every probe engine
// and the CLI layer: a single error type with an associated exit code and an
// optional operator-facing hint.
package nelsterr

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// Kind classifies an error for exit-code mapping and retry eligibility.
type Kind int

const (
	KindArgument Kind = iota
	KindConnection
	KindPermission
	KindTimeout
	KindIO
	KindConfig
	KindScan
	KindOther
)

func (k Kind) String() string {
	switch k {
	case KindArgument:
		return "argument"
	case KindConnection:
		return "connection"
	case KindPermission:
		return "permission"
	case KindTimeout:
		return "timeout"
	case KindIO:
		return "io"
	case KindConfig:
		return "config"
	case KindScan:
		return "scan"
	default:
		return "other"
	}
}

// ExitStatus mirrors the CLI's documented exit code table.
type ExitStatus int

const (
	ExitSuccess    ExitStatus = 0
	ExitGeneral    ExitStatus = 1
	ExitArgument   ExitStatus = 2
	ExitConnection ExitStatus = 3
	ExitPermission ExitStatus = 4
	ExitTimeout    ExitStatus = 5
)

// Error is the single error type surfaced by every engine and the CLI.
type Error struct {
	Kind    Kind
	Message string
	Hint    string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// ExitCode maps the error's kind to the documented process exit status.
func (e *Error) ExitCode() ExitStatus {
	switch e.Kind {
	case KindArgument:
		return ExitArgument
	case KindConnection:
		return ExitConnection
	case KindPermission:
		return ExitPermission
	case KindTimeout:
		return ExitTimeout
	case KindIO:
		if e.Err != nil {
			if errors.Is(e.Err, fs.ErrPermission) || errors.Is(e.Err, os.ErrPermission) {
				return ExitPermission
			}
			var timeoutErr interface{ Timeout() bool }
			if errors.As(e.Err, &timeoutErr) && timeoutErr.Timeout() {
				return ExitTimeout
			}
		}
		return ExitGeneral
	default:
		return ExitGeneral
	}
}

// IsRetryable reports whether the error kind is worth retrying; only
// connection and timeout errors qualify. Callers are not required to retry.
func (e *Error) IsRetryable() bool {
	return e.Kind == KindConnection || e.Kind == KindTimeout
}

// HasHint reports whether a hint was set, and returns it.
func (e *Error) HasHint() (string, bool) {
	return e.Hint, e.Hint != ""
}

func Argument(format string, args ...any) *Error {
	return &Error{Kind: KindArgument, Message: fmt.Sprintf(format, args...)}
}

func Connection(message string) *Error {
	return &Error{Kind: KindConnection, Message: message}
}

func ConnectionWithSource(message string, err error) *Error {
	return &Error{Kind: KindConnection, Message: message, Err: err}
}

func Permission(message string) *Error {
	return &Error{Kind: KindPermission, Message: message}
}

func PermissionWithHint(message, hint string) *Error {
	return &Error{Kind: KindPermission, Message: message, Hint: hint}
}

func Timeout(message string) *Error {
	return &Error{Kind: KindTimeout, Message: message}
}

func Config(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

func Scan(format string, args ...any) *Error {
	return &Error{Kind: KindScan, Message: fmt.Sprintf(format, args...)}
}

func IOWithContext(message string, err error) *Error {
	return &Error{Kind: KindIO, Message: message, Err: err}
}

// Format renders the two-line stderr form the CLI prints on failure:
// "Error: <message>" and, when present, "Hint: <text>".
func Format(err error) string {
	var ne *Error
	if errors.As(err, &ne) {
		if hint, ok := ne.HasHint(); ok {
			return fmt.Sprintf("Error: %s\nHint: %s", ne.Error(), hint)
		}
		return fmt.Sprintf("Error: %s", ne.Error())
	}
	return fmt.Sprintf("Error: %s", err.Error())
}

// ExitCodeFor resolves the documented exit status for an arbitrary error,
// treating anything that isn't a *Error as a general failure.
func ExitCodeFor(err error) ExitStatus {
	if err == nil {
		return ExitSuccess
	}
	var ne *Error
	if errors.As(err, &ne) {
		return ne.ExitCode()
	}
	return ExitGeneral
}
