// Package errors provides the unified error type for the PatentsView graph
// loader. Every layer returns *AppError so that the CLI can map a failure to
// an exit status and the loader can tally recoverable failures by kind.
package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
)

// stackDepth is the maximum number of frames captured per error.
const stackDepth = 32

func captureStack(skip int) string {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(skip+2, pcs)
	if n == 0 {
		return ""
	}
	frames := runtime.CallersFrames(pcs[:n])
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.Contains(f.File, "runtime/") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// ─────────────────────────────────────────────────────────────────────────────
// AppError
// ─────────────────────────────────────────────────────────────────────────────

// AppError is the structured error carried across the loader.
//
//	return errors.New(errors.ErrCodeCredentialFile, "credential file has fewer than two lines")
//	return errors.Wrap(err, errors.ErrCodeConnection, "verify connectivity")
type AppError struct {
	Code    ErrorCode
	Message string

	// Detail carries context such as file name and line number.
	Detail string

	Cause error

	// Stack is not part of Error() output.
	Stack string
}

// Error formats as "[CODE] message: detail: cause".
func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteString("[")
	sb.WriteString(e.Code.String())
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Kind reports the summary category of the error.
func (e *AppError) Kind() Kind {
	return KindOf(e.Code)
}

// WithDetail returns a copy with Detail set. Safe on nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// WithCause returns a copy with Cause set. Safe on nil.
func (e *AppError) WithCause(err error) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Cause = err
	return &clone
}

// ─────────────────────────────────────────────────────────────────────────────
// Factories
// ─────────────────────────────────────────────────────────────────────────────

// New constructs an AppError with a captured stack.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Stack:   captureStack(1),
	}
}

// Newf is New with a format string.
func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(1),
	}
}

// Wrap returns nil when err is nil. With CodeUnknown the code of an existing
// *AppError in the chain is preserved.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		var ae *AppError
		if errors.As(err, &ae) {
			code = ae.Code
		}
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
		Stack:   captureStack(1),
	}
}

// ConfigError, RowParseError, ReferenceError and WriteError construct the
// error kinds the loader reports on.
func ConfigError(message string) *AppError {
	return &AppError{Code: ErrCodeConfig, Message: message, Stack: captureStack(1)}
}

func RowParseError(message string) *AppError {
	return &AppError{Code: ErrCodeRowParse, Message: message}
}

func ReferenceError(message string) *AppError {
	return &AppError{Code: ErrCodeReference, Message: message}
}

func WriteError(err error, message string) *AppError {
	return &AppError{Code: ErrCodeWrite, Message: message, Cause: err}
}

func ConnectionError(err error, message string) *AppError {
	return &AppError{Code: ErrCodeConnection, Message: message, Cause: err, Stack: captureStack(1)}
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any *AppError in err's chain carries code.
func IsCode(err error, code ErrorCode) bool {
	var ae *AppError
	for err != nil {
		if errors.As(err, &ae) && ae.Code == code {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}

// GetCode returns the code of the first *AppError in err's chain, CodeOK for
// nil and CodeUnknown when no AppError is present.
func GetCode(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	return CodeUnknown
}

// IsKind reports whether the outermost AppError in err's chain has kind k.
func IsKind(err error, k Kind) bool {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Kind() == k
	}
	return false
}

// IsFatal reports whether err must stop the run.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	var ae *AppError
	if !errors.As(err, &ae) {
		return true
	}
	switch ae.Kind() {
	case KindRowParse, KindReference, KindWrite:
		return false
	default:
		return true
	}
}

// Exit statuses returned by the load command.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitConfig     = 2
	ExitConnection = 3
)

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}
	var ae *AppError
	if errors.As(err, &ae) {
		switch ae.Kind() {
		case KindConfig:
			return ExitConfig
		case KindConnection:
			return ExitConnection
		}
	}
	return ExitFailure
}

// Is and As re-export the standard library helpers so that callers importing
// this package under the name "errors" keep access to them.
func Is(err, target error) bool { return errors.Is(err, target) }

func As(err error, target interface{}) bool { return errors.As(err, target) }

//Personal.AI order the ending
