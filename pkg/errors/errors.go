// Package errors is the structured error type shared by every MolMatch layer.
// An AppError carries a catalogue code, so HTTP responses, CLI exit paths, job
// results and log lines classify a failure the same way.
//
//	return errors.New(errors.ErrCodeInvalidGraph, "bond references atom 12").
//		WithDetail("graph=query atoms=9")
//	return errors.Wrap(err, errors.ErrCodeStorageError, "failed to fetch molfile")
package errors

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
)

const stackDepth = 32

// AppError supports wrapping, so errors.Is and errors.As see through it.
type AppError struct {
	Code    ErrorCode
	Message string
	// Detail carries context such as atom ids, option names or object keys.
	Detail string
	Cause  error

	pcs []uintptr
}

func (e *AppError) Error() string {
	var sb strings.Builder
	sb.WriteByte('[')
	sb.WriteString(string(e.Code))
	sb.WriteString("] ")
	sb.WriteString(e.Message)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Cause != nil {
		sb.WriteString(" -> ")
		sb.WriteString(e.Cause.Error())
	}
	return sb.String()
}

func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError with the same code and message, so package
// level sentinels keep matching after WithDetail copies them.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// Format prints the stack trace of the creation site with %+v.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		_, _ = io.WriteString(s, e.Error())
		_, _ = io.WriteString(s, e.StackTrace())
	case verb == 'v' || verb == 's':
		_, _ = io.WriteString(s, e.Error())
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

// StackTrace formats the frames captured at creation, runtime frames omitted.
func (e *AppError) StackTrace() string {
	if len(e.pcs) == 0 {
		return ""
	}
	frames := runtime.CallersFrames(e.pcs)
	var sb strings.Builder
	for {
		f, more := frames.Next()
		if !strings.HasPrefix(f.Function, "runtime.") {
			fmt.Fprintf(&sb, "\n\t%s:%d %s", f.File, f.Line, f.Function)
		}
		if !more {
			break
		}
	}
	return sb.String()
}

// WithDetail returns a copy with Detail set. Nil receivers stay nil.
func (e *AppError) WithDetail(detail string) *AppError {
	if e == nil {
		return nil
	}
	clone := *e
	clone.Detail = detail
	return &clone
}

// callers skips runtime.Callers, callers itself and the exported constructor.
func callers() []uintptr {
	pcs := make([]uintptr, stackDepth)
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

// ─────────────────────────────────────────────────────────────────────────────
// Constructors
// ─────────────────────────────────────────────────────────────────────────────

func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message, pcs: callers()}
}

func Newf(code ErrorCode, format string, args ...interface{}) *AppError {
	return &AppError{Code: code, Message: fmt.Sprintf(format, args...), pcs: callers()}
}

// Wrap returns nil for a nil err so it can be used inline. CodeUnknown keeps
// the code of a wrapped AppError.
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}
	if code == CodeUnknown {
		code = GetCode(err)
	}
	return &AppError{Code: code, Message: message, Cause: err, pcs: callers()}
}

// ─────────────────────────────────────────────────────────────────────────────
// Chain inspection
// ─────────────────────────────────────────────────────────────────────────────

// IsCode reports whether any AppError in the chain carries code.
func IsCode(err error, code ErrorCode) bool {
	return anyInChain(err, func(ae *AppError) bool { return ae.Code == code })
}

// IsNotFound reports whether any AppError in the chain maps to 404.
func IsNotFound(err error) bool {
	return anyInChain(err, func(ae *AppError) bool {
		return HTTPStatusForCode(ae.Code) == 404
	})
}

// IsInput reports whether any AppError in the chain blames the submitted
// molecule rather than the infrastructure.
func IsInput(err error) bool {
	return anyInChain(err, func(ae *AppError) bool { return IsInputCode(ae.Code) })
}

// GetCode returns the code of the outermost AppError: CodeOK for nil,
// CodeUnknown when the chain has none.
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

func anyInChain(err error, pred func(*AppError) bool) bool {
	for err != nil {
		var ae *AppError
		if !errors.As(err, &ae) {
			return false
		}
		if pred(ae) {
			return true
		}
		err = ae.Cause
	}
	return false
}

//Personal.AI order the ending
