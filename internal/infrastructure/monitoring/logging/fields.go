package logging

import (
	"time"

	"github.com/turtacn/MolMatch/pkg/errors"
)

// Canonical field keys shared by every component.
const (
	FieldRequestID = "request_id"
	FieldJobID     = "job_id"
	FieldComponent = "component"
	FieldMode      = "mode"
	FieldStatus    = "status"
	FieldErrorCode = "error_code"
	FieldDuration  = "duration_ms"
)

// slowOperation is the threshold above which LogOperation warns.
const slowOperation = 2 * time.Second

// ErrorFields returns the error field plus its application code when err
// carries one. A nil error yields no fields.
func ErrorFields(err error) []Field {
	if err == nil {
		return nil
	}
	fields := []Field{Err(err)}
	if code := errors.GetCode(err); code != errors.CodeUnknown {
		fields = append(fields, String(FieldErrorCode, code.String()))
	}
	return fields
}

// LogOperation records the outcome of op started at start: error level on
// failure, warn when slow, debug otherwise.
func LogOperation(l Logger, op string, start time.Time, err error, fields ...Field) {
	elapsed := time.Since(start)
	fields = append(fields, String("operation", op), Int64(FieldDuration, elapsed.Milliseconds()))
	switch {
	case err != nil:
		l.Error("operation failed", append(fields, ErrorFields(err)...)...)
	case elapsed > slowOperation:
		l.Warn("slow operation", fields...)
	default:
		l.Debug("operation completed", fields...)
	}
}

//Personal.AI order the ending
