// Package handlers implements the MolMatch HTTP endpoints on gin. Handlers
// depend on narrow service interfaces so tests can substitute fakes.
package handlers

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/MolMatch/internal/interfaces/http/middleware"
	"github.com/turtacn/MolMatch/pkg/errors"
)

// ErrorResponse is the error body of every endpoint.
type ErrorResponse struct {
	Code      errors.ErrorCode `json:"code"`
	Message   string           `json:"message"`
	Detail    string           `json:"detail,omitempty"`
	RequestID string           `json:"request_id,omitempty"`
}

// bindJSON decodes the request body into dest, reading at most limit bytes
// when limit is positive.
func bindJSON(c *gin.Context, dest interface{}, limit int64) error {
	if limit > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	}
	if err := c.ShouldBindJSON(dest); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case stderrors.As(err, &tooLarge):
			return errors.Newf(errors.ErrCodeBadRequest, "request body exceeds %d bytes", limit)
		case stderrors.Is(err, io.EOF):
			return errors.New(errors.ErrCodeBadRequest, "request body is empty")
		}
		return errors.Wrap(err, errors.ErrCodeBadRequest, "invalid request body")
	}
	return nil
}

// writeAppError maps err to its HTTP status through the error code table.
// Server-side failures are masked; the full error goes to c.Errors for the
// access log.
func writeAppError(c *gin.Context, err error) {
	_ = c.Error(err)

	code := errors.GetCode(err)
	if !errors.Known(code) {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)
	resp := ErrorResponse{
		Code:      code,
		Message:   errors.DefaultMessageForCode(code),
		RequestID: middleware.GetRequestID(c),
	}

	var ae *errors.AppError
	if status < http.StatusInternalServerError && stderrors.As(err, &ae) {
		resp.Message = ae.Message
		resp.Detail = ae.Detail
		if ae.Cause != nil {
			if resp.Detail != "" {
				resp.Detail += "; "
			}
			resp.Detail += ae.Cause.Error()
		}
	}
	c.AbortWithStatusJSON(status, resp)
}

//Personal.AI order the ending
