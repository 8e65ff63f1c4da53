package common

import (
	"context"
	"errors"

	"github.com/cloudwego/hertz/pkg/app"
)

const (
	ErrCodeBadRequest = "bad_request"
	ErrCodeForbidden  = "forbidden"
	ErrCodeNotFound   = "not_found"
	ErrCodeConflict   = "conflict"
	ErrCodeInternal   = "internal_error"
)

// Sentinel errors shared by the service and its surfaces. Callers wrap them
// with context and match with errors.Is.
var (
	ErrPermissionDenied = errors.New("permission denied")
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	// ErrNotTicket is returned when a ticket-scoped action runs outside a
	// stored ticket channel.
	ErrNotTicket = &notTicketError{}
)

type notTicketError struct{}

func (*notTicketError) Error() string        { return "channel is not a ticket" }
func (*notTicketError) Is(target error) bool { return target == ErrNotFound }

// ErrorResponse harmonized HTTP error schema.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id"`
}

// RequestIDKey exported for reuse in tests and middleware.
const RequestIDKey = "request_id"

// ErrorCode maps a domain error to its code and HTTP status.
func ErrorCode(err error) (string, int) {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrCodeBadRequest, 400
	case errors.Is(err, ErrPermissionDenied):
		return ErrCodeForbidden, 403
	case errors.Is(err, ErrNotFound):
		return ErrCodeNotFound, 404
	case errors.Is(err, ErrConflict):
		return ErrCodeConflict, 409
	default:
		return ErrCodeInternal, 500
	}
}

// WriteError converts an error code + message to the HTTP JSON envelope.
// A zero status is derived from the code.
func WriteError(c context.Context, ctx *app.RequestContext, status int, code, msg string) {
	rid := ""
	if v, ok := ctx.Get(RequestIDKey); ok {
		switch vv := v.(type) {
		case string:
			rid = vv
		case []byte:
			rid = string(vv)
		}
	}
	if status == 0 {
		status = statusForCode(code)
	}
	ctx.JSON(status, ErrorResponse{Code: code, Message: msg, RequestID: rid})
}

// WriteDomainError writes err using the code ErrorCode derives for it.
// Internal errors are not echoed to the client.
func WriteDomainError(c context.Context, ctx *app.RequestContext, err error) {
	code, status := ErrorCode(err)
	msg := err.Error()
	if status == 500 {
		msg = "internal error"
	}
	WriteError(c, ctx, status, code, msg)
}

func statusForCode(code string) int {
	switch code {
	case ErrCodeBadRequest:
		return 400
	case ErrCodeForbidden:
		return 403
	case ErrCodeNotFound:
		return 404
	case ErrCodeConflict:
		return 409
	default:
		return 500
	}
}
