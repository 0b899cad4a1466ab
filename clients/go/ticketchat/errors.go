package ticketchat

import (
	"errors"
	"fmt"
)

// Error codes surfaced by the client. They mirror the server's error
// taxonomy so callers can branch without string matching.
const (
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeForbidden            = "FORBIDDEN"
	CodeNotFound             = "NOT_FOUND"
	CodeTransportUnavailable = "TRANSPORT_UNAVAILABLE"
	CodeDeliveryFailed       = "DELIVERY_FAILED"
	CodeBadRequest           = "BAD_REQUEST"
	CodeInternal             = "INTERNAL"
)

// AppError is a coded error with an optional cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == code
	}
	return false
}

func newError(code, message string, err error) *AppError {
	return &AppError{Code: code, Message: message, Err: err}
}

// errTransportTimeout marks a transport send whose bounded wait
// expired. The send may still land; the caller proceeds to the
// fallback and the merge rule absorbs a late ack.
var errTransportTimeout = newError(CodeTransportUnavailable, "transport ack wait expired", nil)
