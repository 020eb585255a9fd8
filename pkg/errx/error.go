package errx

import (
	"errors"
	"fmt"
)

// Error is the error value every layer returns. Code identifies it to
// clients; Err keeps the cause for logs and is never serialized.
type Error struct {
	Code       string         `json:"code"`
	Message    string         `json:"message"`
	Type       Type           `json:"type"`
	HTTPStatus int            `json:"http_status"`
	Details    map[string]any `json:"details,omitempty"`
	Err        error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// WithDetail sets one detail and returns e for chaining.
func (e *Error) WithDetail(key string, value any) *Error {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New builds an uncatalogued error of the given type. Domain code should
// prefer a Registry so clients get a stable code.
func New(message string, errType Type) *Error {
	return &Error{
		Code:       string(errType),
		Message:    message,
		Type:       errType,
		HTTPStatus: errType.HTTPStatus(),
		Details:    make(map[string]any),
	}
}

// Wrap adds context to err. When err already is an *Error its code,
// status and a copy of its details carry over, so the client still sees
// the original code.
func Wrap(err error, message string, errType Type) *Error {
	if err == nil {
		return nil
	}

	var inner *Error
	if errors.As(err, &inner) {
		details := make(map[string]any, len(inner.Details))
		for k, v := range inner.Details {
			details[k] = v
		}
		return &Error{
			Code:       inner.Code,
			Message:    message,
			Type:       errType,
			HTTPStatus: inner.HTTPStatus,
			Details:    details,
			Err:        err,
		}
	}

	e := New(message, errType)
	e.Err = err
	return e
}

func As(err error, target any) bool {
	return errors.As(err, target)
}
