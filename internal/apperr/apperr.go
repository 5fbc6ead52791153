// Package apperr defines the error taxonomy shared by the booking core, the
// authorization gate and the HTTP layer. Every error that crosses the service
// boundary is an *Error carrying a Kind, a stable machine-readable Code and a
// message that is safe to show to clients. The wrapped cause is kept for logs
// only and never rendered.
package apperr

import (
	"errors"
	"net/http"
)

// Kind is the category of a failure. Handlers map a Kind to exactly one HTTP
// status code.
type Kind uint8

const (
	KindFatal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindUnauthenticated
	KindUnavailable
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindUnavailable:
		return "unavailable"
	default:
		return "fatal"
	}
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error is a categorized, client-safe error.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Details map[string]any
	Err     error
}

// New declares a sentinel. Derived errors created with Wrap, Msg or With keep
// the Code, so errors.Is(derived, sentinel) holds.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

func (e *Error) clone() *Error {
	cp := *e
	if e.Details != nil {
		cp.Details = make(map[string]any, len(e.Details))
		for k, v := range e.Details {
			cp.Details[k] = v
		}
	}
	return &cp
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	cp := e.clone()
	cp.Err = cause
	return cp
}

// Msg returns a copy of e with a more specific client message.
func (e *Error) Msg(message string) *Error {
	cp := e.clone()
	cp.Message = message
	return cp
}

// With returns a copy of e with an extra detail field rendered next to the
// message in the response body.
func (e *Error) With(key string, value any) *Error {
	cp := e.clone()
	if cp.Details == nil {
		cp.Details = map[string]any{}
	}
	cp.Details[key] = value
	return cp
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf reports the Kind of err. Errors outside the taxonomy are fatal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindFatal
}

// Response returns the HTTP status and JSON body for err. Details are merged
// into the body next to "error" and "message". Errors outside the taxonomy
// render as a generic 500 and never leak their text.
func Response(err error) (int, map[string]any) {
	e, ok := As(err)
	if !ok {
		return http.StatusInternalServerError, map[string]any{
			"error":   "internal_error",
			"message": "internal server error",
		}
	}
	body := make(map[string]any, len(e.Details)+2)
	for k, v := range e.Details {
		body[k] = v
	}
	body["error"] = e.Code
	body["message"] = e.Message
	return e.Kind.Status(), body
}
