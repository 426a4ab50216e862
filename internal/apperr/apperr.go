// Package apperr defines the error taxonomy shared by the intake and edit
// session controllers. Errors never cross the process boundary; surfaces
// only show Message as a status line and log the rest.
package apperr

import "errors"

// Kind categorizes an edit workflow failure.
type Kind int

const (
	// KindInvalidInput covers a missing file, a non-image file, or an empty prompt.
	KindInvalidInput Kind = iota
	// KindRequestRejected means the edit service answered with a non-success status.
	KindRequestRejected
	// KindTransportFailure means no usable response could be obtained.
	KindTransportFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid_input"
	case KindRequestRejected:
		return "request_rejected"
	case KindTransportFailure:
		return "transport_failure"
	default:
		return "unknown"
	}
}

// Error is a categorized workflow error carrying a user-facing message.
type Error struct {
	Kind    Kind
	Message string
	// StatusCode is the HTTP status for KindRequestRejected, zero otherwise.
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// InvalidInput returns a KindInvalidInput error.
func InvalidInput(message string) *Error {
	return &Error{Kind: KindInvalidInput, Message: message}
}

// Rejected returns a KindRequestRejected error. message may be empty when the
// service did not explain itself.
func Rejected(statusCode int, message string, err error) *Error {
	return &Error{Kind: KindRequestRejected, Message: message, StatusCode: statusCode, Err: err}
}

// Transport returns a KindTransportFailure error.
func Transport(message string, err error) *Error {
	return &Error{Kind: KindTransportFailure, Message: message, Err: err}
}

// KindOf reports the Kind of err if it is (or wraps) an *Error.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return 0, false
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
