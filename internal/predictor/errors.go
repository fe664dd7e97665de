package predictor

import (
	"errors"
	"fmt"
)

// Kind classifies a failure of the upload flow.
type Kind int

const (
	// NetworkFailure means the request could not complete.
	NetworkFailure Kind = iota + 1
	// ServerError means the service answered with a non-2xx status.
	ServerError
	// PayloadError means the body was malformed or carried an error field.
	PayloadError
	// PreconditionError means a report was requested without an upload.
	PreconditionError
)

func (k Kind) String() string {
	switch k {
	case NetworkFailure:
		return "network_failure"
	case ServerError:
		return "server_error"
	case PayloadError:
		return "payload_error"
	case PreconditionError:
		return "precondition_error"
	default:
		return "unknown"
	}
}

// Error is a user-presentable failure. Message is what the user sees.
type Error struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ErrNoUpload is returned when a report is requested before a successful classification.
var ErrNoUpload = &Error{Kind: PreconditionError, Message: "Please upload an image first!"}

// NewNetworkError wraps a transport failure.
func NewNetworkError(err error) error {
	return &Error{Kind: NetworkFailure, Message: err.Error(), Err: err}
}

// NewServerError reports a non-2xx response.
func NewServerError(status int) error {
	return &Error{Kind: ServerError, StatusCode: status, Message: fmt.Sprintf("Server returned %d", status)}
}

// NewPayloadError reports a malformed or explicitly failed payload.
func NewPayloadError(message string, err error) error {
	return &Error{Kind: PayloadError, Message: message, Err: err}
}

// KindOf extracts the failure kind from err, or 0 if it carries none.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return 0
}

// UserMessage returns the text to show the user for err.
func UserMessage(err error) string {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Error()
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
