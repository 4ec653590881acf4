// Package apperr defines the error taxonomy shared across the generation
// core. Every error carries a stable machine code and, where actionable, a
// suggested remediation the caller can surface as-is.
package apperr

import (
	"errors"
	"fmt"
)

type Kind string

const (
	// ConnectionFailure: the backend could not be reached at the transport level.
	ConnectionFailure Kind = "connection_failure"
	// ModelUnavailable: the backend is reachable but the requested model is absent.
	ModelUnavailable Kind = "model_unavailable"
	// RequestFailed: the backend returned a non-2xx, non-model-missing response.
	RequestFailed Kind = "request_failed"
	// StreamInterrupted: a stream stalled or ended mid-response.
	StreamInterrupted Kind = "stream_interrupted"
	// Cancelled: the caller cancelled the call. Not a failure outcome.
	Cancelled Kind = "cancelled"
	// EmptyConversation: generation requires at least one user message.
	EmptyConversation Kind = "empty_conversation"
	// ValidationFailed: a precondition or output-structure check failed.
	ValidationFailed Kind = "validation_failed"
	// Unsupported: unknown provider kind, or a capability the kind lacks.
	Unsupported Kind = "unsupported"
)

type Error struct {
	Kind    Kind
	Message string
	Action  string // optional remediation, e.g. "ollama pull llama3.2"
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// WithAction attaches a remediation hint and returns the same error.
func (e *Error) WithAction(action string) *Error {
	e.Action = action
	return e
}

// KindOf returns the Kind of err, or "" if err is not an *Error.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return ""
}

func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// ActionOf returns the remediation hint attached to err, if any.
func ActionOf(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Action
	}
	return ""
}
