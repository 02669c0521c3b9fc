package flow

import (
	"errors"
	"fmt"
)

// Kind classifies a flow failure.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindTemplateError
	KindProviderFailure
	KindOutputMismatch
	KindCancelled
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrTemplate        = errors.New("template error")
	ErrProviderFailure = errors.New("provider failure")
	ErrOutputMismatch  = errors.New("output mismatch")
	ErrCancelled       = errors.New("cancelled")

	ErrUnknownFlow = errors.New("unknown flow")
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidInput:
		return ErrInvalidInput
	case KindTemplateError:
		return ErrTemplate
	case KindProviderFailure:
		return ErrProviderFailure
	case KindOutputMismatch:
		return ErrOutputMismatch
	case KindCancelled:
		return ErrCancelled
	}
	return nil
}

func (k Kind) String() string {
	if s := k.sentinel(); s != nil {
		return s.Error()
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Retryable reports whether a caller may retry the same input. Only provider
// failures are transient; the core itself never retries.
func (k Kind) Retryable() bool {
	return k == KindProviderFailure
}

// Error is the failure of one flow invocation. errors.Is matches both the kind
// sentinel (ErrProviderFailure, ...) and anything in the cause chain
// (schema.ErrMissingField, llm.ErrProviderTimeout, ...).
type Error struct {
	Kind         Kind
	Flow         string
	InvocationID string
	Cause        error
}

func (e *Error) Error() string {
	return fmt.Sprintf("flow %s: %v: %v", e.Flow, e.Kind, e.Cause)
}

func (e *Error) Unwrap() []error {
	return []error{e.Kind.sentinel(), e.Cause}
}

// UserMessage is the text shown to the person who made the request.
func (e *Error) UserMessage() string {
	return UserMessage(e)
}

// KindOf returns the kind of a flow error, or 0 when err is not one.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return 0
}

// UserMessage distinguishes bad input, temporary unavailability and everything
// else for any error.
func UserMessage(err error) string {
	switch KindOf(err) {
	case KindInvalidInput:
		return "Your input was invalid."
	case KindProviderFailure:
		return "The service is temporarily unavailable. Please try again."
	case KindCancelled:
		return "The request was cancelled."
	default:
		return "Something unexpected happened."
	}
}
