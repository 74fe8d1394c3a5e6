// Package classify maps raw transport failures onto a fixed error taxonomy
// with a retryability flag. Retry policy itself lives in the orchestrator.
package classify

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/resumecurator/analyzer/internal/client"
)

// Kind is the taxonomy entry of a classified failure.
type Kind string

const (
	NetworkError      Kind = "NetworkError"
	Timeout           Kind = "Timeout"
	RateLimited       Kind = "RateLimited"
	ServerUnavailable Kind = "ServerUnavailable"
	ServerError       Kind = "ServerError"
	ValidationError   Kind = "ValidationError"
	NotYetCreated     Kind = "NotYetCreated"
	Aborted           Kind = "Aborted"
	AnalysisFailed    Kind = "AnalysisFailed"
	UnknownError      Kind = "UnknownError"
)

// ClassifiedError is a raw failure labeled with a taxonomy kind. Raw keeps
// the original cause for logging; consumers render UserMessage instead.
type ClassifiedError struct {
	Kind       Kind
	Message    string
	Retryable  bool
	HTTPStatus int
	Raw        error
}

func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *ClassifiedError) Unwrap() error {
	return e.Raw
}

// userMessages are the stable per-kind messages surfaced to the user. The raw
// transport error never reaches the UI.
var userMessages = map[Kind]string{
	NetworkError:      "Could not reach the analysis service. Check your connection and try again.",
	Timeout:           "The analysis service took too long to respond. Try again later.",
	RateLimited:       "Too many requests. Wait a moment before trying again.",
	ServerUnavailable: "The analysis service is temporarily unavailable. Try again later.",
	ServerError:       "The analysis service reported an internal error.",
	ValidationError:   "The service rejected the submitted input.",
	NotYetCreated:     "The analysis is not available yet.",
	Aborted:           "The analysis was cancelled.",
	AnalysisFailed:    "The analysis could not be completed.",
	UnknownError:      "An unexpected error occurred.",
}

// UserMessage returns the stable message associated with the error kind.
func (e *ClassifiedError) UserMessage() string {
	return userMessages[e.Kind]
}

// New builds a ClassifiedError for a kind that does not originate from a
// transport failure, such as a terminal failed analysis status.
func New(kind Kind, message string) *ClassifiedError {
	return &ClassifiedError{
		Kind:      kind,
		Message:   message,
		Retryable: kind.retryable(),
	}
}

func (k Kind) retryable() bool {
	switch k {
	case NetworkError, Timeout, RateLimited, ServerUnavailable, ServerError, NotYetCreated:
		return true
	default:
		return false
	}
}

// Classify labels err with a taxonomy kind. Unrecognized shapes classify as
// UnknownError with retryable=false so callers fail closed instead of
// retrying forever.
func Classify(err error) *ClassifiedError {
	if err == nil {
		return nil
	}

	var classified *ClassifiedError
	if errors.As(err, &classified) {
		return classified
	}

	if errors.Is(err, context.Canceled) {
		return &ClassifiedError{Kind: Aborted, Message: "operation cancelled", Raw: err}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ClassifiedError{Kind: Timeout, Message: "request exceeded client timeout", Retryable: true, Raw: err}
	}

	var failure *client.Failure
	if errors.As(err, &failure) {
		return classifyFailure(failure)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return &ClassifiedError{Kind: Timeout, Message: "request exceeded client timeout", Retryable: true, Raw: err}
		}
		return &ClassifiedError{Kind: NetworkError, Message: "connection failure", Retryable: true, Raw: err}
	}

	return &ClassifiedError{Kind: UnknownError, Message: err.Error(), Raw: err}
}

func classifyFailure(failure *client.Failure) *ClassifiedError {
	// No response at all: the cause decides between timeout and network.
	if failure.StatusCode == 0 {
		if cause := failure.Cause; cause != nil {
			if errors.Is(cause, context.Canceled) {
				return &ClassifiedError{Kind: Aborted, Message: "operation cancelled", Raw: failure}
			}
			if errors.Is(cause, context.DeadlineExceeded) {
				return &ClassifiedError{Kind: Timeout, Message: "request exceeded client timeout", Retryable: true, Raw: failure}
			}
			var netErr net.Error
			if errors.As(cause, &netErr) && netErr.Timeout() {
				return &ClassifiedError{Kind: Timeout, Message: "request exceeded client timeout", Retryable: true, Raw: failure}
			}
		}
		return &ClassifiedError{Kind: NetworkError, Message: failure.Message, Retryable: true, Raw: failure}
	}

	ce := &ClassifiedError{Message: failure.Message, HTTPStatus: failure.StatusCode, Raw: failure}
	switch {
	case failure.StatusCode == http.StatusTooManyRequests:
		ce.Kind, ce.Retryable = RateLimited, true
	case failure.StatusCode == http.StatusBadGateway,
		failure.StatusCode == http.StatusServiceUnavailable,
		failure.StatusCode == http.StatusGatewayTimeout:
		ce.Kind, ce.Retryable = ServerUnavailable, true
	case failure.StatusCode == http.StatusInternalServerError:
		ce.Kind, ce.Retryable = ServerError, true
	case failure.StatusCode == http.StatusBadRequest,
		failure.StatusCode == http.StatusUnprocessableEntity:
		ce.Kind = ValidationError
	case failure.StatusCode == http.StatusNotFound && failure.Op == client.OpStatus:
		// The job may not be visible yet right after submission; tolerated
		// by the orchestrator for a bounded number of polls.
		ce.Kind, ce.Retryable = NotYetCreated, true
	default:
		ce.Kind = UnknownError
	}
	return ce
}
