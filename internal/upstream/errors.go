// Package upstream is the server-side boundary to the two external
// providers: the video metadata service and the chat completion service.
package upstream

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"

	"github.com/jonathan/video-summarizer/internal/fetch"
	"github.com/jonathan/video-summarizer/internal/llm"
)

// Service names carried by Error.
const (
	ServiceMetadata   = "metadata"
	ServiceCompletion = "completion"
)

var (
	// ErrEmptyVideoID is returned when a description is requested without an identifier
	ErrEmptyVideoID = errors.New("video id is empty")
	// ErrEmptyCompletion is returned when the completion has no text
	ErrEmptyCompletion = errors.New("completion is empty")
)

// Error reports a failed call to an external provider. StatusCode is the
// provider's HTTP status when one was received, zero otherwise.
type Error struct {
	Service    string
	StatusCode int
	Cause      error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s upstream failed with status %d: %v", e.Service, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s upstream failed: %v", e.Service, e.Cause)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// wrap tags err with the failing service, preserving any status code.
func wrap(service string, err error) *Error {
	var upErr *Error
	if errors.As(err, &upErr) && upErr.Service == service {
		return upErr
	}
	return &Error{Service: service, StatusCode: statusOf(err), Cause: err}
}

// statusOf extracts an HTTP status from the provider error types.
func statusOf(err error) int {
	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return gErr.Code
	}
	var llmErr *llm.StatusError
	if errors.As(err, &llmErr) {
		return llmErr.StatusCode
	}
	var fErr *fetch.Error
	if errors.As(err, &fErr) {
		return fErr.StatusCode
	}
	var upErr *Error
	if errors.As(err, &upErr) {
		return upErr.StatusCode
	}
	return 0
}
