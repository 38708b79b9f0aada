// Package server provides the HTTP API of the video summarizer.
package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jonathan/video-summarizer/internal/schemas"
)

// ErrValidation indicates request validation failure
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var vErr *ErrValidation
	var sErr *schemas.ValidationError
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &vErr), errors.As(err, &sErr):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
