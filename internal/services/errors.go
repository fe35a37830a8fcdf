package services

import (
	"errors"
	"fmt"
	"net/http"
)

// Error kinds returned by the journal pipeline. Match them with errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrPersistence        = errors.New("persistence error")
)

// PipelineError is a failed journal submission. Message is safe to show to
// the caller; Err holds the underlying cause, if any.
type PipelineError struct {
	Kind    error
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%v: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%v: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// HTTPStatus maps the error kind onto a response status.
func (e *PipelineError) HTTPStatus() int {
	switch {
	case errors.Is(e.Kind, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(e.Kind, ErrServiceUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func newValidationError(msg string) *PipelineError {
	return &PipelineError{Kind: ErrValidation, Message: msg}
}

func newUnavailableError(msg string, err error) *PipelineError {
	return &PipelineError{Kind: ErrServiceUnavailable, Message: msg, Err: err}
}
