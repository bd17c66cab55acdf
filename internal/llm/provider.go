// Package llm talks to the language models that write reviews and docs.
package llm

import (
	"context"
	"fmt"
	"net/http"
)

// Provider completes a single user prompt.
type Provider interface {
	Name() string
	Model() string
	Complete(ctx context.Context, prompt string) (string, error)
}

// StatusError is a provider failure with the HTTP status the backend should answer with.
type StatusError struct {
	StatusCode int
	Detail     string
	Err        error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Detail, e.Err)
	}
	return e.Detail
}

func (e *StatusError) Unwrap() error { return e.Err }

func statusErrorf(status int, format string, args ...any) *StatusError {
	return &StatusError{StatusCode: status, Detail: fmt.Sprintf(format, args...)}
}

func internalErrorf(format string, args ...any) *StatusError {
	return statusErrorf(http.StatusInternalServerError, format, args...)
}
