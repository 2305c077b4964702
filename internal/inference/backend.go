// Package inference bridges chat submissions to a text-generation backend.
//
// A Coordinator accepts prompts on the interactive context, runs at most one
// backend call at a time on a background goroutine, and hands results back to
// the interactive context through a Poster. Newer submissions supersede older
// ones: a superseded request never adds a turn to the transcript.
package inference

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend generates text for a prompt. Implementations are not required to be
// safe for concurrent use; the Coordinator never calls Generate concurrently.
type Backend interface {
	// Name identifies the provider and model, e.g. "ollama (llama3.2)".
	Name() string

	// Generate produces a completion for prompt. When useTemplate is true the
	// backend wraps the prompt in its native chat format first. Generate may
	// block for a long time; ctx cancellation is best effort.
	Generate(ctx context.Context, prompt string, useTemplate bool) (string, error)

	// Close releases the backend at the end of the session.
	Close() error
}

// ErrNoBackend is returned by Submit when no backend is configured. The user
// turn is still recorded.
var ErrNoBackend = errors.New("no inference backend configured")

// ErrClosed is returned by Submit after Close.
var ErrClosed = errors.New("coordinator closed")

// BackendError wraps a failure reported by a Backend.
type BackendError struct {
	Backend string
	Err     error
}

func (e *BackendError) Error() string {
	if e.Backend == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %v", e.Backend, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one backend call.
type Result struct {
	Text     string
	Err      error
	Duration time.Duration
}

// Success builds a successful Result.
func Success(text string) Result {
	return Result{Text: text}
}

// Failure builds a failed Result. Errors that are not already a
// *BackendError are wrapped in one.
func Failure(err error) Result {
	var be *BackendError
	if !errors.As(err, &be) {
		err = &BackendError{Err: err}
	}
	return Result{Err: err}
}

// ErrorText renders a backend failure as the text of an assistant error turn.
func ErrorText(err error) string {
	var be *BackendError
	if errors.As(err, &be) {
		err = be.Err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "Error: the model took too long to respond (timeout)"
	}
	return "Error: " + err.Error()
}
