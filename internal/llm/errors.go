package llm

import (
	"context"
	"errors"

	"github.com/nulzo/epoch/internal/config"
)

// ErrorKind classifies a failed generation.
type ErrorKind string

const (
	KindEmptyResponse  ErrorKind = "empty_response"
	KindNoContent      ErrorKind = "no_content"
	KindInvalidJSON    ErrorKind = "invalid_json"
	KindUpstreamStatus ErrorKind = "upstream_status"
	KindTransport      ErrorKind = "transport"
	KindCancelled      ErrorKind = "cancelled"
)

// GenerationError is returned by every Provider when a call fails after the
// configuration was resolved.
type GenerationError struct {
	Kind     ErrorKind
	Provider config.ProviderID
	// StatusCode and Body are set for KindUpstreamStatus.
	StatusCode int
	Body       string
	// Content is the offending model output for KindInvalidJSON.
	Content string
	Message string
	Err     error
}

func (e *GenerationError) Error() string {
	return e.Message
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a *GenerationError of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var genErr *GenerationError
	return errors.As(err, &genErr) && genErr.Kind == kind
}

// Interrupted converts a failure caused by ctx being done into a
// KindCancelled error. It returns nil when ctx is still live.
func Interrupted(ctx context.Context, provider config.ProviderID, err error) *GenerationError {
	cause := ctx.Err()
	if cause == nil {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			cause = context.DeadlineExceeded
		case errors.Is(err, context.Canceled):
			cause = context.Canceled
		default:
			return nil
		}
	}

	msg := "generation cancelled"
	if errors.Is(cause, context.DeadlineExceeded) {
		msg = "generation timed out"
	}

	return &GenerationError{
		Kind:     KindCancelled,
		Provider: provider,
		Message:  msg,
		Err:      errors.Join(cause, err),
	}
}
