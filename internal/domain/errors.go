package domain

import "errors"

// Common domain errors
var (
	// ErrIdentityRequired is returned when an action needs an established
	// identity (name and email) and none is present. The action is rejected
	// before any network call is made.
	ErrIdentityRequired = errors.New("identity required")

	// ErrNoStreamSelected is returned when a thread or reaction operation
	// runs without an active stream
	ErrNoStreamSelected = errors.New("no stream selected")

	// ErrInvalidInput is returned when client-side validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrBackendUnavailable is returned when the backend cannot be reached
	ErrBackendUnavailable = errors.New("backend unavailable")

	// ErrNotFound is returned when the backend reports a missing resource
	ErrNotFound = errors.New("resource not found")
)

// UserMessageError wraps an error with a message safe to show in the UI.
// Errors are handled at the boundary where the call was made and surfaced
// as transient status text; none propagate to a global handler.
type UserMessageError struct {
	Err         error
	UserMessage string
}

// Error implements the error interface
func (e *UserMessageError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.UserMessage
}

// Unwrap returns the underlying error
func (e *UserMessageError) Unwrap() error {
	return e.Err
}

// NewUserMessageError creates a new user-facing error wrapper
func NewUserMessageError(err error, userMessage string) *UserMessageError {
	return &UserMessageError{Err: err, UserMessage: userMessage}
}

// UserMessage extracts the user-facing text from err, falling back to a
// generic message when err carries none
func UserMessage(err error) string {
	var ume *UserMessageError
	if errors.As(err, &ume) && ume.UserMessage != "" {
		return ume.UserMessage
	}
	switch {
	case errors.Is(err, ErrIdentityRequired):
		return "Please enter your name and email first"
	case errors.Is(err, ErrNoStreamSelected):
		return "Select a stream first"
	case errors.Is(err, ErrNotFound):
		return "Not found"
	default:
		return "Something went wrong, please try again"
	}
}
