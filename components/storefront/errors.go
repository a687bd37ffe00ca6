package storefront

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrToggleInFlight is returned when a toggle is requested for a record
	// whose previous toggle has not settled.
	ErrToggleInFlight = errors.New("storefront: toggle already in flight for record")
	// ErrRecordNotFound is returned when an operation targets an id missing from the list.
	ErrRecordNotFound = errors.New("storefront: record not found in list")
	// ErrNoPendingRemoval is returned by ConfirmRemove without a prior RequestRemove.
	ErrNoPendingRemoval = errors.New("storefront: no removal awaiting confirmation")
	// ErrClosed is returned by components used after Close.
	ErrClosed = errors.New("storefront: component closed")
	// ErrUnauthenticated gates views that need a logged-in user.
	ErrUnauthenticated = errors.New("storefront: authentication required")
	// ErrForbidden gates admin views for non-staff users.
	ErrForbidden = errors.New("storefront: staff privileges required")
	// ErrNoClient is returned when a component has no backend client configured.
	ErrNoClient = errors.New("storefront: resource client not configured")
)

// UserMessager is implemented by errors that carry a backend-provided,
// human-readable message (see pkg/api.Error).
type UserMessager interface {
	UserMessage() string
}

// ValidationError reports client-side validation failures.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("storefront: validation failed: %s", e.Message)
	}
	return fmt.Sprintf("storefront: validation failed for %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// UserMessage implements UserMessager.
func (e *ValidationError) UserMessage() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// MessageFor derives a display string for err, preferring backend-provided
// messages and falling back to the supplied generic text.
func MessageFor(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var messager UserMessager
	if errors.As(err, &messager) {
		if msg := strings.TrimSpace(messager.UserMessage()); msg != "" {
			return msg
		}
	}
	return fallback
}

// ActionError wraps a failed user action with the message to display.
type ActionError struct {
	Action  string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("storefront: %s failed: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// UserMessage implements UserMessager.
func (e *ActionError) UserMessage() string { return e.Message }
