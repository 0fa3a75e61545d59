package app

import (
	"errors"
	"fmt"
)

// Application errors.
var (
	// ErrClosed indicates the App has been closed.
	ErrClosed = errors.New("app closed")

	// ErrSessionClosed indicates the session has been closed.
	ErrSessionClosed = errors.New("session closed")
)

// ComponentError represents a failure while setting up or tearing down a
// specific component.
type ComponentError struct {
	Component string // Component name (e.g., "config", "logging", "emulator")
	Action    string // Action being performed
	Err       error  // Underlying error
}

func (e *ComponentError) Error() string {
	if e.Action != "" {
		return fmt.Sprintf("%s: %s: %v", e.Component, e.Action, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Component, e.Err)
}

func (e *ComponentError) Unwrap() error {
	return e.Err
}
