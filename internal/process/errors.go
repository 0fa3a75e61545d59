package process

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the process package.
var (
	// ErrNoCommand is returned when Launch is called without a program.
	ErrNoCommand = errors.New("no command specified")

	// ErrInvalidEnv is returned for environment entries not of the form KEY=VALUE.
	ErrInvalidEnv = errors.New("invalid environment entry")

	// ErrNotDirectory is returned when the working directory is not a directory.
	ErrNotDirectory = errors.New("not a directory")

	// ErrInvalidSize is returned for non-positive or oversized geometry.
	ErrInvalidSize = errors.New("invalid terminal size")

	// ErrExited is returned by I/O once the child has exited.
	ErrExited = errors.New("process has exited")

	// ErrClosed is returned by I/O after Terminate.
	ErrClosed = errors.New("pty is closed")

	// ErrNotFound is returned when a handle ID is not tracked.
	ErrNotFound = errors.New("process not found")

	// ErrSupervisorShutdown is returned when the supervisor is shutting down.
	ErrSupervisorShutdown = errors.New("supervisor is shutting down")

	// ErrLimitReached is returned when the supervisor is at capacity.
	ErrLimitReached = errors.New("process limit reached")
)

// LaunchError describes why a child could not be started.
type LaunchError struct {
	Argv []string
	Dir  string
	Err  error
}

// Error implements the error interface.
func (e *LaunchError) Error() string {
	var sb strings.Builder
	sb.WriteString("launch")
	if len(e.Argv) > 0 {
		fmt.Fprintf(&sb, " %q", strings.Join(e.Argv, " "))
	}
	if e.Dir != "" {
		fmt.Fprintf(&sb, " in %s", e.Dir)
	}
	sb.WriteString(": ")
	sb.WriteString(e.Err.Error())
	return sb.String()
}

// Unwrap returns the underlying error.
func (e *LaunchError) Unwrap() error {
	return e.Err
}
