package terminal

import "errors"

// Sentinel errors for the terminal package.
var (
	// ErrUnknownBackend is returned when an emulator backend name is not recognised.
	ErrUnknownBackend = errors.New("unknown emulator backend")
)
