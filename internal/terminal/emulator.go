package terminal

import (
	"fmt"
	"io"
	"strings"
)

// Backend names accepted by NewEmulator.
const (
	BackendBuiltin = "builtin"
	BackendVT10x   = "vt10x"
)

// Emulator is the capability set a front end needs from a terminal
// emulation engine.
type Emulator interface {
	io.Writer

	// Feed parses output from the child process.
	Feed(data []byte)
	// Resize changes the geometry. Content is not reflowed.
	Resize(cols, rows int)
	// Size returns the current geometry.
	Size() (cols, rows int)
	// ConsumeSnapshot fills out and returns true when the grid changed
	// since the previous consumed snapshot.
	ConsumeSnapshot(out *Snapshot) bool
	// Snapshot returns a copy of the grid without consuming it.
	Snapshot() Snapshot
	// ForceFullRefresh makes the next ConsumeSnapshot succeed.
	ForceFullRefresh()
	ScrollbackRowCount() int
	CopyScrollbackRows(start, count int) []Cell
	IsAltScreenActive() bool
	Cursor() (row, col int)
	Title() string
	SetPalette(p Palette)
}

var _ Emulator = (*Terminal)(nil)

// Backends lists the names accepted by NewEmulator.
func Backends() []string {
	return []string{BackendBuiltin, BackendVT10x}
}

// NewEmulator creates an emulator for the named backend. An empty name
// selects the builtin parser.
func NewEmulator(backend string, cols, rows int, opts ...Option) (Emulator, error) {
	switch strings.ToLower(backend) {
	case "", BackendBuiltin:
		return New(cols, rows, opts...), nil
	case BackendVT10x:
		return newVT10x(cols, rows, opts...), nil
	default:
		return nil, fmt.Errorf("%w: %q (want one of %s)", ErrUnknownBackend, backend, strings.Join(Backends(), ", "))
	}
}
