package app

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

// readChunk is the size of a single pty read.
const readChunk = 4096

// SessionRequest describes a session to open. Zero fields take their value
// from the configuration.
type SessionRequest struct {
	Argv []string
	Dir  string
	Cols int
	Rows int
}

// Session pairs a pty child with the emulator that renders its output.
//
// The output side (Pump, Resize, Emulator) belongs to a single goroutine,
// normally the UI loop. Write and SendKey may be called from anywhere.
type Session struct {
	app    *App
	handle *process.Handle
	emu    terminal.Emulator
	logger *zap.Logger

	buf      []byte
	maxBytes int

	// palette is set by config reloads and applied on the next Pump.
	palette atomic.Pointer[terminal.Palette]

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// ID returns the session ID, which is also the process handle ID.
func (s *Session) ID() string {
	return s.handle.ID()
}

// Handle returns the underlying process handle.
func (s *Session) Handle() *process.Handle {
	return s.handle
}

// Emulator returns the terminal emulator.
func (s *Session) Emulator() terminal.Emulator {
	return s.emu
}

// Pump moves up to max bytes of pending child output into the emulator and
// returns how many bytes were consumed. max <= 0 uses the configured
// per-frame budget. It never blocks. Once the child is gone the error
// wraps process.ErrExited; output read before that is still fed.
func (s *Session) Pump(max int) (int, error) {
	if p := s.palette.Swap(nil); p != nil {
		s.emu.SetPalette(*p)
		s.emu.ForceFullRefresh()
	}
	if max <= 0 {
		max = s.maxBytes
	}

	total := 0
	for total < max {
		chunk := s.buf
		if rest := max - total; rest < len(chunk) {
			chunk = chunk[:rest]
		}

		n, err := s.handle.Read(chunk)
		if n > 0 {
			s.emu.Feed(chunk[:n])
			total += n
		}
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
	}
	return total, nil
}

// Write sends raw bytes to the child.
func (s *Session) Write(p []byte) (int, error) {
	if s.closed.Load() {
		return 0, ErrSessionClosed
	}
	return s.handle.Write(p)
}

// SendKey encodes a key press and sends it to the child. Keys with no
// encoding are ignored.
func (s *Session) SendKey(k terminal.Key, r rune, mod terminal.Modifier) error {
	b := terminal.EncodeKey(k, r, mod)
	if len(b) == 0 {
		return nil
	}
	_, err := s.Write(b)
	return err
}

// Resize applies a new geometry to both the emulator and the pty. The
// emulator is resized even when the child has already exited.
func (s *Session) Resize(cols, rows int) error {
	if cols <= 0 || rows <= 0 {
		return fmt.Errorf("resize %dx%d: %w", cols, rows, process.ErrInvalidSize)
	}
	s.emu.Resize(cols, rows)

	err := s.handle.Resize(cols, rows)
	if errors.Is(err, process.ErrClosed) {
		return nil
	}
	return err
}

// Running reports whether the child is still alive.
func (s *Session) Running() bool {
	return s.handle.IsRunning()
}

// ExitStatus returns the child's exit status, or -1 while it runs.
func (s *Session) ExitStatus() int {
	return s.handle.ExitStatus()
}

// Title returns the window title last set by the child.
func (s *Session) Title() string {
	return s.emu.Title()
}

// Close terminates the child and forgets the session. It is idempotent.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.closeErr = s.app.closeSession(s)
	})
	return s.closeErr
}

func (s *Session) setPalette(p terminal.Palette) {
	s.palette.Store(&p)
}
