package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

// fakeSession replays scripted output into a real emulator.
type fakeSession struct {
	mu      sync.Mutex
	term    *terminal.Terminal
	pending [][]byte
	exited  bool
	status  int
	keys    []byte
	resizes [][2]int
}

func newFakeSession(output ...string) *fakeSession {
	s := &fakeSession{term: terminal.New(10, 3), status: -1}
	for _, o := range output {
		s.pending = append(s.pending, []byte(o))
	}
	return s
}

func (s *fakeSession) Pump(max int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > 0 {
		chunk := s.pending[0]
		s.pending = s.pending[1:]
		s.term.Feed(chunk)
		return len(chunk), nil
	}
	if s.exited {
		return 0, fmt.Errorf("read pty: %w", process.ErrExited)
	}
	return 0, nil
}

func (s *fakeSession) Emulator() terminal.Emulator { return s.term }

func (s *fakeSession) SendKey(k terminal.Key, r rune, mod terminal.Modifier) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, terminal.EncodeKey(k, r, mod)...)
	return nil
}

func (s *fakeSession) Resize(cols, rows int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.resizes = append(s.resizes, [2]int{cols, rows})
	s.term.Resize(cols, rows)
	return nil
}

func (s *fakeSession) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.exited
}

func (s *fakeSession) ExitStatus() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *fakeSession) Title() string { return s.term.Title() }

func (s *fakeSession) exit(status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exited = true
	s.status = status
}

func newScreen(t *testing.T, cols, rows int) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(cols, rows)
	t.Cleanup(screen.Fini)
	return screen
}

// rowText reads one row of the simulation screen's front buffer.
func rowText(screen tcell.SimulationScreen, row int) string {
	cells, width, _ := screen.GetContents()
	var b strings.Builder
	for col := 0; col < width; col++ {
		c := cells[row*width+col]
		if len(c.Runes) == 0 {
			b.WriteByte(' ')
			continue
		}
		b.WriteRune(c.Runes[0])
	}
	return strings.TrimRight(b.String(), " ")
}

func cellAt(screen tcell.SimulationScreen, col, row int) tcell.SimCell {
	cells, width, _ := screen.GetContents()
	return cells[row*width+col]
}

func TestWindowFitsSessionToScreen(t *testing.T) {
	screen := newScreen(t, 30, 8)
	session := newFakeSession()
	w := NewWindow(screen, session, Options{StatusLine: true})

	w.fit()
	require.Len(t, session.resizes, 1)
	assert.Equal(t, [2]int{30, 7}, session.resizes[0])

	w = NewWindow(screen, session, Options{})
	w.fit()
	assert.Equal(t, [2]int{30, 8}, session.resizes[1])
}

func TestWindowPaintsSnapshot(t *testing.T) {
	screen := newScreen(t, 40, 4)
	session := newFakeSession("hi \x1b[1;31mred\x1b[0m\r\nline2")
	w := NewWindow(screen, session, Options{StatusLine: true})
	w.fit()

	done, err := w.frame()
	require.NoError(t, err)
	assert.False(t, done)

	assert.Equal(t, "hi red", rowText(screen, 0))
	assert.Equal(t, "line2", rowText(screen, 1))

	fg, _, attrs := cellAt(screen, 3, 0).Style.Decompose()
	assert.Equal(t, rgbColor(terminal.ColorRed), fg)
	assert.NotZero(t, attrs&tcell.AttrBold)

	status := rowText(screen, 3)
	assert.Contains(t, status, "40x3")
	assert.Contains(t, status, "running")

	x, y, visible := screen.GetCursor()
	assert.True(t, visible)
	assert.Equal(t, 5, x)
	assert.Equal(t, 1, y)
}

func TestWindowPaintsWideRunes(t *testing.T) {
	screen := newScreen(t, 10, 3)
	session := newFakeSession("世x")
	w := NewWindow(screen, session, Options{})
	w.fit()

	_, err := w.frame()
	require.NoError(t, err)

	assert.Equal(t, '世', cellAt(screen, 0, 0).Runes[0])
	assert.Equal(t, 'x', cellAt(screen, 2, 0).Runes[0])
}

func TestWindowSkipsPaintWhenClean(t *testing.T) {
	screen := newScreen(t, 10, 3)
	session := newFakeSession("a")
	w := NewWindow(screen, session, Options{})
	w.fit()

	_, err := w.frame()
	require.NoError(t, err)
	assert.False(t, session.term.Dirty())

	_, err = w.frame()
	require.NoError(t, err)
	assert.Equal(t, "a", rowText(screen, 0))
}

func TestWindowHidesCursor(t *testing.T) {
	screen := newScreen(t, 10, 3)
	session := newFakeSession("\x1b[?25l")
	w := NewWindow(screen, session, Options{})
	w.fit()

	_, err := w.frame()
	require.NoError(t, err)

	_, _, visible := screen.GetCursor()
	assert.False(t, visible)
}

func TestWindowForwardsKeys(t *testing.T) {
	screen := newScreen(t, 10, 3)
	session := newFakeSession()
	w := NewWindow(screen, session, Options{})

	w.handleEvent(tcell.NewEventKey(tcell.KeyRune, 'l', tcell.ModNone))
	w.handleEvent(tcell.NewEventKey(tcell.KeyRune, 's', tcell.ModNone))
	w.handleEvent(tcell.NewEventKey(tcell.KeyEnter, 0, tcell.ModNone))
	w.handleEvent(tcell.NewEventKey(tcell.KeyUp, 0, tcell.ModNone))

	assert.Equal(t, "ls\r\x1b[A", string(session.keys))
}

func TestWindowResizeEvent(t *testing.T) {
	screen := newScreen(t, 10, 3)
	session := newFakeSession()
	w := NewWindow(screen, session, Options{StatusLine: true})

	screen.SetSize(50, 20)
	w.handleEvent(tcell.NewEventResize(50, 20))

	require.NotEmpty(t, session.resizes)
	assert.Equal(t, [2]int{50, 19}, session.resizes[len(session.resizes)-1])
	cols, rows := session.term.Size()
	assert.Equal(t, 50, cols)
	assert.Equal(t, 19, rows)
}

func TestWindowFrameReportsExit(t *testing.T) {
	screen := newScreen(t, 40, 3)
	session := newFakeSession("bye")
	session.exit(3)
	w := NewWindow(screen, session, Options{StatusLine: true})
	w.fit()

	done, err := w.frame()
	require.NoError(t, err)
	assert.False(t, done)

	done, err = w.frame()
	require.NoError(t, err)
	assert.True(t, done)
	assert.Contains(t, rowText(screen, 2), "exited 3")
}

type failingSession struct{ *fakeSession }

func (failingSession) Pump(int) (int, error) { return 0, errors.New("boom") }

func TestWindowFrameError(t *testing.T) {
	screen := newScreen(t, 10, 3)
	w := NewWindow(screen, failingSession{newFakeSession()}, Options{})

	done, err := w.frame()
	assert.True(t, done)
	assert.EqualError(t, err, "boom")
}

func TestWindowRun(t *testing.T) {
	t.Run("child exit", func(t *testing.T) {
		screen := newScreen(t, 20, 3)
		session := newFakeSession("done")
		session.exit(0)
		w := NewWindow(screen, session, Options{FrameRate: 200})

		errc := make(chan error, 1)
		go func() { errc <- w.Run(context.Background()) }()

		select {
		case err := <-errc:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after child exit")
		}
	})

	t.Run("cancel", func(t *testing.T) {
		screen := newScreen(t, 20, 3)
		w := NewWindow(screen, newFakeSession(), Options{FrameRate: 200})

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- w.Run(ctx) }()
		cancel()

		select {
		case err := <-errc:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
