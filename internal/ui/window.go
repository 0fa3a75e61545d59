// Package ui hosts a session in a tcell screen: it polls the pty at a
// fixed frame rate, paints the emulator's grid and forwards keys and
// resizes.
package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdamore/tcell/v2"
	"go.uber.org/zap"

	"github.com/dshills/ptyterm/internal/process"
	"github.com/dshills/ptyterm/internal/terminal"
)

// Defaults for Options.
const (
	DefaultFrameRate        = 60
	DefaultMaxBytesPerFrame = 64 * 1024
)

// Session is the slice of app.Session the window drives.
type Session interface {
	Pump(max int) (int, error)
	Emulator() terminal.Emulator
	SendKey(k terminal.Key, r rune, mod terminal.Modifier) error
	Resize(cols, rows int) error
	Running() bool
	ExitStatus() int
	Title() string
}

// Options configures a Window.
type Options struct {
	// FrameRate is how many times per second output is polled and painted.
	FrameRate int

	// MaxBytesPerFrame bounds the output consumed per frame so a flood
	// cannot starve input handling.
	MaxBytesPerFrame int

	// StatusLine reserves the bottom row for title and geometry.
	StatusLine bool

	Logger *zap.Logger
}

// Window renders one session into a tcell screen.
//
// All screen and emulator access happens on the goroutine calling Run.
type Window struct {
	screen  tcell.Screen
	session Session
	opts    Options
	logger  *zap.Logger

	snap   terminal.Snapshot
	exited bool
}

// NewWindow creates a window. The caller owns the screen: it must be
// initialized before Run and finalized afterwards.
func NewWindow(screen tcell.Screen, session Session, opts Options) *Window {
	if opts.FrameRate <= 0 {
		opts.FrameRate = DefaultFrameRate
	}
	if opts.MaxBytesPerFrame <= 0 {
		opts.MaxBytesPerFrame = DefaultMaxBytesPerFrame
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Window{
		screen:  screen,
		session: session,
		opts:    opts,
		logger:  logger,
	}
}

// Run drives the window until the child exits or ctx ends. It returns nil
// when the child exits and ctx.Err() on cancellation.
//
// The event reader goroutine ends when the screen is finalized.
func (w *Window) Run(ctx context.Context) error {
	events := make(chan tcell.Event, 64)
	quit := make(chan struct{})
	defer close(quit)

	go func() {
		for {
			ev := w.screen.PollEvent()
			if ev == nil {
				return
			}
			select {
			case events <- ev:
			case <-quit:
				return
			}
		}
	}()

	w.fit()
	ticker := time.NewTicker(time.Second / time.Duration(w.opts.FrameRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-events:
			w.handleEvent(ev)

		case <-ticker.C:
			done, err := w.frame()
			if err != nil || done {
				return err
			}
		}
	}
}

// frame pumps pending output and repaints if anything changed. It reports
// done once the child has exited and the final screen is painted.
func (w *Window) frame() (done bool, err error) {
	_, err = w.session.Pump(w.opts.MaxBytesPerFrame)
	switch {
	case errors.Is(err, process.ErrExited):
		w.exited = true
		w.logger.Info("child exited", zap.Int("status", w.session.ExitStatus()))
	case err != nil:
		return true, err
	}

	emu := w.session.Emulator()
	if emu.ConsumeSnapshot(&w.snap) || w.exited {
		w.paint()
	}
	return w.exited, nil
}

func (w *Window) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventKey:
		k, r, mod := translateKey(ev)
		if err := w.session.SendKey(k, r, mod); err != nil {
			w.logger.Debug("key dropped", zap.Error(err))
		}
	case *tcell.EventResize:
		w.fit()
		w.screen.Sync()
	}
}

// fit resizes the session to the screen, minus the status line.
func (w *Window) fit() {
	cols, rows := w.screen.Size()
	if w.opts.StatusLine {
		rows--
	}
	if cols <= 0 || rows <= 0 {
		return
	}
	if err := w.session.Resize(cols, rows); err != nil {
		w.logger.Debug("resize failed", zap.Int("cols", cols), zap.Int("rows", rows), zap.Error(err))
	}
	w.session.Emulator().ForceFullRefresh()
}

func (w *Window) paint() {
	w.screen.Clear()

	for row := 0; row < w.snap.Rows; row++ {
		for col := 0; col < w.snap.Cols; col++ {
			cell := w.snap.Cell(row, col)
			if cell.Continuation {
				continue
			}
			ch := cell.Codepoint
			if ch == 0 {
				ch = ' '
			}
			w.screen.SetContent(col, row, ch, nil, cellStyle(cell))
		}
	}

	if w.snap.CursorVisible && !w.exited {
		w.screen.ShowCursor(w.snap.CursorCol, w.snap.CursorRow)
	} else {
		w.screen.HideCursor()
	}

	if w.opts.StatusLine {
		w.paintStatus()
	}
	w.screen.Show()
}

func (w *Window) paintStatus() {
	width, height := w.screen.Size()
	if height < 1 {
		return
	}
	row := height - 1

	title := w.session.Title()
	if title == "" {
		title = "ptyterm"
	}
	state := "running"
	if w.exited {
		state = fmt.Sprintf("exited %d", w.session.ExitStatus())
	}
	text := fmt.Sprintf(" %s | %dx%d | %s ", title, w.snap.Cols, w.snap.Rows, state)
	if w.snap.AltScreen {
		text += "| alt "
	}

	style := tcell.StyleDefault.Reverse(true)
	col := 0
	for _, r := range text {
		if col >= width {
			break
		}
		w.screen.SetContent(col, row, r, nil, style)
		col++
	}
	for ; col < width; col++ {
		w.screen.SetContent(col, row, ' ', nil, style)
	}
}

func cellStyle(c terminal.Cell) tcell.Style {
	style := tcell.StyleDefault.
		Foreground(rgbColor(c.Fg)).
		Background(rgbColor(c.Bg))
	if c.Bold {
		style = style.Bold(true)
	}
	if c.Underline {
		style = style.Underline(true)
	}
	return style
}

func rgbColor(c terminal.RGB) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}
