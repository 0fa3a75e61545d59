package terminal

import (
	"github.com/hinshun/vt10x"
)

// vt10x glyph mode bits.
const (
	vtAttrReverse   = 1 << 0
	vtAttrUnderline = 1 << 1
	vtAttrBold      = 1 << 2
)

// vtDefaultColor is the first of vt10x's sentinel colors (default fg, bg,
// cursor).
const vtDefaultColor vt10x.Color = 1 << 24

// vt10xEmulator adapts github.com/hinshun/vt10x to Emulator. vt10x keeps no
// history, so scrollback is always empty.
type vt10xEmulator struct {
	vt      vt10x.Terminal
	palette Palette
	cols    int
	rows    int
	dirty   bool
}

var _ Emulator = (*vt10xEmulator)(nil)

func newVT10x(cols, rows int, opts ...Option) *vt10xEmulator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	cols, rows = clampSize(cols, rows)

	vtOpts := []vt10x.TerminalOption{vt10x.WithSize(cols, rows)}
	if o.responder != nil {
		vtOpts = append(vtOpts, vt10x.WithWriter(o.responder))
	}
	return &vt10xEmulator{
		vt:      vt10x.New(vtOpts...),
		palette: o.palette,
		cols:    cols,
		rows:    rows,
		dirty:   true,
	}
}

func (e *vt10xEmulator) Write(p []byte) (int, error) {
	e.dirty = true
	return e.vt.Write(p)
}

func (e *vt10xEmulator) Feed(data []byte) {
	if len(data) == 0 {
		return
	}
	_, _ = e.Write(data)
}

func (e *vt10xEmulator) Resize(cols, rows int) {
	cols, rows = clampSize(cols, rows)
	e.cols, e.rows = cols, rows
	e.vt.Resize(cols, rows)
	e.dirty = true
}

func (e *vt10xEmulator) Size() (cols, rows int) {
	return e.cols, e.rows
}

func (e *vt10xEmulator) ConsumeSnapshot(out *Snapshot) bool {
	if !e.dirty {
		return false
	}
	e.fill(out)
	e.dirty = false
	return true
}

func (e *vt10xEmulator) Snapshot() Snapshot {
	var s Snapshot
	e.fill(&s)
	return s
}

func (e *vt10xEmulator) fill(s *Snapshot) {
	e.vt.Lock()
	defer e.vt.Unlock()

	cols, rows := e.vt.Size()
	cur := e.vt.Cursor()
	s.Rows, s.Cols = rows, cols
	s.CursorRow = clamp(cur.Y, 0, rows-1)
	s.CursorCol = clamp(cur.X, 0, cols-1)
	s.CursorVisible = e.vt.CursorVisible()
	s.AltScreen = e.vt.Mode()&vt10x.ModeAltScreen != 0
	s.Title = e.vt.Title()

	n := rows * cols
	if cap(s.Cells) < n {
		s.Cells = make([]Cell, n)
	}
	s.Cells = s.Cells[:n]
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			s.Cells[y*cols+x] = e.convert(e.vt.Cell(x, y))
		}
	}
}

func (e *vt10xEmulator) convert(g vt10x.Glyph) Cell {
	fg := e.color(g.FG, true)
	bg := e.color(g.BG, false)
	inverse := g.Mode&vtAttrReverse != 0
	if inverse {
		fg, bg = bg, fg
	}
	ch := g.Char
	if ch == 0 {
		ch = ' '
	}
	return Cell{
		Codepoint: ch,
		Fg:        fg,
		Bg:        bg,
		Bold:      g.Mode&vtAttrBold != 0,
		Underline: g.Mode&vtAttrUnderline != 0,
		Inverse:   inverse,
	}
}

// color maps a vt10x color: sentinel values are defaults, values below 256
// are palette indexes and everything else is packed RGB.
func (e *vt10xEmulator) color(c vt10x.Color, fg bool) RGB {
	switch {
	case c >= vtDefaultColor:
		return e.palette.Resolve(DefaultColor, fg)
	case c < 256:
		return e.palette.Index(uint8(c))
	default:
		return RGB{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c)}
	}
}

func (e *vt10xEmulator) ForceFullRefresh() {
	e.dirty = true
}

func (e *vt10xEmulator) ScrollbackRowCount() int {
	return 0
}

func (e *vt10xEmulator) CopyScrollbackRows(start, count int) []Cell {
	if count <= 0 {
		return nil
	}
	out := make([]Cell, count*e.cols)
	b := BlankCell(e.palette)
	for i := range out {
		out[i] = b
	}
	return out
}

func (e *vt10xEmulator) IsAltScreenActive() bool {
	e.vt.Lock()
	defer e.vt.Unlock()
	return e.vt.Mode()&vt10x.ModeAltScreen != 0
}

func (e *vt10xEmulator) Cursor() (row, col int) {
	e.vt.Lock()
	defer e.vt.Unlock()
	c := e.vt.Cursor()
	return c.Y, c.X
}

func (e *vt10xEmulator) Title() string {
	e.vt.Lock()
	defer e.vt.Unlock()
	return e.vt.Title()
}

func (e *vt10xEmulator) SetPalette(p Palette) {
	e.palette = p
	e.dirty = true
}
