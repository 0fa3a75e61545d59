package terminal

import "io"

// Terminal is the facade over a Parser and its Grid. It tracks whether the
// grid changed since the last consumed snapshot so a renderer can coalesce
// many feeds into one frame.
//
// Terminal is not safe for concurrent use.
type Terminal struct {
	grid   *Grid
	parser *Parser
	dirty  bool
	title  string

	onTitle func(string)
}

// Option configures a Terminal.
type Option func(*options)

type options struct {
	scrollback int
	tabWidth   int
	palette    Palette
	responder  io.Writer
	onTitle    func(string)
	onBell     func()
	onUnknown  func(string)
}

func defaultOptions() options {
	return options{
		scrollback: DefaultScrollback,
		tabWidth:   DefaultTabWidth,
		palette:    DefaultPalette(),
	}
}

// WithScrollback sets the scrollback capacity in rows.
func WithScrollback(rows int) Option {
	return func(o *options) { o.scrollback = rows }
}

// WithTabWidth sets the tab stop interval.
func WithTabWidth(n int) Option {
	return func(o *options) { o.tabWidth = n }
}

// WithPalette sets the color palette.
func WithPalette(p Palette) Option {
	return func(o *options) { o.palette = p }
}

// WithResponder sets the writer receiving device reports, normally the pty.
func WithResponder(w io.Writer) Option {
	return func(o *options) { o.responder = w }
}

// WithTitleHandler sets a callback for title changes.
func WithTitleHandler(fn func(string)) Option {
	return func(o *options) { o.onTitle = fn }
}

// WithBellHandler sets a callback for BEL.
func WithBellHandler(fn func()) Option {
	return func(o *options) { o.onBell = fn }
}

// WithUnknownSequenceHandler sets a callback receiving dropped escape
// sequences.
func WithUnknownSequenceHandler(fn func(string)) Option {
	return func(o *options) { o.onUnknown = fn }
}

// New creates a terminal with the given geometry.
func New(cols, rows int, opts ...Option) *Terminal {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	g := NewGrid(cols, rows, o.scrollback, o.palette)
	g.SetTabWidth(o.tabWidth)

	t := &Terminal{
		grid:    g,
		parser:  NewParser(g),
		dirty:   true,
		onTitle: o.onTitle,
	}
	t.parser.SetResponder(o.responder)
	t.parser.SetTitleCallback(t.setTitle)
	t.parser.SetBellCallback(o.onBell)
	t.parser.SetUnknownCallback(o.onUnknown)
	return t
}

func (t *Terminal) setTitle(title string) {
	t.title = title
	if t.onTitle != nil {
		t.onTitle(title)
	}
}

// Feed parses data into the grid.
func (t *Terminal) Feed(data []byte) {
	if len(data) == 0 {
		return
	}
	t.parser.Parse(data)
	t.dirty = true
}

// Write implements io.Writer on top of Feed. It never fails.
func (t *Terminal) Write(p []byte) (int, error) {
	t.Feed(p)
	return len(p), nil
}

// Resize changes the geometry, clearing the grid and scrollback.
func (t *Terminal) Resize(cols, rows int) {
	t.grid.Resize(cols, rows)
	t.dirty = true
}

// Size returns the current geometry.
func (t *Terminal) Size() (cols, rows int) {
	return t.grid.cols, t.grid.rows
}

// ConsumeSnapshot copies the grid into out and clears the dirty flag. It
// returns false, leaving out untouched, when nothing changed since the last
// consumed snapshot.
func (t *Terminal) ConsumeSnapshot(out *Snapshot) bool {
	if !t.dirty {
		return false
	}
	out.copyFrom(t.grid)
	out.Title = t.title
	t.dirty = false
	return true
}

// Snapshot returns a copy of the grid without touching the dirty flag.
func (t *Terminal) Snapshot() Snapshot {
	var s Snapshot
	s.copyFrom(t.grid)
	s.Title = t.title
	return s
}

// ForceFullRefresh marks the grid dirty.
func (t *Terminal) ForceFullRefresh() {
	t.dirty = true
}

// Dirty reports whether a snapshot is pending.
func (t *Terminal) Dirty() bool {
	return t.dirty
}

// ScrollbackRowCount returns the number of history rows.
func (t *Terminal) ScrollbackRowCount() int {
	return t.grid.scrollback.Len()
}

// CopyScrollbackRows returns count*cols cells of history starting at start,
// where row 0 is the oldest. Missing rows are blank.
func (t *Terminal) CopyScrollbackRows(start, count int) []Cell {
	return t.grid.CopyScrollbackRows(start, count)
}

// IsAltScreenActive reports whether the alternate screen is shown.
func (t *Terminal) IsAltScreenActive() bool {
	return t.grid.altActive
}

// Cursor returns the 0-based cursor position.
func (t *Terminal) Cursor() (row, col int) {
	return t.grid.Cursor()
}

// Title returns the last title set by OSC 0 or 2.
func (t *Terminal) Title() string {
	return t.title
}

// SetPalette changes the palette for subsequently written cells and forces
// a refresh.
func (t *Terminal) SetPalette(p Palette) {
	t.grid.SetPalette(p)
	t.dirty = true
}

// Grid exposes the underlying grid for inspection.
func (t *Terminal) Grid() *Grid {
	return t.grid
}
