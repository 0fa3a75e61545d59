package terminal

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultTabWidth is the distance between tab stops.
const DefaultTabWidth = 8

// Grid is the cell store mutated by the parser: the visible screen as a flat
// row-major slice, the cursor, the graphic rendition, the scroll region and
// the scrollback ring.
//
// Grid is not safe for concurrent use.
type Grid struct {
	rows, cols int
	cells      []Cell

	// primary holds the main screen while the alternate screen is active.
	primary   []Cell
	altActive bool

	palette    Palette
	scrollback *Scrollback
	tabWidth   int

	curRow, curCol int
	wrapPending    bool

	savedRow, savedCol int

	scrollTop    int
	scrollBottom int

	pen           rendition
	cursorVisible bool
	autoWrap      bool
}

// NewGrid creates a blank grid. Non-positive geometry is clamped to 1x1.
func NewGrid(cols, rows, scrollback int, palette Palette) *Grid {
	cols, rows = clampSize(cols, rows)
	g := &Grid{
		rows:          rows,
		cols:          cols,
		palette:       palette,
		scrollback:    NewScrollback(scrollback),
		tabWidth:      DefaultTabWidth,
		scrollBottom:  rows - 1,
		cursorVisible: true,
		autoWrap:      true,
	}
	g.cells = g.blankCells(rows * cols)
	return g
}

func clampSize(cols, rows int) (int, int) {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	return cols, rows
}

// Rows returns the number of rows.
func (g *Grid) Rows() int { return g.rows }

// Cols returns the number of columns.
func (g *Grid) Cols() int { return g.cols }

// Cursor returns the 0-based cursor position.
func (g *Grid) Cursor() (row, col int) { return g.curRow, g.curCol }

// CursorVisible reports whether the cursor should be drawn.
func (g *Grid) CursorVisible() bool { return g.cursorVisible }

// AltScreen reports whether the alternate screen is active.
func (g *Grid) AltScreen() bool { return g.altActive }

// Scrollback returns the history ring.
func (g *Grid) Scrollback() *Scrollback { return g.scrollback }

// Cell returns the cell at (row, col), or a blank cell when out of range.
func (g *Grid) Cell(row, col int) Cell {
	if row < 0 || row >= g.rows || col < 0 || col >= g.cols {
		return g.blank()
	}
	return g.cells[row*g.cols+col]
}

// Row returns the cells of a visible row. The slice aliases the grid.
func (g *Grid) Row(row int) []Cell {
	if row < 0 || row >= g.rows {
		return nil
	}
	return g.cells[row*g.cols : (row+1)*g.cols]
}

// SetTabWidth sets the tab stop interval.
func (g *Grid) SetTabWidth(n int) {
	if n < 1 {
		n = DefaultTabWidth
	}
	g.tabWidth = n
}

// SetPalette replaces the palette used for cells written from now on.
func (g *Grid) SetPalette(p Palette) {
	g.palette = p
}

func (g *Grid) blank() Cell {
	return BlankCell(g.palette)
}

func (g *Grid) blankCells(n int) []Cell {
	cells := make([]Cell, n)
	b := g.blank()
	for i := range cells {
		cells[i] = b
	}
	return cells
}

func (g *Grid) fill(from, to int) {
	b := g.blank()
	for i := from; i < to; i++ {
		g.cells[i] = b
	}
}

// put writes a printable rune at the cursor and advances it.
func (g *Grid) put(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		return
	}
	if w > 1 && g.cols < 2 {
		w = 1
	}

	if g.wrapPending {
		g.wrapPending = false
		if g.autoWrap {
			g.curCol = 0
			g.index()
		}
	}

	if w == 2 && g.curCol == g.cols-1 {
		if !g.autoWrap {
			w = 1
		} else {
			g.clearCell(g.curRow, g.curCol)
			g.curCol = 0
			g.index()
		}
	}

	g.clearCell(g.curRow, g.curCol)
	c := g.pen.cell(&g.palette, r)
	if w == 2 {
		g.clearCell(g.curRow, g.curCol+1)
		c.Wide = true
		cont := c
		cont.Codepoint = 0
		cont.Wide = false
		cont.Continuation = true
		g.cells[g.curRow*g.cols+g.curCol+1] = cont
	}
	g.cells[g.curRow*g.cols+g.curCol] = c

	if next := g.curCol + w; next >= g.cols {
		g.curCol = g.cols - 1
		g.wrapPending = true
	} else {
		g.curCol = next
	}
}

// clearCell blanks a cell and the other half of any wide glyph it belongs to.
func (g *Grid) clearCell(row, col int) {
	i := row*g.cols + col
	switch c := g.cells[i]; {
	case c.Wide && col+1 < g.cols:
		g.cells[i+1] = g.blank()
	case c.Continuation && col > 0:
		g.cells[i-1] = g.blank()
	}
	g.cells[i] = g.blank()
}

func (g *Grid) carriageReturn() {
	g.curCol = 0
	g.wrapPending = false
}

// newLine moves to column 0 of the next row, scrolling at the region bottom.
func (g *Grid) newLine() {
	g.carriageReturn()
	g.index()
}

// index moves down one row, scrolling at the region bottom.
func (g *Grid) index() {
	g.wrapPending = false
	switch {
	case g.curRow == g.scrollBottom:
		g.scrollUp(1)
	case g.curRow < g.rows-1:
		g.curRow++
	}
}

// reverseIndex moves up one row, scrolling down at the region top.
func (g *Grid) reverseIndex() {
	g.wrapPending = false
	switch {
	case g.curRow == g.scrollTop:
		g.scrollDown(1)
	case g.curRow > 0:
		g.curRow--
	}
}

func (g *Grid) backspace() {
	g.wrapPending = false
	if g.curCol > 0 {
		g.curCol--
	}
	g.clearCell(g.curRow, g.curCol)
}

func (g *Grid) tab() {
	g.wrapPending = false
	next := (g.curCol/g.tabWidth + 1) * g.tabWidth
	if next >= g.cols {
		next = g.cols - 1
	}
	g.curCol = next
}

func (g *Grid) backTab(n int) {
	g.wrapPending = false
	for ; n > 0 && g.curCol > 0; n-- {
		g.curCol = ((g.curCol - 1) / g.tabWidth) * g.tabWidth
	}
}

// moveTo places the cursor at (row, col), clamped to the grid.
func (g *Grid) moveTo(row, col int) {
	g.wrapPending = false
	g.curRow = clamp(row, 0, g.rows-1)
	g.curCol = clamp(col, 0, g.cols-1)
}

// moveBy moves the cursor relative to its position, clamped to the grid.
func (g *Grid) moveBy(dRow, dCol int) {
	g.moveTo(g.curRow+dRow, g.curCol+dCol)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// scrollUp shifts the scroll region up by n rows. Rows leaving the top of
// the primary screen are kept in scrollback when the region starts at row 0.
func (g *Grid) scrollUp(n int) {
	g.shiftUp(g.scrollTop, g.scrollBottom, n, g.scrollTop == 0 && !g.altActive)
}

func (g *Grid) shiftUp(top, bottom, n int, keep bool) {
	if n <= 0 {
		return
	}
	if height := bottom - top + 1; n > height {
		n = height
	}
	if keep {
		for r := top; r < top+n; r++ {
			g.scrollback.Push(g.Row(r))
		}
	}
	cols := g.cols
	copy(g.cells[top*cols:(bottom+1-n)*cols], g.cells[(top+n)*cols:(bottom+1)*cols])
	g.fill((bottom+1-n)*cols, (bottom+1)*cols)
}

// scrollDown shifts the scroll region down by n rows.
func (g *Grid) scrollDown(n int) {
	g.shiftDown(g.scrollTop, g.scrollBottom, n)
}

func (g *Grid) shiftDown(top, bottom, n int) {
	if n <= 0 {
		return
	}
	if height := bottom - top + 1; n > height {
		n = height
	}
	cols := g.cols
	copy(g.cells[(top+n)*cols:(bottom+1)*cols], g.cells[top*cols:(bottom+1-n)*cols])
	g.fill(top*cols, (top+n)*cols)
}

// setScrollRegion sets the 0-based inclusive region and homes the cursor.
// Invalid regions reset to the full screen.
func (g *Grid) setScrollRegion(top, bottom int) {
	if top < 0 {
		top = 0
	}
	if bottom >= g.rows {
		bottom = g.rows - 1
	}
	if top >= bottom {
		top, bottom = 0, g.rows-1
	}
	g.scrollTop, g.scrollBottom = top, bottom
	g.moveTo(0, 0)
}

// eraseDisplay implements ED: 0 cursor to end, 1 start to cursor, 2 all
// (cursor homed), 3 all plus scrollback.
func (g *Grid) eraseDisplay(mode int) {
	pos := g.curRow*g.cols + g.curCol
	switch mode {
	case 0:
		g.fill(pos, len(g.cells))
	case 1:
		g.fill(0, pos+1)
	case 2, 3:
		g.fill(0, len(g.cells))
		g.moveTo(0, 0)
		if mode == 3 {
			g.scrollback.Clear()
		}
	}
}

// eraseLine implements EL: 0 cursor to end, 1 start to cursor, 2 whole line.
func (g *Grid) eraseLine(mode int) {
	start := g.curRow * g.cols
	pos := start + g.curCol
	switch mode {
	case 0:
		g.fill(pos, start+g.cols)
	case 1:
		g.fill(start, pos+1)
	case 2:
		g.fill(start, start+g.cols)
	}
}

// eraseChars blanks n cells from the cursor without moving it.
func (g *Grid) eraseChars(n int) {
	if n < 1 {
		n = 1
	}
	end := g.curCol + n
	if end > g.cols {
		end = g.cols
	}
	start := g.curRow * g.cols
	g.fill(start+g.curCol, start+end)
}

// insertChars shifts the rest of the line right by n blanks.
func (g *Grid) insertChars(n int) {
	g.wrapPending = false
	row := g.Row(g.curRow)
	if n > g.cols-g.curCol {
		n = g.cols - g.curCol
	}
	if n <= 0 {
		return
	}
	copy(row[g.curCol+n:], row[g.curCol:g.cols-n])
	start := g.curRow * g.cols
	g.fill(start+g.curCol, start+g.curCol+n)
}

// deleteChars removes n cells at the cursor, shifting the rest left.
func (g *Grid) deleteChars(n int) {
	g.wrapPending = false
	row := g.Row(g.curRow)
	if n > g.cols-g.curCol {
		n = g.cols - g.curCol
	}
	if n <= 0 {
		return
	}
	copy(row[g.curCol:], row[g.curCol+n:])
	start := g.curRow * g.cols
	g.fill(start+g.cols-n, start+g.cols)
}

// insertLines inserts n blank rows at the cursor within the scroll region.
func (g *Grid) insertLines(n int) {
	if g.curRow < g.scrollTop || g.curRow > g.scrollBottom {
		return
	}
	g.shiftDown(g.curRow, g.scrollBottom, n)
	g.carriageReturn()
}

// deleteLines removes n rows at the cursor within the scroll region.
func (g *Grid) deleteLines(n int) {
	if g.curRow < g.scrollTop || g.curRow > g.scrollBottom {
		return
	}
	g.shiftUp(g.curRow, g.scrollBottom, n, false)
	g.carriageReturn()
}

func (g *Grid) saveCursor() {
	g.savedRow, g.savedCol = g.curRow, g.curCol
}

func (g *Grid) restoreCursor() {
	g.moveTo(g.savedRow, g.savedCol)
}

// enterAltScreen saves the cursor and switches to a blank alternate screen,
// keeping the primary content for exitAltScreen. The cursor shares the
// single save slot used by ESC 7 and CSI s.
func (g *Grid) enterAltScreen() {
	if g.altActive {
		return
	}
	g.saveCursor()
	g.primary = g.cells
	g.cells = g.blankCells(g.rows * g.cols)
	g.altActive = true
	g.wrapPending = false
}

// exitAltScreen restores the primary content and the saved cursor.
func (g *Grid) exitAltScreen() {
	if !g.altActive {
		return
	}
	if len(g.primary) == g.rows*g.cols {
		g.cells = g.primary
	} else {
		g.cells = g.blankCells(g.rows * g.cols)
	}
	g.primary = nil
	g.altActive = false
	g.restoreCursor()
}

// reset returns the grid to its power-on state, keeping geometry, palette
// and tab width. Scrollback is retained.
func (g *Grid) reset() {
	g.primary = nil
	g.altActive = false
	g.cells = g.blankCells(g.rows * g.cols)
	g.curRow, g.curCol = 0, 0
	g.savedRow, g.savedCol = 0, 0
	g.wrapPending = false
	g.scrollTop, g.scrollBottom = 0, g.rows-1
	g.pen = rendition{}
	g.cursorVisible = true
	g.autoWrap = true
}

// Resize reallocates the grid to the new geometry. Content is cleared and
// scrollback discarded; there is no reflow. The cursor and saved cursor are
// clamped into the new bounds.
func (g *Grid) Resize(cols, rows int) {
	cols, rows = clampSize(cols, rows)
	g.rows, g.cols = rows, cols
	g.cells = g.blankCells(rows * cols)
	if g.altActive {
		g.primary = g.blankCells(rows * cols)
	}
	g.scrollback.Clear()
	g.scrollTop, g.scrollBottom = 0, rows-1
	g.wrapPending = false
	g.curRow, g.curCol = clamp(g.curRow, 0, rows-1), clamp(g.curCol, 0, cols-1)
	g.savedRow, g.savedCol = clamp(g.savedRow, 0, rows-1), clamp(g.savedCol, 0, cols-1)
}

// CopyScrollbackRows returns exactly count*Cols() cells for history rows
// [start, start+count). Rows outside the stored range are blank.
func (g *Grid) CopyScrollbackRows(start, count int) []Cell {
	if count <= 0 {
		return nil
	}
	out := g.blankCells(count * g.cols)
	for i := 0; i < count; i++ {
		row := g.scrollback.Row(start + i)
		if row == nil {
			continue
		}
		copy(out[i*g.cols:(i+1)*g.cols], row)
	}
	return out
}

// Text returns the visible screen as text, one line per row, trailing
// blanks trimmed.
func (g *Grid) Text() string {
	lines := make([]string, g.rows)
	for r := range lines {
		lines[r] = rowText(g.Row(r))
	}
	return strings.Join(lines, "\n")
}
