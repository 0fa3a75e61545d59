package terminal

import "strings"

// Snapshot is a point-in-time copy of the visible grid.
type Snapshot struct {
	Rows          int    `json:"rows"`
	Cols          int    `json:"cols"`
	CursorRow     int    `json:"cursor_row"`
	CursorCol     int    `json:"cursor_col"`
	CursorVisible bool   `json:"cursor_visible"`
	AltScreen     bool   `json:"alt_screen"`
	Title         string `json:"title,omitempty"`
	Cells         []Cell `json:"cells"`
}

// Cell returns the cell at (row, col), or the zero Cell when out of range.
func (s Snapshot) Cell(row, col int) Cell {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return Cell{}
	}
	return s.Cells[row*s.Cols+col]
}

// Row returns the cells of one row. The slice aliases the snapshot.
func (s Snapshot) Row(row int) []Cell {
	if row < 0 || row >= s.Rows {
		return nil
	}
	return s.Cells[row*s.Cols : (row+1)*s.Cols]
}

// RowText returns one row as text with trailing blanks trimmed.
func (s Snapshot) RowText(row int) string {
	return rowText(s.Row(row))
}

// Text returns the whole snapshot as text, one line per row.
func (s Snapshot) Text() string {
	lines := make([]string, s.Rows)
	for r := range lines {
		lines[r] = s.RowText(r)
	}
	return strings.Join(lines, "\n")
}

// copyFrom fills s from g, reusing the cell slice when it is large enough.
func (s *Snapshot) copyFrom(g *Grid) {
	s.Rows, s.Cols = g.rows, g.cols
	s.CursorRow, s.CursorCol = g.curRow, g.curCol
	s.CursorVisible = g.cursorVisible
	s.AltScreen = g.altActive
	n := g.rows * g.cols
	if cap(s.Cells) < n {
		s.Cells = make([]Cell, n)
	}
	s.Cells = s.Cells[:n]
	copy(s.Cells, g.cells)
}
