package terminal

import "strings"

// DefaultScrollback is the default number of rows kept in history.
const DefaultScrollback = 2000

// Scrollback is a bounded ring of rows scrolled off the top of the primary
// screen. Row 0 is the oldest retained row.
type Scrollback struct {
	rows     [][]Cell
	head     int
	count    int
	capacity int
}

// NewScrollback creates a ring holding at most capacity rows. A capacity
// of zero or less disables history.
func NewScrollback(capacity int) *Scrollback {
	if capacity < 0 {
		capacity = 0
	}
	return &Scrollback{capacity: capacity}
}

// Push appends a copy of row, evicting the oldest row when full.
func (s *Scrollback) Push(row []Cell) {
	if s.capacity == 0 {
		return
	}
	if s.count < s.capacity {
		idx := (s.head + s.count) % s.capacity
		if idx == len(s.rows) {
			s.rows = append(s.rows, nil)
		}
		s.rows[idx] = appendRow(s.rows[idx], row)
		s.count++
		return
	}
	// Full: overwrite the oldest slot, reusing its storage.
	s.rows[s.head] = appendRow(s.rows[s.head], row)
	s.head = (s.head + 1) % s.capacity
}

func appendRow(dst, src []Cell) []Cell {
	return append(dst[:0], src...)
}

// Len returns the number of stored rows.
func (s *Scrollback) Len() int {
	return s.count
}

// Capacity returns the maximum number of rows.
func (s *Scrollback) Capacity() int {
	return s.capacity
}

// Row returns the i-th row, oldest first, or nil when out of range.
// The returned slice must not be modified.
func (s *Scrollback) Row(i int) []Cell {
	if i < 0 || i >= s.count {
		return nil
	}
	return s.rows[(s.head+i)%s.capacity]
}

// Clear drops all rows.
func (s *Scrollback) Clear() {
	s.rows = s.rows[:0]
	s.head = 0
	s.count = 0
}

// Text returns the history as plain text, one line per row.
func (s *Scrollback) Text() string {
	var sb strings.Builder
	for i := 0; i < s.count; i++ {
		sb.WriteString(rowText(s.Row(i)))
		sb.WriteByte('\n')
	}
	return sb.String()
}

// rowText renders a row as a string with trailing blanks trimmed.
func rowText(row []Cell) string {
	var sb strings.Builder
	for _, c := range row {
		if c.Continuation {
			continue
		}
		if c.Codepoint == 0 {
			sb.WriteByte(' ')
			continue
		}
		sb.WriteRune(c.Codepoint)
	}
	return strings.TrimRight(sb.String(), " ")
}
