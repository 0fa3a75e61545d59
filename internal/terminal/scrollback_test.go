package terminal

import (
	"testing"
)

func textRow(s string) []Cell {
	row := make([]Cell, len(s))
	for i, r := range s {
		row[i] = Cell{Codepoint: r}
	}
	return row
}

func TestScrollbackOrder(t *testing.T) {
	s := NewScrollback(3)

	for _, line := range []string{"a", "b", "c", "d", "e"} {
		s.Push(textRow(line))
	}

	if s.Len() != 3 {
		t.Fatalf("expected 3 rows, got %d", s.Len())
	}
	for i, want := range []string{"c", "d", "e"} {
		if got := rowText(s.Row(i)); got != want {
			t.Errorf("row %d: expected '%s', got '%s'", i, want, got)
		}
	}
	if s.Row(3) != nil || s.Row(-1) != nil {
		t.Error("expected nil for out-of-range rows")
	}
	if got := s.Text(); got != "c\nd\ne\n" {
		t.Errorf("unexpected text %q", got)
	}
}

func TestScrollbackPushCopies(t *testing.T) {
	s := NewScrollback(2)
	row := textRow("x")

	s.Push(row)
	row[0].Codepoint = 'y'

	if got := rowText(s.Row(0)); got != "x" {
		t.Errorf("expected stored copy 'x', got '%s'", got)
	}
}

func TestScrollbackClear(t *testing.T) {
	s := NewScrollback(2)
	s.Push(textRow("a"))
	s.Push(textRow("b"))
	s.Push(textRow("c"))

	s.Clear()
	if s.Len() != 0 {
		t.Fatalf("expected empty scrollback, got %d", s.Len())
	}

	s.Push(textRow("d"))
	if got := rowText(s.Row(0)); got != "d" {
		t.Errorf("expected 'd' after clear, got '%s'", got)
	}
}

func TestScrollbackDisabled(t *testing.T) {
	s := NewScrollback(0)
	s.Push(textRow("a"))

	if s.Len() != 0 {
		t.Errorf("expected disabled scrollback to stay empty, got %d", s.Len())
	}
}
