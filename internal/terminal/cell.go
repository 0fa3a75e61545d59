package terminal

// Cell is a single grid position.
//
// A wide glyph occupies two cells: the leading cell has Wide set and holds
// the rune, the following cell has Continuation set and a zero codepoint.
type Cell struct {
	Codepoint    rune `json:"codepoint"`
	Fg           RGB  `json:"fg"`
	Bg           RGB  `json:"bg"`
	Bold         bool `json:"bold,omitempty"`
	Underline    bool `json:"underline,omitempty"`
	Inverse      bool `json:"inverse,omitempty"`
	Wide         bool `json:"wide,omitempty"`
	Continuation bool `json:"continuation,omitempty"`
}

// BlankCell returns a space in the palette's default colors.
func BlankCell(p Palette) Cell {
	return Cell{Codepoint: ' ', Fg: p.Foreground, Bg: p.Background}
}

// IsBlank reports whether the cell is a space without attributes.
func (c Cell) IsBlank() bool {
	return c.Codepoint == ' ' && !c.Bold && !c.Underline && !c.Inverse && !c.Wide && !c.Continuation
}

// rendition is the graphic-rendition state applied to newly written cells.
type rendition struct {
	fg        Color
	bg        Color
	bold      bool
	underline bool
	inverse   bool
}

// cell resolves the rendition into a cell holding r.
func (r rendition) cell(p *Palette, ch rune) Cell {
	fg := p.Resolve(r.fg, true)
	bg := p.Resolve(r.bg, false)
	if r.inverse {
		fg, bg = bg, fg
	}
	return Cell{
		Codepoint: ch,
		Fg:        fg,
		Bg:        bg,
		Bold:      r.bold,
		Underline: r.underline,
		Inverse:   r.inverse,
	}
}
