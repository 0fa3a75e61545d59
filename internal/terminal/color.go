package terminal

import (
	"fmt"
	"strconv"
	"strings"
)

// RGB is a resolved 24-bit color as stored in grid cells.
type RGB struct {
	R, G, B uint8
}

// Hex returns the color as "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// MarshalText encodes the color as "#rrggbb".
func (c RGB) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes "#rrggbb" or "rrggbb".
func (c *RGB) UnmarshalText(text []byte) error {
	v, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// ParseHex parses a "#rrggbb" color string. The leading '#' is optional.
func ParseHex(s string) (RGB, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(s) != 6 {
		return RGB{}, fmt.Errorf("invalid color %q: want #rrggbb", s)
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return RGB{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v)}, nil
}

// colorKind distinguishes how a logical color is resolved.
type colorKind uint8

const (
	colorDefault colorKind = iota
	colorIndexed
	colorDirect
)

// Color is the logical color held by the rendition state. It is resolved
// against a Palette only when a cell is written.
type Color struct {
	kind  colorKind
	index uint8
	rgb   RGB
}

// DefaultColor is the terminal default foreground or background.
var DefaultColor = Color{}

// IndexedColor returns a 256-color palette reference.
func IndexedColor(i uint8) Color {
	return Color{kind: colorIndexed, index: i}
}

// DirectColor returns a truecolor value.
func DirectColor(r, g, b uint8) Color {
	return Color{kind: colorDirect, rgb: RGB{R: r, G: g, B: b}}
}

// IsDefault reports whether c is the terminal default color.
func (c Color) IsDefault() bool {
	return c.kind == colorDefault
}

// Standard 16-color palette.
var (
	ColorBlack         = RGB{0, 0, 0}
	ColorRed           = RGB{205, 0, 0}
	ColorGreen         = RGB{0, 205, 0}
	ColorYellow        = RGB{205, 205, 0}
	ColorBlue          = RGB{0, 0, 238}
	ColorMagenta       = RGB{205, 0, 205}
	ColorCyan          = RGB{0, 205, 205}
	ColorWhite         = RGB{229, 229, 229}
	ColorBrightBlack   = RGB{127, 127, 127}
	ColorBrightRed     = RGB{255, 0, 0}
	ColorBrightGreen   = RGB{0, 255, 0}
	ColorBrightYellow  = RGB{255, 255, 0}
	ColorBrightBlue    = RGB{92, 92, 255}
	ColorBrightMagenta = RGB{255, 0, 255}
	ColorBrightCyan    = RGB{0, 255, 255}
	ColorBrightWhite   = RGB{255, 255, 255}
)

// Palette maps logical colors to RGB.
type Palette struct {
	Foreground RGB
	Background RGB
	ANSI       [16]RGB
}

// DefaultPalette returns the built-in xterm-like palette with a light grey
// foreground on black.
func DefaultPalette() Palette {
	return Palette{
		Foreground: RGB{0xE5, 0xE5, 0xE5},
		Background: RGB{0x00, 0x00, 0x00},
		ANSI: [16]RGB{
			ColorBlack, ColorRed, ColorGreen, ColorYellow,
			ColorBlue, ColorMagenta, ColorCyan, ColorWhite,
			ColorBrightBlack, ColorBrightRed, ColorBrightGreen, ColorBrightYellow,
			ColorBrightBlue, ColorBrightMagenta, ColorBrightCyan, ColorBrightWhite,
		},
	}
}

// Index returns the RGB value for a 256-color index: 0-15 from the palette,
// 16-231 from the 6x6x6 cube and 232-255 from the grayscale ramp.
func (p *Palette) Index(i uint8) RGB {
	switch {
	case i < 16:
		return p.ANSI[i]
	case i < 232:
		i -= 16
		return RGB{R: cubeLevel(i / 36), G: cubeLevel((i / 6) % 6), B: cubeLevel(i % 6)}
	default:
		gray := 8 + (i-232)*10
		return RGB{R: gray, G: gray, B: gray}
	}
}

func cubeLevel(v uint8) uint8 {
	if v == 0 {
		return 0
	}
	return 55 + v*40
}

// Resolve turns a logical color into RGB. fg selects which default applies.
func (p *Palette) Resolve(c Color, fg bool) RGB {
	switch c.kind {
	case colorIndexed:
		return p.Index(c.index)
	case colorDirect:
		return c.rgb
	default:
		if fg {
			return p.Foreground
		}
		return p.Background
	}
}
