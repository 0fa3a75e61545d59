package terminal

import (
	"unicode/utf8"
)

// Key identifies a key press to encode for the child process.
type Key int

// Keys understood by EncodeKey.
const (
	KeyNone Key = iota
	KeyRune
	KeyEnter
	KeyTab
	KeyBacktab
	KeyBackspace
	KeyEscape
	KeyUp
	KeyDown
	KeyRight
	KeyLeft
	KeyHome
	KeyEnd
	KeyInsert
	KeyDelete
	KeyPageUp
	KeyPageDown
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

// Modifier is a bit set of held modifier keys.
type Modifier uint8

// Modifier bits.
const (
	ModShift Modifier = 1 << iota
	ModCtrl
	ModAlt
)

// Has reports whether m includes mod.
func (m Modifier) Has(mod Modifier) bool {
	return m&mod != 0
}

var keySequences = map[Key]string{
	KeyEnter:     "\r",
	KeyTab:       "\t",
	KeyBacktab:   "\x1b[Z",
	KeyBackspace: "\x7f",
	KeyEscape:    "\x1b",
	KeyUp:        "\x1b[A",
	KeyDown:      "\x1b[B",
	KeyRight:     "\x1b[C",
	KeyLeft:      "\x1b[D",
	KeyHome:      "\x1b[H",
	KeyEnd:       "\x1b[F",
	KeyInsert:    "\x1b[2~",
	KeyDelete:    "\x1b[3~",
	KeyPageUp:    "\x1b[5~",
	KeyPageDown:  "\x1b[6~",
	KeyF1:        "\x1bOP",
	KeyF2:        "\x1bOQ",
	KeyF3:        "\x1bOR",
	KeyF4:        "\x1bOS",
	KeyF5:        "\x1b[15~",
	KeyF6:        "\x1b[17~",
	KeyF7:        "\x1b[18~",
	KeyF8:        "\x1b[19~",
	KeyF9:        "\x1b[20~",
	KeyF10:       "\x1b[21~",
	KeyF11:       "\x1b[23~",
	KeyF12:       "\x1b[24~",
}

// EncodeKey returns the bytes a VT100-style terminal sends for a key. For
// KeyRune, r is the character. Alt prefixes the result with ESC. It returns
// nil for keys with no encoding.
func EncodeKey(k Key, r rune, mod Modifier) []byte {
	var out []byte
	switch k {
	case KeyRune:
		out = encodeRune(r, mod)
	case KeyNone:
		return nil
	default:
		seq, ok := keySequences[k]
		if !ok {
			return nil
		}
		out = []byte(seq)
	}
	if out == nil {
		return nil
	}
	if mod.Has(ModAlt) {
		out = append([]byte{0x1b}, out...)
	}
	return out
}

func encodeRune(r rune, mod Modifier) []byte {
	if mod.Has(ModCtrl) {
		if b, ok := controlByte(r); ok {
			return []byte{b}
		}
	}
	if r < 0 || !utf8.ValidRune(r) {
		return nil
	}
	return utf8.AppendRune(nil, r)
}

// controlByte maps Ctrl+r to its C0 control code.
func controlByte(r rune) (byte, bool) {
	switch {
	case r >= 'a' && r <= 'z':
		return byte(r-'a') + 1, true
	case r >= '@' && r <= '_':
		return byte(r - '@'), true
	case r == ' ':
		return 0, true
	case r == '?':
		return 0x7f, true
	}
	return 0, false
}
