package terminal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodeKey(t *testing.T) {
	tests := []struct {
		name string
		key  Key
		r    rune
		mod  Modifier
		want string
	}{
		{"rune", KeyRune, 'a', 0, "a"},
		{"unicode rune", KeyRune, 'é', 0, "é"},
		{"enter", KeyEnter, 0, 0, "\r"},
		{"tab", KeyTab, 0, 0, "\t"},
		{"backspace", KeyBackspace, 0, 0, "\x7f"},
		{"escape", KeyEscape, 0, 0, "\x1b"},
		{"up", KeyUp, 0, 0, "\x1b[A"},
		{"down", KeyDown, 0, 0, "\x1b[B"},
		{"right", KeyRight, 0, 0, "\x1b[C"},
		{"left", KeyLeft, 0, 0, "\x1b[D"},
		{"home", KeyHome, 0, 0, "\x1b[H"},
		{"end", KeyEnd, 0, 0, "\x1b[F"},
		{"insert", KeyInsert, 0, 0, "\x1b[2~"},
		{"delete", KeyDelete, 0, 0, "\x1b[3~"},
		{"page up", KeyPageUp, 0, 0, "\x1b[5~"},
		{"page down", KeyPageDown, 0, 0, "\x1b[6~"},
		{"f1", KeyF1, 0, 0, "\x1bOP"},
		{"f4", KeyF4, 0, 0, "\x1bOS"},
		{"f5", KeyF5, 0, 0, "\x1b[15~"},
		{"f12", KeyF12, 0, 0, "\x1b[24~"},
		{"ctrl-c", KeyRune, 'c', ModCtrl, "\x03"},
		{"ctrl-C", KeyRune, 'C', ModCtrl, "\x03"},
		{"ctrl-space", KeyRune, ' ', ModCtrl, "\x00"},
		{"ctrl-[", KeyRune, '[', ModCtrl, "\x1b"},
		{"ctrl-digit", KeyRune, '1', ModCtrl, "1"},
		{"alt-x", KeyRune, 'x', ModAlt, "\x1bx"},
		{"alt-ctrl-a", KeyRune, 'a', ModAlt | ModCtrl, "\x1b\x01"},
		{"alt-up", KeyUp, 0, ModAlt, "\x1b\x1b[A"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, string(EncodeKey(tt.key, tt.r, tt.mod)))
		})
	}
}

func TestEncodeKeyNoEncoding(t *testing.T) {
	assert.Nil(t, EncodeKey(KeyNone, 0, 0))
	assert.Nil(t, EncodeKey(Key(999), 0, 0))
	assert.Nil(t, EncodeKey(KeyRune, -1, 0))
}
