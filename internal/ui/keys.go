package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/dshills/ptyterm/internal/terminal"
)

// namedKeys maps tcell's non-printing keys onto emulator keys. Control
// letters are handled separately by range.
var namedKeys = map[tcell.Key]terminal.Key{
	tcell.KeyEnter:      terminal.KeyEnter,
	tcell.KeyTab:        terminal.KeyTab,
	tcell.KeyBacktab:    terminal.KeyBacktab,
	tcell.KeyBackspace:  terminal.KeyBackspace,
	tcell.KeyBackspace2: terminal.KeyBackspace,
	tcell.KeyEscape:     terminal.KeyEscape,
	tcell.KeyUp:         terminal.KeyUp,
	tcell.KeyDown:       terminal.KeyDown,
	tcell.KeyRight:      terminal.KeyRight,
	tcell.KeyLeft:       terminal.KeyLeft,
	tcell.KeyHome:       terminal.KeyHome,
	tcell.KeyEnd:        terminal.KeyEnd,
	tcell.KeyInsert:     terminal.KeyInsert,
	tcell.KeyDelete:     terminal.KeyDelete,
	tcell.KeyPgUp:       terminal.KeyPageUp,
	tcell.KeyPgDn:       terminal.KeyPageDown,
	tcell.KeyF1:         terminal.KeyF1,
	tcell.KeyF2:         terminal.KeyF2,
	tcell.KeyF3:         terminal.KeyF3,
	tcell.KeyF4:         terminal.KeyF4,
	tcell.KeyF5:         terminal.KeyF5,
	tcell.KeyF6:         terminal.KeyF6,
	tcell.KeyF7:         terminal.KeyF7,
	tcell.KeyF8:         terminal.KeyF8,
	tcell.KeyF9:         terminal.KeyF9,
	tcell.KeyF10:        terminal.KeyF10,
	tcell.KeyF11:        terminal.KeyF11,
	tcell.KeyF12:        terminal.KeyF12,
}

// translateKey converts a tcell key event into the emulator's key model.
func translateKey(ev *tcell.EventKey) (terminal.Key, rune, terminal.Modifier) {
	mod := convertMod(ev.Modifiers())

	if ev.Key() == tcell.KeyRune {
		return terminal.KeyRune, ev.Rune(), mod
	}
	if k, ok := namedKeys[ev.Key()]; ok {
		return k, 0, mod
	}

	switch k := ev.Key(); {
	case k == tcell.KeyCtrlSpace:
		return terminal.KeyRune, ' ', mod | terminal.ModCtrl
	case k >= tcell.KeyCtrlA && k <= tcell.KeyCtrlZ:
		return terminal.KeyRune, 'a' + rune(k-tcell.KeyCtrlA), mod | terminal.ModCtrl
	case k == tcell.KeyCtrlBackslash:
		return terminal.KeyRune, '\\', mod | terminal.ModCtrl
	case k == tcell.KeyCtrlRightSq:
		return terminal.KeyRune, ']', mod | terminal.ModCtrl
	case k == tcell.KeyCtrlCarat:
		return terminal.KeyRune, '^', mod | terminal.ModCtrl
	case k == tcell.KeyCtrlUnderscore:
		return terminal.KeyRune, '_', mod | terminal.ModCtrl
	}
	return terminal.KeyNone, 0, mod
}

func convertMod(m tcell.ModMask) terminal.Modifier {
	var mod terminal.Modifier
	if m&tcell.ModShift != 0 {
		mod |= terminal.ModShift
	}
	if m&tcell.ModCtrl != 0 {
		mod |= terminal.ModCtrl
	}
	if m&tcell.ModAlt != 0 {
		mod |= terminal.ModAlt
	}
	return mod
}
