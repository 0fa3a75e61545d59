// Package terminal implements VT100/ANSI terminal emulation for ptyterm.
//
// The package turns the byte stream produced by a child process into a grid
// of colored cells that any front end can paint:
//
//   - Parser: resumable byte-at-a-time escape sequence state machine
//   - Grid: flat row-major cell store with cursor, scroll region and an
//     alternate screen
//   - Scrollback: bounded ring of rows scrolled off the primary screen
//   - Terminal: facade with dirty tracking and coalesced snapshots
//   - Emulator: the capability interface, implemented by Terminal and by an
//     adapter over github.com/hinshun/vt10x
//
// # Usage
//
//	term := terminal.New(80, 24, terminal.WithResponder(pty))
//	term.Feed(output)
//
//	var snap terminal.Snapshot
//	if term.ConsumeSnapshot(&snap) {
//	    paint(snap)
//	}
//
// Keys travel the other way through EncodeKey.
//
// # Thread Safety
//
// Nothing in this package is safe for concurrent use. A session feeds and
// snapshots its terminal from a single goroutine.
package terminal
