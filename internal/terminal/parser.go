package terminal

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"
)

const (
	maxParams   = 16
	maxParamVal = 65535
	maxOSCLen   = 4096
)

// Parser is a byte-at-a-time VT100/ANSI state machine driving a Grid.
// Input may be split at any byte boundary; state carries across calls.
type Parser struct {
	grid *Grid

	state   parserState
	params  []int
	private bool // '?' prefix
	foreign bool // '>', '=' or '<' prefix
	inter   []byte
	osc     []byte

	utf8Buf   [utf8.UTFMax]byte
	utf8Len   int
	utf8Count int

	responder io.Writer
	onTitle   func(string)
	onBell    func()
	onUnknown func(seq string)
}

type parserState int

const (
	stateText parserState = iota
	stateEscape
	stateEscapeInter
	stateCSI
	stateOSC
	stateOSCEscape
)

func (s parserState) String() string {
	switch s {
	case stateText:
		return "text"
	case stateEscape:
		return "escape"
	case stateEscapeInter:
		return "escape-intermediate"
	case stateCSI:
		return "csi"
	case stateOSC:
		return "osc"
	case stateOSCEscape:
		return "osc-escape"
	default:
		return "unknown"
	}
}

// NewParser creates a parser that mutates grid.
func NewParser(grid *Grid) *Parser {
	return &Parser{
		grid:   grid,
		params: make([]int, 0, maxParams),
		inter:  make([]byte, 0, 4),
		osc:    make([]byte, 0, 256),
	}
}

// SetResponder sets where device reports (DSR, DA) are written.
func (p *Parser) SetResponder(w io.Writer) {
	p.responder = w
}

// SetTitleCallback sets the callback for OSC 0/2 title changes.
func (p *Parser) SetTitleCallback(fn func(string)) {
	p.onTitle = fn
}

// SetBellCallback sets the callback for BEL.
func (p *Parser) SetBellCallback(fn func()) {
	p.onBell = fn
}

// SetUnknownCallback sets the callback receiving dropped sequences.
func (p *Parser) SetUnknownCallback(fn func(seq string)) {
	p.onUnknown = fn
}

// Parse consumes data.
func (p *Parser) Parse(data []byte) {
	for _, b := range data {
		p.processByte(b)
	}
}

// ParseString consumes s.
func (p *Parser) ParseString(s string) {
	p.Parse([]byte(s))
}

func (p *Parser) processByte(b byte) {
	switch p.state {
	case stateText:
		p.processText(b)
	case stateEscape:
		p.processEscape(b)
	case stateEscapeInter:
		p.processEscapeInter(b)
	case stateCSI:
		p.processCSI(b)
	case stateOSC:
		p.processOSC(b)
	case stateOSCEscape:
		p.processOSCEscape(b)
	}
}

func (p *Parser) processText(b byte) {
	if p.utf8Len > 0 {
		if b&0xC0 == 0x80 {
			p.utf8Buf[p.utf8Count] = b
			p.utf8Count++
			if p.utf8Count == p.utf8Len {
				p.grid.put(p.decodeUTF8())
			}
			return
		}
		// Truncated sequence: emit a replacement and reprocess b.
		p.utf8Len, p.utf8Count = 0, 0
		p.grid.put(utf8.RuneError)
	}

	switch {
	case b == 0x1B:
		p.enterEscape()
	case b < 0x20:
		p.execute(b)
	case b == 0x7F:
		// DEL
	case b < 0x80:
		p.grid.put(rune(b))
	case b >= 0xC2 && b <= 0xDF:
		p.startUTF8(b, 2)
	case b >= 0xE0 && b <= 0xEF:
		p.startUTF8(b, 3)
	case b >= 0xF0 && b <= 0xF4:
		p.startUTF8(b, 4)
	default:
		// Not a valid lead byte: Latin-1.
		p.grid.put(rune(b))
	}
}

func (p *Parser) startUTF8(b byte, n int) {
	p.utf8Buf[0] = b
	p.utf8Len = n
	p.utf8Count = 1
}

func (p *Parser) decodeUTF8() rune {
	r, size := utf8.DecodeRune(p.utf8Buf[:p.utf8Len])
	p.utf8Len, p.utf8Count = 0, 0
	if r == utf8.RuneError && size <= 1 {
		return utf8.RuneError
	}
	return r
}

// execute handles C0 controls.
func (p *Parser) execute(b byte) {
	switch b {
	case 0x07:
		if p.onBell != nil {
			p.onBell()
		}
	case 0x08:
		p.grid.backspace()
	case 0x09:
		p.grid.tab()
	case 0x0A, 0x0B, 0x0C:
		p.grid.newLine()
	case 0x0D:
		p.grid.carriageReturn()
	}
}

func (p *Parser) enterEscape() {
	p.utf8Len, p.utf8Count = 0, 0
	p.state = stateEscape
	p.inter = p.inter[:0]
}

func (p *Parser) enterCSI() {
	p.state = stateCSI
	p.params = p.params[:0]
	p.inter = p.inter[:0]
	p.private = false
	p.foreign = false
}

func (p *Parser) enterOSC() {
	p.state = stateOSC
	p.osc = p.osc[:0]
}

func (p *Parser) processEscape(b byte) {
	p.state = stateText
	switch {
	case b == '[':
		p.enterCSI()
	case b == ']':
		p.enterOSC()
	case b == '7':
		p.grid.saveCursor()
	case b == '8':
		p.grid.restoreCursor()
	case b == 'D':
		p.grid.index()
	case b == 'E':
		p.grid.newLine()
	case b == 'M':
		p.grid.reverseIndex()
	case b == 'c':
		p.grid.reset()
	case b == '\\':
		// ST outside a string
	case b == '=' || b == '>':
		// keypad modes
	case b >= 0x20 && b <= 0x2F:
		p.inter = append(p.inter, b)
		p.state = stateEscapeInter
	case b == 0x1B:
		p.enterEscape()
	case b == 0x18 || b == 0x1A:
	case b < 0x20:
		p.execute(b)
		p.state = stateEscape
	default:
		p.unknown("ESC %c", b)
	}
}

func (p *Parser) processEscapeInter(b byte) {
	switch {
	case b >= 0x20 && b <= 0x2F:
		if len(p.inter) < cap(p.inter) {
			p.inter = append(p.inter, b)
		}
	case b >= 0x30 && b <= 0x7E:
		// Charset designation and friends: swallowed.
		p.state = stateText
	case b == 0x1B:
		p.enterEscape()
	case b == 0x18 || b == 0x1A:
		p.state = stateText
	case b < 0x20:
		p.execute(b)
	default:
		p.state = stateText
	}
}

func (p *Parser) processCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		if len(p.params) == 0 {
			p.params = append(p.params, 0)
		}
		i := len(p.params) - 1
		if v := p.params[i]*10 + int(b-'0'); v <= maxParamVal {
			p.params[i] = v
		} else {
			p.params[i] = maxParamVal
		}
	case b == ';' || b == ':':
		if len(p.params) == 0 {
			p.params = append(p.params, 0)
		}
		if len(p.params) < maxParams {
			p.params = append(p.params, 0)
		}
	case b == '?':
		p.private = true
	case b == '>' || b == '=' || b == '<':
		p.foreign = true
	case b >= 0x20 && b <= 0x2F:
		if len(p.inter) < cap(p.inter) {
			p.inter = append(p.inter, b)
		}
	case b >= 0x40 && b <= 0x7E:
		p.state = stateText
		p.dispatchCSI(b)
	case b == 0x1B:
		p.enterEscape()
	case b == 0x18 || b == 0x1A:
		p.state = stateText
	case b < 0x20:
		p.execute(b)
	}
}

func (p *Parser) processOSC(b byte) {
	switch b {
	case 0x07:
		p.dispatchOSC()
		p.state = stateText
	case 0x1B:
		p.state = stateOSCEscape
	case 0x18, 0x1A:
		p.state = stateText
	default:
		if b >= 0x20 && len(p.osc) < maxOSCLen {
			p.osc = append(p.osc, b)
		}
	}
}

// processOSCEscape completes an OSC on ST. Any other byte abandons the
// string and starts a new escape sequence.
func (p *Parser) processOSCEscape(b byte) {
	if b == '\\' {
		p.dispatchOSC()
		p.state = stateText
		return
	}
	p.osc = p.osc[:0]
	p.processEscape(b)
}

// param returns the i-th parameter, substituting def for missing or zero.
func (p *Parser) param(i, def int) int {
	if i >= len(p.params) || p.params[i] == 0 {
		return def
	}
	return p.params[i]
}

func (p *Parser) dispatchCSI(final byte) {
	if p.foreign || len(p.inter) > 0 {
		p.unknown("CSI %s", p.sequence(final))
		return
	}
	if p.private {
		switch final {
		case 'h':
			p.setPrivateModes(true)
		case 'l':
			p.setPrivateModes(false)
		default:
			p.unknown("CSI %s", p.sequence(final))
		}
		return
	}

	g := p.grid
	switch final {
	case 'A':
		g.moveBy(-p.param(0, 1), 0)
	case 'B', 'e':
		g.moveBy(p.param(0, 1), 0)
	case 'C', 'a':
		g.moveBy(0, p.param(0, 1))
	case 'D':
		g.moveBy(0, -p.param(0, 1))
	case 'E':
		g.moveTo(g.curRow+p.param(0, 1), 0)
	case 'F':
		g.moveTo(g.curRow-p.param(0, 1), 0)
	case 'G', '`':
		g.moveTo(g.curRow, p.param(0, 1)-1)
	case 'd':
		g.moveTo(p.param(0, 1)-1, g.curCol)
	case 'H', 'f':
		g.moveTo(p.param(0, 1)-1, p.param(1, 1)-1)
	case 'I':
		for n := p.param(0, 1); n > 0; n-- {
			g.tab()
		}
	case 'Z':
		g.backTab(p.param(0, 1))
	case 'J':
		g.eraseDisplay(p.param(0, 0))
	case 'K':
		g.eraseLine(p.param(0, 0))
	case 'X':
		g.eraseChars(p.param(0, 1))
	case '@':
		g.insertChars(p.param(0, 1))
	case 'P':
		g.deleteChars(p.param(0, 1))
	case 'L':
		g.insertLines(p.param(0, 1))
	case 'M':
		g.deleteLines(p.param(0, 1))
	case 'S':
		g.scrollUp(p.param(0, 1))
	case 'T':
		g.scrollDown(p.param(0, 1))
	case 'r':
		g.setScrollRegion(p.param(0, 1)-1, p.param(1, g.rows)-1)
	case 's':
		g.saveCursor()
	case 'u':
		g.restoreCursor()
	case 'm':
		p.handleSGR()
	case 'n':
		p.deviceStatus(p.param(0, 0))
	case 'c':
		if p.param(0, 0) == 0 {
			p.respond("\x1b[?1;2c")
		}
	case 'h', 'l':
		// ANSI modes (insert, newline): not supported, ignored.
	default:
		p.unknown("CSI %s", p.sequence(final))
	}
}

func (p *Parser) setPrivateModes(set bool) {
	g := p.grid
	for _, mode := range p.params {
		switch mode {
		case 7:
			g.autoWrap = set
			if !set {
				g.wrapPending = false
			}
		case 25:
			g.cursorVisible = set
		case 47, 1047, 1049:
			if set {
				g.enterAltScreen()
			} else {
				g.exitAltScreen()
			}
		case 1, 12, 1000, 1002, 1003, 1004, 1005, 1006, 1015, 2004:
			// cursor keys, blink, mouse, focus and paste modes are not emulated
		default:
			final := 'l'
			if set {
				final = 'h'
			}
			p.unknown("CSI ?%d%c", mode, final)
		}
	}
}

func (p *Parser) deviceStatus(n int) {
	switch n {
	case 5:
		p.respond("\x1b[0n")
	case 6:
		row, col := p.grid.Cursor()
		p.respond(fmt.Sprintf("\x1b[%d;%dR", row+1, col+1))
	}
}

func (p *Parser) respond(s string) {
	if p.responder == nil {
		return
	}
	_, _ = io.WriteString(p.responder, s)
}

func (p *Parser) handleSGR() {
	pen := &p.grid.pen
	if len(p.params) == 0 {
		*pen = rendition{}
		return
	}
	for i := 0; i < len(p.params); i++ {
		switch v := p.params[i]; {
		case v == 0:
			*pen = rendition{}
		case v == 1:
			pen.bold = true
		case v == 4:
			pen.underline = true
		case v == 7:
			pen.inverse = true
		case v == 22:
			pen.bold = false
		case v == 24:
			pen.underline = false
		case v == 27:
			pen.inverse = false
		case v >= 30 && v <= 37:
			pen.fg = IndexedColor(uint8(v - 30))
		case v == 38:
			c, next, ok := p.extendedColor(i)
			if ok {
				pen.fg = c
			}
			i = next
		case v == 39:
			pen.fg = DefaultColor
		case v >= 40 && v <= 47:
			pen.bg = IndexedColor(uint8(v - 40))
		case v == 48:
			c, next, ok := p.extendedColor(i)
			if ok {
				pen.bg = c
			}
			i = next
		case v == 49:
			pen.bg = DefaultColor
		case v >= 90 && v <= 97:
			pen.fg = IndexedColor(uint8(v - 90 + 8))
		case v >= 100 && v <= 107:
			pen.bg = IndexedColor(uint8(v - 100 + 8))
		}
	}
}

// extendedColor decodes 38/48 ";5;n" and ";2;r;g;b" starting at index i.
// It returns the index of the last parameter consumed.
func (p *Parser) extendedColor(i int) (Color, int, bool) {
	if i+1 >= len(p.params) {
		return Color{}, i, false
	}
	switch p.params[i+1] {
	case 5:
		if i+2 >= len(p.params) {
			return Color{}, len(p.params) - 1, false
		}
		return IndexedColor(uint8(clamp(p.params[i+2], 0, 255))), i + 2, true
	case 2:
		if i+4 >= len(p.params) {
			return Color{}, len(p.params) - 1, false
		}
		r := uint8(clamp(p.params[i+2], 0, 255))
		g := uint8(clamp(p.params[i+3], 0, 255))
		b := uint8(clamp(p.params[i+4], 0, 255))
		return DirectColor(r, g, b), i + 4, true
	default:
		return Color{}, i + 1, false
	}
}

func (p *Parser) dispatchOSC() {
	data := string(p.osc)
	p.osc = p.osc[:0]
	cmd, arg, ok := strings.Cut(data, ";")
	if !ok {
		return
	}
	n, err := strconv.Atoi(cmd)
	if err != nil {
		return
	}
	switch n {
	case 0, 2:
		if p.onTitle != nil {
			p.onTitle(arg)
		}
	}
}

// sequence renders the pending CSI for diagnostics.
func (p *Parser) sequence(final byte) string {
	var sb strings.Builder
	switch {
	case p.private:
		sb.WriteByte('?')
	case p.foreign:
		sb.WriteByte('>')
	}
	for i, v := range p.params {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteString(strconv.Itoa(v))
	}
	sb.Write(p.inter)
	sb.WriteByte(final)
	return sb.String()
}

func (p *Parser) unknown(format string, args ...any) {
	if p.onUnknown != nil {
		p.onUnknown(fmt.Sprintf(format, args...))
	}
}
