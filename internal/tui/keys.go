package tui

import (
	"unicode/utf8"

	"github.com/hy4ri/slack-tui/internal/tui/state"
)

const esc = 0x1b

// Decoder turns raw terminal bytes into key events. Sequences split across
// reads are held until the rest arrives, except a lone ESC at the end of a
// read, which is taken as the Esc key.
type Decoder struct {
	pending []byte
}

// Feed decodes p and returns the complete events it contains.
func (d *Decoder) Feed(p []byte) []state.Event {
	data := append(d.pending, p...)
	d.pending = nil

	var out []state.Event
	for len(data) > 0 {
		ev, n, ok := decodeOne(data)
		if n == 0 {
			d.pending = append([]byte(nil), data...)
			break
		}
		data = data[n:]
		if ok {
			out = append(out, ev)
		}
	}
	return out
}

// decodeOne decodes one key from the front of b. n is zero when b holds an
// incomplete sequence; ok is false for bytes that are consumed but ignored.
func decodeOne(b []byte) (ev state.Event, n int, ok bool) {
	c := b[0]
	switch {
	case c == '\r':
		if len(b) > 1 && b[1] == '\n' {
			return state.Key(state.KeyEnter), 2, true
		}
		return state.Key(state.KeyEnter), 1, true
	case c == '\n':
		return state.Key(state.KeyEnter), 1, true
	case c == '\t':
		return state.Key(state.KeyTab), 1, true
	case c == 0x7f || c == 0x08:
		return state.Key(state.KeyBackspace), 1, true
	case c == esc:
		return decodeEscape(b)
	case c >= 0x01 && c <= 0x1a:
		return state.Ctrl(rune('a' + c - 1)), 1, true
	case c < 0x20:
		return state.Event{}, 1, false
	}

	if !utf8.FullRune(b) {
		return state.Event{}, 0, false
	}
	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return state.Event{}, 1, false
	}
	return state.Char(r), size, true
}

func decodeEscape(b []byte) (state.Event, int, bool) {
	if len(b) == 1 {
		return state.Key(state.KeyEsc), 1, true
	}
	switch b[1] {
	case '[':
		return decodeCSI(b)
	case 'O':
		if len(b) < 3 {
			return state.Event{}, 0, false
		}
		if ev, ok := finalKey(b[2]); ok {
			return ev, 3, true
		}
		return state.Event{}, 3, false
	case esc:
		return state.Key(state.KeyEsc), 1, true
	}
	// Alt+key arrives as ESC then the key; they are reported separately.
	return state.Key(state.KeyEsc), 1, true
}

func decodeCSI(b []byte) (state.Event, int, bool) {
	i := 2
	for i < len(b) && b[i] >= 0x30 && b[i] <= 0x3f {
		i++
	}
	for i < len(b) && b[i] >= 0x20 && b[i] <= 0x2f {
		i++
	}
	if i >= len(b) {
		return state.Event{}, 0, false
	}
	final := b[i]
	params := string(b[2:i])
	n := i + 1

	if final == '~' {
		switch params {
		case "1", "7":
			return state.Key(state.KeyHome), n, true
		case "4", "8":
			return state.Key(state.KeyEnd), n, true
		case "3":
			return state.Key(state.KeyDelete), n, true
		}
		return state.Event{}, n, false
	}
	if ev, ok := finalKey(final); ok {
		return ev, n, true
	}
	return state.Event{}, n, false
}

func finalKey(f byte) (state.Event, bool) {
	switch f {
	case 'A':
		return state.Arrow(state.DirUp), true
	case 'B':
		return state.Arrow(state.DirDown), true
	case 'C':
		return state.Arrow(state.DirRight), true
	case 'D':
		return state.Arrow(state.DirLeft), true
	case 'H':
		return state.Key(state.KeyHome), true
	case 'F':
		return state.Key(state.KeyEnd), true
	}
	return state.Event{}, false
}
