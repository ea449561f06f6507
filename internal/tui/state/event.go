package state

// EventKind enumerates decoded key events.
type EventKind int

const (
	KeyChar EventKind = iota
	KeyBackspace
	KeyDelete
	KeyArrow
	KeyHome
	KeyEnd
	KeyTab
	KeyEnter
	KeyEsc
	KeyCtrl
)

// Direction of an arrow key.
type Direction int

const (
	DirUp Direction = iota
	DirDown
	DirLeft
	DirRight
)

// Event is one decoded key press.
type Event struct {
	Kind EventKind
	// Rune is set for KeyChar.
	Rune rune
	// Dir is set for KeyArrow.
	Dir Direction
	// Ctrl is the lowercase letter for KeyCtrl, e.g. 'a' for Ctrl+A.
	Ctrl rune
}

// Char is shorthand for a printable key event.
func Char(r rune) Event { return Event{Kind: KeyChar, Rune: r} }

// Ctrl is shorthand for a control-letter event.
func Ctrl(letter rune) Event { return Event{Kind: KeyCtrl, Ctrl: letter} }

// Arrow is shorthand for an arrow-key event.
func Arrow(d Direction) Event { return Event{Kind: KeyArrow, Dir: d} }

// Key is shorthand for events without a payload.
func Key(k EventKind) Event { return Event{Kind: k} }
