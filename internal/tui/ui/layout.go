package ui

import (
	"github.com/hy4ri/slack-tui/internal/tui/utils"
)

// Default prompt decorations.
const (
	DefaultMarker = "> "
	DefaultIndent = "  "
)

// Layout maps an edit buffer onto physical terminal rows.
// The first logical line starts with Marker, every following one with Indent.
type Layout struct {
	Width  int
	Marker string
	Indent string
}

// Placement is where a buffer lands on screen. CursorRow counts from the
// first input row.
type Placement struct {
	Rows      int
	CursorRow int
	CursorCol int
}

// Place lays text out the way the terminal will wrap it. Rows are filled one
// grapheme cluster at a time and a cluster that does not fit on the current
// row moves whole to the next one. The cursor sits where the next cluster
// would be drawn, except at the very end of a line that exactly fills its
// last row: there it stays on that row in the last column.
func (l Layout) Place(text []rune, cursor int) Placement {
	width := l.Width
	if width < 1 {
		width = 1
	}
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}

	var p Placement
	start := 0
	for li := 0; ; li++ {
		end := start
		for end < len(text) && text[end] != '\n' {
			end++
		}

		prefix := l.Indent
		if li == 0 {
			prefix = l.Marker
		}
		row, col := 0, utils.DisplayWidth(prefix)
		for col > width {
			row++
			col -= width
		}

		found := false
		for _, c := range utils.Clusters(text[start:end]) {
			wraps := col > 0 && col+c.Width > width
			if start+c.Start == cursor {
				if wraps {
					p.CursorRow, p.CursorCol = p.Rows+row+1, 0
				} else {
					p.CursorRow, p.CursorCol = p.Rows+row, col
				}
				found = true
			}
			if wraps {
				row++
				col = 0
			}
			col += c.Width
		}
		if !found && cursor == end && cursor >= start {
			c := col
			if c >= width {
				c = width - 1
			}
			p.CursorRow, p.CursorCol = p.Rows+row, c
		}

		p.Rows += row + 1
		if end >= len(text) {
			break
		}
		start = end + 1
	}
	return p
}
