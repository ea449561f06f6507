package state

import "github.com/hy4ri/slack-tui/internal/tui/utils"

// EditBuffer is the text being composed at the prompt.
// Cursor is a rune offset and always satisfies 0 <= Cursor <= len(Text).
type EditBuffer struct {
	Text   []rune
	Cursor int
}

// String returns the buffer contents.
func (b *EditBuffer) String() string { return string(b.Text) }

// Empty reports whether the buffer holds no text.
func (b *EditBuffer) Empty() bool { return len(b.Text) == 0 }

// Set replaces the contents and moves the cursor to the end.
func (b *EditBuffer) Set(s string) {
	b.Text = []rune(s)
	b.Cursor = len(b.Text)
}

// Insert inserts runes at the cursor and advances past them.
func (b *EditBuffer) Insert(rs ...rune) {
	b.clamp()
	text := make([]rune, 0, len(b.Text)+len(rs))
	text = append(text, b.Text[:b.Cursor]...)
	text = append(text, rs...)
	text = append(text, b.Text[b.Cursor:]...)
	b.Text = text
	b.Cursor += len(rs)
}

// Replace substitutes the span [start, end) with s and leaves the cursor at
// the end of the inserted text.
func (b *EditBuffer) Replace(start, end int, s string) {
	b.clamp()
	start = clampInt(start, 0, len(b.Text))
	end = clampInt(end, start, len(b.Text))
	rs := []rune(s)
	text := make([]rune, 0, len(b.Text)-(end-start)+len(rs))
	text = append(text, b.Text[:start]...)
	text = append(text, rs...)
	text = append(text, b.Text[end:]...)
	b.Text = text
	b.Cursor = start + len(rs)
}

// Backspace deletes the grapheme cluster before the cursor.
func (b *EditBuffer) Backspace() bool {
	b.clamp()
	if b.Cursor == 0 {
		return false
	}
	start := utils.PrevBoundary(b.Text, b.Cursor)
	b.Replace(start, b.Cursor, "")
	return true
}

// Delete deletes the grapheme cluster under the cursor.
func (b *EditBuffer) Delete() bool {
	b.clamp()
	if b.Cursor >= len(b.Text) {
		return false
	}
	cur := b.Cursor
	b.Replace(cur, utils.NextBoundary(b.Text, cur), "")
	b.Cursor = cur
	return true
}

// Left moves the cursor back one grapheme cluster.
func (b *EditBuffer) Left() {
	b.clamp()
	b.Cursor = utils.PrevBoundary(b.Text, b.Cursor)
}

// Right moves the cursor forward one grapheme cluster.
func (b *EditBuffer) Right() {
	b.clamp()
	b.Cursor = utils.NextBoundary(b.Text, b.Cursor)
}

// Home moves the cursor to the start of the buffer.
func (b *EditBuffer) Home() { b.Cursor = 0 }

// End moves the cursor to the end of the buffer.
func (b *EditBuffer) End() { b.Cursor = len(b.Text) }

// KillBefore deletes everything before the cursor (Ctrl+U).
func (b *EditBuffer) KillBefore() {
	b.clamp()
	b.Replace(0, b.Cursor, "")
}

// KillAfter deletes everything from the cursor to the end (Ctrl+K).
func (b *EditBuffer) KillAfter() {
	b.clamp()
	b.Text = b.Text[:b.Cursor:b.Cursor]
}

// DeleteWord deletes the word before the cursor (Ctrl+W).
func (b *EditBuffer) DeleteWord() {
	b.clamp()
	b.Replace(utils.PrevWord(b.Text, b.Cursor), b.Cursor, "")
}

func (b *EditBuffer) clamp() {
	b.Cursor = clampInt(b.Cursor, 0, len(b.Text))
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Geometry is what the renderer remembers about the last frame it drew:
// how many physical rows the input occupied and which of them holds the
// cursor. It only lives for one prompt.
type Geometry struct {
	Rows      int
	CursorRow int
}
