// Package utils provides shared text helpers for the terminal UI.
//
// Every column computation in the line editor goes through DisplayWidth, so
// wide and zero-width characters are measured the way the terminal draws
// them rather than by byte or rune count.
package utils

import (
	"unicode"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// widthCond pins ambiguous-width characters to one column so the result does
// not depend on the user's locale.
var widthCond = func() *runewidth.Condition {
	c := runewidth.NewCondition()
	c.EastAsianWidth = false
	return c
}()

// DisplayWidth returns the number of terminal columns s occupies.
func DisplayWidth(s string) int {
	return widthCond.StringWidth(s)
}

// Cluster is one grapheme cluster inside a rune slice. Start and End are rune
// offsets; Width is the column cost of the whole cluster.
type Cluster struct {
	Start int
	End   int
	Width int
}

// Clusters splits text into grapheme clusters.
func Clusters(text []rune) []Cluster {
	if len(text) == 0 {
		return nil
	}
	out := make([]Cluster, 0, len(text))
	g := uniseg.NewGraphemes(string(text))
	pos := 0
	for g.Next() {
		n := len(g.Runes())
		out = append(out, Cluster{
			Start: pos,
			End:   pos + n,
			Width: widthCond.StringWidth(g.Str()),
		})
		pos += n
	}
	return out
}

// PrevBoundary returns the start of the grapheme cluster that ends at or
// contains cursor-1, or 0.
func PrevBoundary(text []rune, cursor int) int {
	if cursor <= 0 {
		return 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}
	prev := 0
	for _, c := range Clusters(text[:cursor]) {
		prev = c.Start
	}
	return prev
}

// NextBoundary returns the end of the grapheme cluster that starts at cursor,
// or len(text).
func NextBoundary(text []rune, cursor int) int {
	if cursor < 0 {
		cursor = 0
	}
	if cursor >= len(text) {
		return len(text)
	}
	for _, c := range Clusters(text) {
		if c.End > cursor {
			return c.End
		}
	}
	return len(text)
}

// PrevWord returns the offset Ctrl+W deletes back to: trailing whitespace
// first, then the word before it.
func PrevWord(text []rune, cursor int) int {
	if cursor > len(text) {
		cursor = len(text)
	}
	i := cursor
	for i > 0 && unicode.IsSpace(text[i-1]) {
		i--
	}
	for i > 0 && !unicode.IsSpace(text[i-1]) {
		i--
	}
	return i
}

// TruncateString truncates a string to a given width and adds an ellipsis if truncated.
func TruncateString(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}

	w := 0
	g := uniseg.NewGraphemes(s)
	cut := 0
	for g.Next() {
		cw := widthCond.StringWidth(g.Str())
		if w+cw > width-1 { // -1 for ellipsis
			break
		}
		w += cw
		_, cut = g.Positions()
	}
	return s[:cut] + "…"
}
