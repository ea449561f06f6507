// Package logic holds the prompt's completion rules: classifying the text
// around the cursor, producing candidates and materializing a chosen one.
package logic

import (
	"unicode"

	"github.com/hy4ri/slack-tui/internal/tui/state"
)

// Context is the completion context at the cursor. Anchor is the rune offset
// where the replaceable span starts; the span ends at the cursor.
type Context struct {
	Type   state.ContextType
	Anchor int
	Query  string
}

// Resolve classifies the buffer at cursor. Commands win over channels and
// channels over mentions.
func Resolve(text []rune, cursor int, mode state.PromptMode) Context {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(text) {
		cursor = len(text)
	}

	if mode == state.ModeChannelSwitch {
		if len(text) == 0 {
			return Context{}
		}
		return Context{Type: state.ContextChannel, Anchor: 0, Query: string(text)}
	}

	if len(text) > 0 && text[0] == '/' && !hasSpace(text[:cursor]) {
		// A cursor in front of the slash matches every command.
		query := ""
		if cursor > 0 {
			query = string(text[1:cursor])
		}
		return Context{Type: state.ContextCommand, Anchor: 0, Query: query}
	}

	if i, ok := sigilBefore(text, cursor, '#'); ok {
		return Context{Type: state.ContextChannel, Anchor: i, Query: string(text[i+1 : cursor])}
	}
	if i, ok := sigilBefore(text, cursor, '@'); ok {
		return Context{Type: state.ContextMention, Anchor: i, Query: string(text[i+1 : cursor])}
	}
	return Context{}
}

// sigilBefore finds the nearest sigil in the word ending at cursor. A sigil
// directly after '<' belongs to a materialized reference and does not count.
func sigilBefore(text []rune, cursor int, sigil rune) (int, bool) {
	for i := cursor - 1; i >= 0; i-- {
		r := text[i]
		if unicode.IsSpace(r) {
			return 0, false
		}
		if r != sigil {
			continue
		}
		if i > 0 && text[i-1] == '<' {
			return 0, false
		}
		return i, true
	}
	return 0, false
}

func hasSpace(rs []rune) bool {
	for _, r := range rs {
		if unicode.IsSpace(r) {
			return true
		}
	}
	return false
}
