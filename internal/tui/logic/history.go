package logic

// History is the recall list for sent lines, walked with Up/Down. The zero
// value is ready to use.
type History struct {
	entries []string
	walking bool
	cursor  int
	draft   string
}

// Push appends a line unless it repeats the previous one, and resets the
// walk.
func (h *History) Push(line string) {
	if line == "" {
		return
	}
	if len(h.entries) == 0 || h.entries[len(h.entries)-1] != line {
		h.entries = append(h.entries, line)
	}
	h.Reset()
}

// Reset ends the current walk.
func (h *History) Reset() {
	h.walking = false
	h.cursor = 0
	h.draft = ""
}

// Prev steps to an older entry. current is remembered so walking forward
// past the newest entry gives it back.
func (h *History) Prev(current string) (string, bool) {
	if len(h.entries) == 0 {
		return "", false
	}
	if !h.walking {
		h.walking = true
		h.draft = current
		h.cursor = len(h.entries) - 1
	} else if h.cursor > 0 {
		h.cursor--
	}
	return h.entries[h.cursor], true
}

// Next steps to a newer entry, ending at the draft.
func (h *History) Next() (string, bool) {
	if !h.walking {
		return "", false
	}
	if h.cursor < len(h.entries)-1 {
		h.cursor++
		return h.entries[h.cursor], true
	}
	draft := h.draft
	h.Reset()
	return draft, true
}
