package state

// Suggestions is the overlay state. Selected is -1 exactly when Items is
// empty. Notice is a transient message shown instead of items.
type Suggestions struct {
	Type     ContextType
	Items    []Candidate
	Selected int
	Notice   string
}

// NewSuggestions returns an empty, closed overlay.
func NewSuggestions() Suggestions {
	return Suggestions{Selected: -1}
}

// Set replaces the items for a context type and selects the first one.
func (s *Suggestions) Set(t ContextType, items []Candidate) {
	s.Type = t
	s.Items = items
	s.Notice = ""
	s.Selected = -1
	if len(items) > 0 {
		s.Selected = 0
	}
}

// Clear closes the overlay.
func (s *Suggestions) Clear() {
	*s = NewSuggestions()
}

// Visible reports whether the overlay has anything to draw.
func (s *Suggestions) Visible() bool {
	return len(s.Items) > 0 || s.Notice != ""
}

// Next moves the selection down, wrapping.
func (s *Suggestions) Next() {
	if len(s.Items) == 0 {
		return
	}
	s.Selected = (s.Selected + 1) % len(s.Items)
}

// Prev moves the selection up, wrapping.
func (s *Suggestions) Prev() {
	if len(s.Items) == 0 {
		return
	}
	s.Selected = (s.Selected - 1 + len(s.Items)) % len(s.Items)
}

// Current returns the selected candidate.
func (s *Suggestions) Current() (Candidate, bool) {
	if s.Selected < 0 || s.Selected >= len(s.Items) {
		return nil, false
	}
	return s.Items[s.Selected], true
}
