package styles

import "github.com/charmbracelet/lipgloss"

var (
	// PromptMarker is the style for the "> " prompt.
	PromptMarker = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFCC00")).
			Bold(true)

	// PromptLabel is the heading above a prompt, e.g. the channel picker.
	PromptLabel = lipgloss.NewStyle().
			Foreground(Highlight).
			Bold(true)

	// SuggestionHeader is the first row of the overlay.
	SuggestionHeader = lipgloss.NewStyle().
				Foreground(Subtle).
				Underline(true)

	// Suggestion is the style for autocomplete suggestions.
	Suggestion = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	// SuggestionSelected is the style for the selected autocomplete suggestion.
	SuggestionSelected = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#FFFFFF")).
				Background(lipgloss.Color("#444444"))

	// SuggestionNotice is shown when a lookup produced nothing.
	SuggestionNotice = lipgloss.NewStyle().
				Foreground(WarningColor).
				Italic(true)
)
