// Package styles provides Lip Gloss styles for the TUI.
//
// Styles never set margins, padding or borders: every styled string must stay
// on one row with the same width as its plain text, because the prompt
// renderer counts columns on the unstyled text.
package styles

import "github.com/charmbracelet/lipgloss"

// Terminal-adaptive colors that work in both light and dark terminals.
var (
	// Subtle is a muted color for secondary text
	Subtle = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"}

	// Highlight is the accent color for selected items
	Highlight = lipgloss.AdaptiveColor{Light: "#874BFD", Dark: "#B48EFF"}

	// Special colors
	ErrorColor   = lipgloss.AdaptiveColor{Light: "#FF0000", Dark: "#FF6666"}
	SuccessColor = lipgloss.AdaptiveColor{Light: "#00AA00", Dark: "#66FF66"}
	WarningColor = lipgloss.AdaptiveColor{Light: "#FFAA00", Dark: "#FFCC66"}
)

// Base styles
var (
	// Title is the style for section titles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Highlight)

	// Subtitle is for secondary headings
	Subtitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(Subtle)

	// ErrorText is for error lines printed between prompts
	ErrorText = lipgloss.NewStyle().
			Foreground(ErrorColor)

	// SuccessText is for confirmations
	SuccessText = lipgloss.NewStyle().
			Foreground(SuccessColor)

	// HintText is for remediation hints
	HintText = lipgloss.NewStyle().
			Foreground(WarningColor)
)

// Message styles
var (
	// MessageIndex is the [n] number shown before each message
	MessageIndex = lipgloss.NewStyle().
			Foreground(Subtle)

	// MessageTime is the timestamp
	MessageTime = lipgloss.NewStyle().
			Foreground(Subtle)

	// MessageAuthor is the sender name
	MessageAuthor = lipgloss.NewStyle().
			Bold(true)

	// MessageSelf is the sender name for our own messages
	MessageSelf = lipgloss.NewStyle().
			Bold(true).
			Foreground(Highlight)

	// MessageSystem is for join/leave and other system lines
	MessageSystem = lipgloss.NewStyle().
			Faint(true)

	// MessageMention marks a message that mentions the current user
	MessageMention = lipgloss.NewStyle().
			Foreground(WarningColor)

	// MessageMeta is for "(edited)" and reply counts
	MessageMeta = lipgloss.NewStyle().
			Foreground(Subtle).
			Italic(true)
)

// Channel list styles
var (
	ChannelMember = lipgloss.NewStyle().
			Foreground(SuccessColor)

	ChannelName = lipgloss.NewStyle()

	ChannelID = lipgloss.NewStyle().
			Foreground(Subtle)
)

// Help styles
var (
	// HelpKey is for keyboard shortcuts
	HelpKey = lipgloss.NewStyle().
		Foreground(Highlight).
		Bold(true)

	// HelpDesc is for help descriptions
	HelpDesc = lipgloss.NewStyle().
			Foreground(Subtle)
)
