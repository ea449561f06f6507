package state

import "fmt"

// ContextType is the kind of completion context around the cursor.
type ContextType int

const (
	ContextNone ContextType = iota
	ContextCommand
	ContextChannel
	ContextMention
)

func (t ContextType) String() string {
	switch t {
	case ContextCommand:
		return "command"
	case ContextChannel:
		return "channel"
	case ContextMention:
		return "mention"
	default:
		return "none"
	}
}

// PromptMode selects how the prompt interprets its buffer.
type PromptMode int

const (
	// ModeMessage is the normal compose prompt.
	ModeMessage PromptMode = iota
	// ModeChannelSwitch treats the whole buffer as a channel query.
	ModeChannelSwitch
)

// Candidate is one autocomplete suggestion. The set of implementations is
// closed: Command, ChannelRef, UserMention, SpecialMention and GroupMention.
type Candidate interface {
	// Label is the overlay text.
	Label() string
	// Token is what the candidate materializes to in the buffer.
	Token() string
	isCandidate()
}

// Command is a slash command. Name carries no leading slash.
type Command struct {
	Name        string
	Aliases     []string
	Description string
}

func (c Command) Label() string {
	if c.Description == "" {
		return "/" + c.Name
	}
	return fmt.Sprintf("/%-10s %s", c.Name, c.Description)
}

func (c Command) Token() string { return "/" + c.Name }
func (Command) isCandidate()    {}

// ChannelRef is a conversation.
type ChannelRef struct {
	ID        string
	Name      string
	IsPrivate bool
}

func (c ChannelRef) Label() string {
	if c.IsPrivate {
		return "🔒" + c.Name
	}
	return "#" + c.Name
}

func (c ChannelRef) Token() string { return "<#" + c.ID + ">" }
func (ChannelRef) isCandidate()    {}

// UserMention is a workspace member.
type UserMention struct {
	ID          string
	DisplayName string
	RealName    string
}

func (u UserMention) Label() string {
	name := u.DisplayName
	if name == "" {
		name = u.RealName
	}
	if u.RealName != "" && u.RealName != name {
		return fmt.Sprintf("@%s (%s)", name, u.RealName)
	}
	return "@" + name
}

func (u UserMention) Token() string { return "<@" + u.ID + ">" }
func (UserMention) isCandidate()    {}

// Broadcast mentions.
const (
	SpecialChannel  = "channel"
	SpecialHere     = "here"
	SpecialEveryone = "everyone"
)

// SpecialMention is @channel, @here or @everyone.
type SpecialMention struct {
	ID string
}

func (s SpecialMention) Label() string { return "@" + s.ID }
func (s SpecialMention) Token() string { return "<!" + s.ID + ">" }
func (SpecialMention) isCandidate()    {}

// GroupMention is a user group.
type GroupMention struct {
	ID     string
	Handle string
}

func (g GroupMention) Label() string { return "@" + g.Handle }
func (g GroupMention) Token() string { return "<!subteam^" + g.ID + ">" }
func (GroupMention) isCandidate()    {}
