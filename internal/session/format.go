package session

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/hy4ri/slack-tui/internal/api"
	"github.com/hy4ri/slack-tui/internal/tui/styles"
)

const (
	// LongTime is used for messages from before today and by the history
	// command.
	LongTime = "2006-01-02 15:04:05"
	// ShortTime is used for today's messages in the chat view.
	ShortTime = "15:04:05"

	systemName = "System"
)

// Names resolves IDs into names for display.
type Names interface {
	UserName(ctx context.Context, id string) string
	ChannelName(ctx context.Context, id string) string
}

// Formatter turns messages into terminal lines.
type Formatter struct {
	Names  Names
	SelfID string
	Loc    *time.Location
	Now    func() time.Time
	// Long forces LongTime for every message.
	Long bool
}

// refPattern matches Slack's <...> references: <@U1>, <#C1|name>,
// <!here>, <!subteam^S1|@team>, <https://x|label>.
var refPattern = regexp.MustCompile(`<([^<>|]+)(?:\|([^<>]*))?>`)

var unescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&amp;", "&")

// Text renders a message body with references replaced by readable names.
func (f Formatter) Text(ctx context.Context, raw string) string {
	out := refPattern.ReplaceAllStringFunc(raw, func(ref string) string {
		m := refPattern.FindStringSubmatch(ref)
		target, label := m[1], m[2]
		switch {
		case strings.HasPrefix(target, "@"):
			id := target[1:]
			name := label
			if name == "" && f.Names != nil {
				name = f.Names.UserName(ctx, id)
			}
			if name == "" {
				name = id
			}
			s := "@" + strings.TrimPrefix(name, "@")
			if id == f.SelfID {
				return styles.MessageMention.Render(s)
			}
			return s
		case strings.HasPrefix(target, "#"):
			id := target[1:]
			name := label
			if name == "" && f.Names != nil {
				name = f.Names.ChannelName(ctx, id)
			}
			if name == "" {
				name = id
			}
			return "#" + name
		case strings.HasPrefix(target, "!subteam^"):
			if label != "" {
				return "@" + strings.TrimPrefix(label, "@")
			}
			return "@" + strings.TrimPrefix(target, "!subteam^")
		case strings.HasPrefix(target, "!"):
			name, _, _ := strings.Cut(target[1:], "^")
			return styles.MessageMention.Render("@" + name)
		case label != "":
			return label
		}
		return target
	})
	return unescaper.Replace(out)
}

// Author returns the display name of a message's sender.
func (f Formatter) Author(ctx context.Context, m api.Message) string {
	switch {
	case m.User != "":
		if f.Names != nil {
			if n := f.Names.UserName(ctx, m.User); n != "" {
				return n
			}
		}
		return m.User
	case m.Username != "":
		return m.Username
	case m.BotID != "":
		return m.BotID
	}
	return systemName
}

func (f Formatter) stamp(m api.Message) string {
	loc := f.Loc
	if loc == nil {
		loc = time.Local
	}
	t := m.Time().In(loc)
	if f.Long || f.Now == nil {
		return t.Format(LongTime)
	}
	now := f.Now().In(loc)
	if y, mo, d := now.Date(); t.Year() == y && t.Month() == mo && t.Day() == d {
		return t.Format(ShortTime)
	}
	return t.Format(LongTime)
}

// Line formats one message as "[time] name: text". n > 0 prefixes the
// message number used by commands.
func (f Formatter) Line(ctx context.Context, n int, m api.Message) string {
	var b strings.Builder
	if n > 0 {
		b.WriteString(styles.MessageIndex.Render(fmt.Sprintf("%3d", n)))
		b.WriteByte(' ')
	}
	b.WriteString(styles.MessageTime.Render("[" + f.stamp(m) + "]"))
	b.WriteByte(' ')

	if m.Subtype == deletedSubtype {
		b.WriteString(styles.MessageMeta.Render("(deleted)"))
		return b.String()
	}

	author := f.Author(ctx, m)
	switch {
	case author == systemName:
		b.WriteString(styles.MessageSystem.Render(author))
	case m.User != "" && m.User == f.SelfID:
		b.WriteString(styles.MessageSelf.Render(author))
	default:
		b.WriteString(styles.MessageAuthor.Render(author))
	}
	b.WriteString(": ")

	text := f.Text(ctx, m.Text)
	b.WriteString(strings.ReplaceAll(text, "\n", "\n    "))

	var meta []string
	if m.Edited {
		meta = append(meta, "edited")
	}
	if m.HasThread() {
		meta = append(meta, fmt.Sprintf("%d replies", m.ReplyCount))
	}
	if len(meta) > 0 {
		b.WriteString(" ")
		b.WriteString(styles.MessageMeta.Render("(" + strings.Join(meta, ", ") + ")"))
	}
	return b.String()
}

// MentionsUser reports whether text pings userID directly or through a
// broadcast mention.
func MentionsUser(text, userID string) bool {
	if userID != "" && (strings.Contains(text, "<@"+userID+">") || strings.Contains(text, "<@"+userID+"|")) {
		return true
	}
	for _, b := range []string{"<!here", "<!channel", "<!everyone"} {
		if strings.Contains(text, b) {
			return true
		}
	}
	return false
}
