// Package api provides a client for the Slack Web API.
package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/slack-go/slack"
)

// Identity is the result of auth.test.
type Identity struct {
	UserID string
	User   string
	TeamID string
	Team   string
	BotID  string
}

// Channel is a conversation the bot can see.
type Channel struct {
	ID         string
	Name       string
	IsPrivate  bool
	IsMember   bool
	NumMembers int
}

// User is a workspace member.
type User struct {
	ID          string
	Name        string
	DisplayName string
	RealName    string
	IsBot       bool
	Deleted     bool
}

// Label returns the name shown next to a user's messages: the profile
// display name, falling back to the account name and then the ID.
func (u User) Label() string {
	switch {
	case u.DisplayName != "":
		return u.DisplayName
	case u.Name != "":
		return u.Name
	}
	return u.ID
}

// UserGroup is a mentionable user group (subteam).
type UserGroup struct {
	ID     string
	Handle string
	Name   string
}

// Scope identifies a message stream: a channel, or one thread in it.
type Scope struct {
	ChannelID string
	ThreadTS  string
}

// IsThread reports whether the scope is a thread.
func (s Scope) IsThread() bool { return s.ThreadTS != "" }

// Key is a stable string form used as a cache key.
func (s Scope) Key() string {
	if s.ThreadTS == "" {
		return s.ChannelID
	}
	return s.ChannelID + "/" + s.ThreadTS
}

// Message is a single channel or thread message.
type Message struct {
	TS         string
	User       string
	BotID      string
	Username   string
	Text       string
	Subtype    string
	ThreadTS   string
	ReplyCount int
	Edited     bool
}

// Time converts the Slack timestamp ("seconds.micros") to a time.
func (m Message) Time() time.Time {
	return ParseTS(m.TS)
}

// IsMembership reports whether the message is a join or leave notice.
func (m Message) IsMembership() bool {
	switch m.Subtype {
	case "channel_join", "channel_leave", "group_join", "group_leave":
		return true
	}
	return false
}

// IsSystem reports whether the message was not written by a person or bot.
func (m Message) IsSystem() bool {
	return m.User == "" && m.BotID == ""
}

// HasThread reports whether the message is the parent of a thread.
func (m Message) HasThread() bool {
	return m.ReplyCount > 0 && (m.ThreadTS == "" || m.ThreadTS == m.TS)
}

// ParseTS converts a Slack timestamp to a time. Malformed input yields the
// zero time.
func ParseTS(ts string) time.Time {
	sec, frac, _ := strings.Cut(ts, ".")
	s, err := strconv.ParseInt(sec, 10, 64)
	if err != nil {
		return time.Time{}
	}
	var us int64
	if frac != "" {
		if len(frac) > 6 {
			frac = frac[:6]
		}
		frac += strings.Repeat("0", 6-len(frac))
		us, _ = strconv.ParseInt(frac, 10, 64)
	}
	return time.Unix(s, us*int64(time.Microsecond))
}

// FormatTS is the inverse of ParseTS at microsecond precision.
func FormatTS(t time.Time) string {
	return fmt.Sprintf("%d.%06d", t.Unix(), t.Nanosecond()/int(time.Microsecond))
}

func fromSlackMessage(m slack.Message) Message {
	return Message{
		TS:         m.Timestamp,
		User:       m.User,
		BotID:      m.BotID,
		Username:   m.Username,
		Text:       m.Text,
		Subtype:    m.SubType,
		ThreadTS:   m.ThreadTimestamp,
		ReplyCount: m.ReplyCount,
		Edited:     m.Edited != nil,
	}
}

func fromSlackUser(u slack.User) User {
	return User{
		ID:          u.ID,
		Name:        u.Name,
		DisplayName: u.Profile.DisplayName,
		RealName:    firstNonEmpty(u.RealName, u.Profile.RealName),
		IsBot:       u.IsBot,
		Deleted:     u.Deleted,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
