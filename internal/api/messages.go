package api

import (
	"context"
	"slices"

	"github.com/slack-go/slack"
)

// FetchMessages returns up to limit messages of a scope, oldest first. When
// oldest is set only messages newer than it are returned.
func (c *Client) FetchMessages(ctx context.Context, scope Scope, oldest string, limit int) ([]Message, error) {
	if limit <= 0 {
		limit = pageSize
	}
	if scope.IsThread() {
		return c.fetchReplies(ctx, scope, oldest, limit)
	}

	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.slack.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: scope.ChannelID,
		Oldest:    oldest,
		Limit:     limit,
	})
	if err != nil {
		return nil, wrapError("conversations.history", err)
	}

	msgs := make([]Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		msgs = append(msgs, fromSlackMessage(m))
	}
	// History comes newest first.
	slices.Reverse(msgs)
	return newerThan(msgs, oldest), nil
}

func (c *Client) fetchReplies(ctx context.Context, scope Scope, oldest string, limit int) ([]Message, error) {
	var (
		msgs   []Message
		cursor string
	)
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, hasMore, next, err := c.slack.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
			ChannelID: scope.ChannelID,
			Timestamp: scope.ThreadTS,
			Cursor:    cursor,
			Oldest:    oldest,
			Limit:     pageSize,
		})
		if err != nil {
			return nil, wrapError("conversations.replies", err)
		}
		for _, m := range page {
			msgs = append(msgs, fromSlackMessage(m))
		}
		if !hasMore || next == "" {
			break
		}
		cursor = next
	}

	// The parent is always included; drop it on incremental fetches.
	msgs = newerThan(msgs, oldest)
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// SendMessage posts text to the scope and returns the stored message.
func (c *Client) SendMessage(ctx context.Context, scope Scope, text string) (Message, error) {
	if err := c.wait(ctx); err != nil {
		return Message{}, err
	}
	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if scope.IsThread() {
		opts = append(opts, slack.MsgOptionTS(scope.ThreadTS))
	}
	_, ts, err := c.slack.PostMessageContext(ctx, scope.ChannelID, opts...)
	if err != nil {
		return Message{}, wrapError("chat.postMessage", err)
	}
	return Message{TS: ts, Text: text, ThreadTS: scope.ThreadTS}, nil
}

// UpdateMessage replaces the text of a message.
func (c *Client) UpdateMessage(ctx context.Context, channelID, ts, text string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	_, _, _, err := c.slack.UpdateMessageContext(ctx, channelID, ts, slack.MsgOptionText(text, false))
	if err != nil {
		return wrapError("chat.update", err)
	}
	return nil
}

// DeleteMessage removes a message.
func (c *Client) DeleteMessage(ctx context.Context, channelID, ts string) error {
	if err := c.wait(ctx); err != nil {
		return err
	}
	if _, _, err := c.slack.DeleteMessageContext(ctx, channelID, ts); err != nil {
		return wrapError("chat.delete", err)
	}
	return nil
}

func newerThan(msgs []Message, oldest string) []Message {
	if oldest == "" {
		return msgs
	}
	cut := ParseTS(oldest)
	out := msgs[:0]
	for _, m := range msgs {
		if m.Time().After(cut) {
			out = append(out, m)
		}
	}
	return out
}
