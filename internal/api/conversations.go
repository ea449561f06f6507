package api

import (
	"context"

	"github.com/slack-go/slack"
)

// ListChannels returns every public and private channel visible to the
// token, following pagination cursors.
func (c *Client) ListChannels(ctx context.Context) ([]Channel, error) {
	var (
		all    []Channel
		cursor string
	)
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		chs, next, err := c.slack.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor:          cursor,
			ExcludeArchived: true,
			Limit:           pageSize,
			Types:           []string{"public_channel", "private_channel"},
		})
		if err != nil {
			return nil, wrapError("conversations.list", err)
		}
		for _, ch := range chs {
			all = append(all, fromSlackChannel(ch))
		}
		if next == "" {
			return all, nil
		}
		cursor = next
	}
}

// ChannelInfo returns a single channel by ID.
func (c *Client) ChannelInfo(ctx context.Context, channelID string) (*Channel, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	ch, err := c.slack.GetConversationInfoContext(ctx, &slack.GetConversationInfoInput{
		ChannelID: channelID,
	})
	if err != nil {
		return nil, wrapError("conversations.info", err)
	}
	out := fromSlackChannel(*ch)
	return &out, nil
}

// ChannelMembers returns the user IDs of a channel's members.
func (c *Client) ChannelMembers(ctx context.Context, channelID string) ([]string, error) {
	var (
		ids    []string
		cursor string
	)
	for {
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		page, next, err := c.slack.GetUsersInConversationContext(ctx, &slack.GetUsersInConversationParameters{
			ChannelID: channelID,
			Cursor:    cursor,
			Limit:     pageSize,
		})
		if err != nil {
			return nil, wrapError("conversations.members", err)
		}
		ids = append(ids, page...)
		if next == "" {
			return ids, nil
		}
		cursor = next
	}
}

func fromSlackChannel(ch slack.Channel) Channel {
	return Channel{
		ID:         ch.ID,
		Name:       ch.Name,
		IsPrivate:  ch.IsPrivate,
		IsMember:   ch.IsMember,
		NumMembers: ch.NumMembers,
	}
}
