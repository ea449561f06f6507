package api

import (
	"context"
)

// ListUsers returns all workspace members. slack-go follows the cursor.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	users, err := c.slack.GetUsersContext(ctx)
	if err != nil {
		return nil, wrapError("users.list", err)
	}
	out := make([]User, 0, len(users))
	for _, u := range users {
		out = append(out, fromSlackUser(u))
	}
	return out, nil
}

// UserInfo returns a single user by ID.
func (c *Client) UserInfo(ctx context.Context, userID string) (*User, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	u, err := c.slack.GetUserInfoContext(ctx, userID)
	if err != nil {
		return nil, wrapError("users.info", err)
	}
	out := fromSlackUser(*u)
	return &out, nil
}

// ListUserGroups returns the workspace's user groups.
func (c *Client) ListUserGroups(ctx context.Context) ([]UserGroup, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}
	groups, err := c.slack.GetUserGroupsContext(ctx)
	if err != nil {
		return nil, wrapError("usergroups.list", err)
	}
	out := make([]UserGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, UserGroup{ID: g.ID, Handle: g.Handle, Name: g.Name})
	}
	return out, nil
}
