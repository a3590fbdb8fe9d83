package vkapi

import (
	"context"
)

// Fetches the Bots Long Poll server address, session key, and current cursor for a community.
func GroupsGetLongPollServer(ctx context.Context, c *Client, groupID int64) (*LongPollServer, error) {
	var out LongPollServer
	params := map[string]any{
		"group_id": groupID,
	}
	if err := c.Do(ctx, "groups.getLongPollServer", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
