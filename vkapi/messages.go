package vkapi

import (
	"context"
	"encoding/json"
	"fmt"
)

// Deletes messages by conversation message id within a single peer. With deleteForAll, messages are removed for every participant, which is what moderation needs.
//
// Per-message results are returned when the API version provides them; older versions return a bare success value, in which case the result slice is empty.
func MessagesDelete(ctx context.Context, c *Client, groupID, peerID int64, cmids []int64, deleteForAll bool) ([]DeleteResult, error) {
	params := map[string]any{
		"peer_id":                  peerID,
		"conversation_message_ids": cmids,
		"delete_for_all":           deleteForAll,
	}
	if groupID != 0 {
		params["group_id"] = groupID
	}
	var raw json.RawMessage
	if err := c.Do(ctx, "messages.delete", params, &raw); err != nil {
		return nil, err
	}
	var results []DeleteResult
	if err := json.Unmarshal(raw, &results); err != nil {
		// not a list: legacy response shape, and the call itself succeeded
		return nil, nil
	}
	return results, nil
}

type DeleteItemFailure struct {
	PeerID                int64
	ConversationMessageID int64
	Code                  int
	Description           string
}

func (e *DeleteItemFailure) Error() string {
	return fmt.Sprintf("message %d/%d not deleted (%d): %s", e.PeerID, e.ConversationMessageID, e.Code, e.Description)
}

// Returns the first per-message failure, if any.
func FirstDeleteFailure(peerID int64, results []DeleteResult) error {
	for _, r := range results {
		if r.Error != nil {
			return &DeleteItemFailure{
				PeerID:                peerID,
				ConversationMessageID: r.ConversationMessageID,
				Code:                  r.Error.Code,
				Description:           r.Error.Description,
			}
		}
	}
	return nil
}
