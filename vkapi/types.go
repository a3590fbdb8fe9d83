package vkapi

import (
	"bytes"
	"encoding/json"
)

const (
	EventMessageNew   = "message_new"
	EventMessageEdit  = "message_edit"
	EventMessageReply = "message_reply"
)

// One update from the Bots Long Poll stream. The object payload depends on Type, and is decoded lazily.
type Event struct {
	Type    string          `json:"type"`
	EventID string          `json:"event_id,omitempty"`
	GroupID int64           `json:"group_id"`
	Version string          `json:"v,omitempty"`
	Object  json.RawMessage `json:"object"`
}

// Object of a "message_new" event.
type MessageNewObject struct {
	Message *Message `json:"message"`
}

// Chat message, as delivered in events. Pointer fields are optional in the payload; callers need to tell missing apart from zero.
type Message struct {
	ID                    int64        `json:"id"`
	Date                  int64        `json:"date"`
	PeerID                *int64       `json:"peer_id"`
	FromID                *int64       `json:"from_id"`
	ConversationMessageID *int64       `json:"conversation_message_id"`
	Text                  *string      `json:"text"`
	Attachments           []Attachment `json:"attachments,omitempty"`
}

const (
	AttachmentTypeWall    = "wall"
	AttachmentTypeSticker = "sticker"
)

// Attachment envelope. Only the variants moderation looks at are decoded; others keep just their type tag.
type Attachment struct {
	Type    string    `json:"type"`
	Wall    *WallPost `json:"wall,omitempty"`
	Sticker *Sticker  `json:"sticker,omitempty"`
}

// Reposted wall post. FromID is the author: negative for groups.
type WallPost struct {
	ID      int64  `json:"id"`
	OwnerID int64  `json:"owner_id"`
	FromID  *int64 `json:"from_id"`
	Text    string `json:"text,omitempty"`
}

type Sticker struct {
	ProductID int64 `json:"product_id"`
	StickerID int64 `json:"sticker_id"`
}

// Opaque long poll cursor. The API sends it either as a string or a number, depending on the endpoint.
type Cursor string

func (c *Cursor) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Cursor(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*c = Cursor(n.String())
	return nil
}

// Result of groups.getLongPollServer.
type LongPollServer struct {
	Key    string `json:"key"`
	Server string `json:"server"`
	TS     Cursor `json:"ts"`
}

// Per-message result of messages.delete when deleting by conversation message id.
type DeleteResult struct {
	PeerID                int64            `json:"peer_id"`
	MessageID             int64            `json:"message_id"`
	ConversationMessageID int64            `json:"conversation_message_id"`
	Response              int              `json:"response"`
	Error                 *DeleteItemError `json:"error,omitempty"`
}

type DeleteItemError struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}
