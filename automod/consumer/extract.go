package consumer

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vkmod/vkmod/automod"
	"github.com/vkmod/vkmod/vkapi"
)

var ErrMalformedEvent = errors.New("malformed event")

// Decodes a message_new event into an engine Message.
func messageFromEvent(evt *vkapi.Event) (*automod.Message, error) {
	if len(evt.Object) == 0 {
		return nil, fmt.Errorf("%w: no object", ErrMalformedEvent)
	}
	var obj vkapi.MessageNewObject
	if err := json.Unmarshal(evt.Object, &obj); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	m := obj.Message
	if m == nil {
		return nil, fmt.Errorf("%w: no message", ErrMalformedEvent)
	}
	if m.PeerID == nil {
		return nil, fmt.Errorf("%w: missing peer_id", ErrMalformedEvent)
	}
	if m.ConversationMessageID == nil {
		return nil, fmt.Errorf("%w: missing conversation_message_id", ErrMalformedEvent)
	}

	var sender int64
	if m.FromID != nil {
		sender = *m.FromID
	}
	var text string
	if m.Text != nil {
		text = *m.Text
	}

	atts := make([]automod.Attachment, 0, len(m.Attachments))
	for _, a := range m.Attachments {
		atts = append(atts, convertAttachment(a))
	}
	return automod.NewMessage(*m.PeerID, sender, *m.ConversationMessageID, text, atts), nil
}

func convertAttachment(a vkapi.Attachment) automod.Attachment {
	switch a.Type {
	case vkapi.AttachmentTypeSticker:
		return automod.StickerAttachment()
	case vkapi.AttachmentTypeWall:
		// a repost we can't attribute is treated like any other attachment
		if a.Wall == nil || a.Wall.FromID == nil {
			return automod.OtherAttachment(a.Type)
		}
		return automod.WallAttachment(*a.Wall.FromID)
	default:
		return automod.OtherAttachment(a.Type)
	}
}
