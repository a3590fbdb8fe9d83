package automod

import (
	"fmt"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type AttachmentKind int

const (
	AttachmentOther AttachmentKind = iota
	AttachmentWall
	AttachmentSticker
)

func (k AttachmentKind) String() string {
	switch k {
	case AttachmentWall:
		return "wall"
	case AttachmentSticker:
		return "sticker"
	default:
		return "other"
	}
}

// Attachment is a tagged variant over the attachment types rules care about. Anything else is kept as AttachmentOther, with the raw type tag preserved for logging.
type Attachment struct {
	Kind AttachmentKind
	// raw attachment type tag from the event payload, eg "photo"
	Type string
	// for AttachmentWall, the id of the account or group the reposted wall post came from (groups are negative)
	RepostSourceID int64
}

func WallAttachment(sourceID int64) Attachment {
	return Attachment{Kind: AttachmentWall, Type: "wall", RepostSourceID: sourceID}
}

func StickerAttachment() Attachment {
	return Attachment{Kind: AttachmentSticker, Type: "sticker"}
}

func OtherAttachment(typ string) Attachment {
	return Attachment{Kind: AttachmentOther, Type: typ}
}

// Immutable once constructed. Rules must not modify a Message.
type Message struct {
	// conversation (or direct thread) the message belongs to
	PeerID int64
	// account which sent the message
	SenderID int64
	// message id, scoped to PeerID
	ConversationMessageID int64
	// lower-cased message body; empty if the payload had no text
	Text        string
	Attachments []Attachment
}

// NewMessage normalizes the message text (Unicode lower-case, including context-dependent rules like Greek final sigma) and copies the attachment slice, so the caller can't mutate the result.
func NewMessage(peerID, senderID, cmid int64, text string, attachments []Attachment) *Message {
	atts := make([]Attachment, len(attachments))
	copy(atts, attachments)
	return &Message{
		PeerID:                peerID,
		SenderID:              senderID,
		ConversationMessageID: cmid,
		Text:                  cases.Lower(language.Und).String(text),
		Attachments:           atts,
	}
}

func (m *Message) HasSticker() bool {
	for _, a := range m.Attachments {
		if a.Kind == AttachmentSticker {
			return true
		}
	}
	return false
}

// identifier used for de-duplication and logging
func (m *Message) Key() string {
	return fmt.Sprintf("%d/%d", m.PeerID, m.ConversationMessageID)
}
