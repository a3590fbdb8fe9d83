package automod

import (
	"fmt"
)

type Action int

const (
	ActionAllow Action = iota
	ActionDelete
)

func (a Action) String() string {
	switch a {
	case ActionDelete:
		return "delete"
	default:
		return "allow"
	}
}

const (
	RuleStickerCooldown = "sticker-cooldown"
	RuleStickerAllowed  = "sticker-allowed"
	RuleBannedPattern   = "banned-pattern"
	RuleBannedRepost    = "banned-repost"
)

// Outcome of evaluating a single message. PeerID and ConversationMessageID are only meaningful for ActionDelete.
type Decision struct {
	Action                Action
	PeerID                int64
	ConversationMessageID int64
	// name of the rule which reached this decision; empty for the default allow
	Rule string
}

func Allow(rule string) Decision {
	return Decision{Action: ActionAllow, Rule: rule}
}

func Delete(msg *Message, rule string) Decision {
	return Decision{
		Action:                ActionDelete,
		PeerID:                msg.PeerID,
		ConversationMessageID: msg.ConversationMessageID,
		Rule:                  rule,
	}
}

func (d Decision) IsDelete() bool {
	return d.Action == ActionDelete
}

func (d Decision) String() string {
	if d.Action == ActionDelete {
		return fmt.Sprintf("delete(%d/%d, %s)", d.PeerID, d.ConversationMessageID, d.Rule)
	}
	if d.Rule == "" {
		return "allow"
	}
	return fmt.Sprintf("allow(%s)", d.Rule)
}
