package automod

import (
	"strconv"
)

var _ MessageRuleFunc = StickerCooldownRule

// Deletes stickers sent by the same sender within the cooldown window. An accepted sticker message is allowed outright: no other rules run for it.
//
// Messages without a known sender (SenderID 0) are not rate-limited, since they can't be told apart.
//
// NOTE: the short-circuit means a sticker message with banned text or a banned repost is still allowed. This is existing behavior, pending a product decision.
func StickerCooldownRule(c *MessageContext) (Decision, bool) {
	if !c.Message.HasSticker() {
		return Decision{}, false
	}
	// unknown sender: no bucket to charge, so the remaining rules decide
	if c.Message.SenderID == 0 {
		c.Logger.Debug("sticker from unknown sender, skipping cooldown")
		return Decision{}, false
	}
	accepted, ok := c.RecordSticker()
	if !ok {
		return Decision{}, false
	}
	if !accepted {
		return Delete(c.Message, RuleStickerCooldown), true
	}
	return Allow(RuleStickerAllowed), true
}

var _ MessageRuleFunc = BannedPatternRule

func BannedPatternRule(c *MessageContext) (Decision, bool) {
	if pattern, ok := c.MatchesBannedPattern(); ok {
		c.Logger.Info("banned pattern matched", "pattern", pattern)
		return Delete(c.Message, RuleBannedPattern), true
	}
	return Decision{}, false
}

var _ MessageRuleFunc = BannedRepostRule

func BannedRepostRule(c *MessageContext) (Decision, bool) {
	for _, att := range c.Message.Attachments {
		if att.Kind != AttachmentWall {
			continue
		}
		if c.InSet(BannedRepostSet, strconv.FormatInt(att.RepostSourceID, 10)) {
			c.Logger.Info("banned repost source", "source", att.RepostSourceID)
			return Delete(c.Message, RuleBannedRepost), true
		}
	}
	return Decision{}, false
}
