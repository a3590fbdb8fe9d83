package automod

import (
	"context"
	"log/slog"
)

// The interface exposed to rules for a single message.
type MessageContext struct {
	// Actual golang "context.Context", if needed for timeouts etc
	Ctx context.Context
	// slog logger handle, with message-specific structured fields pre-populated. Pointer, but expected to never be nil.
	Logger *slog.Logger
	// Pointer, but expected to never be nil. Rules must not modify the message.
	Message *Message

	engine *Engine // NOTE: pointer, but expected never to be nil
}

// Reports whether any banned pattern matches anywhere in the message text.
func (c *MessageContext) MatchesBannedPattern() (string, bool) {
	for _, re := range c.engine.Patterns {
		if re.MatchString(c.Message.Text) {
			return re.String(), true
		}
	}
	return "", false
}

// checks if `val` is an element of set `name`. Lookup errors are logged, and treated as "not in set".
func (c *MessageContext) InSet(name, val string) bool {
	ok, err := c.engine.Sets.InSet(c.Ctx, name, val)
	if err != nil {
		c.Logger.Error("failed to check set membership", "name", name, "err", err)
		messageErrorCount.WithLabelValues("set").Inc()
		return false
	}
	return ok
}

// Attempts to record a sticker for the message sender. Returns true if the sender is outside their cooldown window (and the new time was recorded), false if the sticker arrived too early.
//
// The second return value is false if the cooldown store failed, in which case no decision should be made.
func (c *MessageContext) RecordSticker() (bool, bool) {
	now := c.engine.now()
	last, recorded, err := c.engine.Cooldowns.TryRecord(c.Ctx, c.Message.SenderID, now, c.engine.StickerCooldown)
	if err != nil {
		c.Logger.Error("failed to update sticker cooldown", "err", err)
		messageErrorCount.WithLabelValues("cooldown").Inc()
		return false, false
	}
	if !recorded {
		c.Logger.Info("sticker inside cooldown window", "elapsed", now.Sub(last), "window", c.engine.StickerCooldown)
	}
	return recorded, true
}
