// Auto-moderation rules engine for a single VK community chat.
//
// This package (`github.com/vkmod/vkmod/automod`) contains a small "rules engine" which classifies each new chat message as allowed or to-be-deleted. Rules are evaluated in a fixed order and the first rule to reach a decision wins: an optional per-sender sticker cooldown, banned text patterns, and banned repost sources. The only state kept between messages is the per-sender sticker cooldown, held in a `cooldownstore.CooldownStore`.
//
// The engine is fed by `automod/consumer`, and deletions are carried out by an `ActionSink` (see `vkapi.MessageDeleter`). See `cmd/vkmod` for a daemon built on this package.
package automod
