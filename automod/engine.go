package automod

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/vkmod/vkmod/automod/cooldownstore"
	"github.com/vkmod/vkmod/automod/setstore"
)

// minimum time between two accepted stickers from the same sender
var DefaultStickerCooldown = 60 * time.Second

// Startup configuration for an Engine. Immutable once the engine is built.
type Config struct {
	Logger *slog.Logger
	// regular expressions (RE2 syntax), matched case-insensitively anywhere in the message text
	BannedPatterns []string
	// positive group ids; reposts from these groups are deleted
	BannedRepostGroups []int64
	// enables the sticker cooldown rule, which also short-circuits every other rule for sticker messages
	EnableStickerCooldown bool
	// defaults to DefaultStickerCooldown if zero
	StickerCooldown time.Duration
	// defaults to an in-process store if nil
	Cooldowns cooldownstore.CooldownStore
	Sink      ActionSink
}

// runtime for executing rules and carrying out moderation actions.
//
// Use NewEngine to construct: compiled patterns and sets must be populated before the first message.
type Engine struct {
	Logger          *slog.Logger
	Rules           RuleSet
	Patterns        []*regexp.Regexp
	Sets            setstore.SetStore
	Cooldowns       cooldownstore.CooldownStore
	StickerCooldown time.Duration
	Sink            ActionSink
	// returns the current time; overridden in tests
	Clock func() time.Time
}

func NewEngine(config Config) (*Engine, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	patterns, err := CompilePatterns(config.BannedPatterns)
	if err != nil {
		return nil, err
	}

	sets := setstore.NewMemSetStore()
	for _, gid := range config.BannedRepostGroups {
		if gid == 0 {
			return nil, fmt.Errorf("invalid banned repost group id: 0")
		}
		sets.Add(BannedRepostSet, NormalizeGroupID(gid))
	}

	cooldowns := config.Cooldowns
	if cooldowns == nil {
		cooldowns = cooldownstore.NewMemCooldownStore()
	}

	window := config.StickerCooldown
	if window <= 0 {
		window = DefaultStickerCooldown
	}

	eng := Engine{
		Logger:          logger,
		Rules:           DefaultRules(config.EnableStickerCooldown),
		Patterns:        patterns,
		Sets:            sets,
		Cooldowns:       cooldowns,
		StickerCooldown: window,
		Sink:            config.Sink,
		Clock:           time.Now,
	}
	return &eng, nil
}

// Runs the rules against a single message and returns the decision. Does not carry out the decision.
//
// Evaluation is deterministic for a given message, except for cooldown state, which is updated when a sticker is accepted.
func (eng *Engine) Evaluate(ctx context.Context, msg *Message) Decision {
	c := &MessageContext{
		Ctx:     ctx,
		Logger:  eng.Logger.With("peer", msg.PeerID, "sender", msg.SenderID, "cmid", msg.ConversationMessageID),
		Message: msg,
		engine:  eng,
	}
	return eng.Rules.Call(c)
}

// Evaluates the message and, for a delete decision, invokes the action sink. Failures are logged and counted here; nothing is returned to the caller besides the decision.
func (eng *Engine) ProcessMessage(ctx context.Context, msg *Message) (dec Decision) {
	start := time.Now()
	logger := eng.Logger.With("peer", msg.PeerID, "sender", msg.SenderID, "cmid", msg.ConversationMessageID)

	// similar to an HTTP server, we want to recover any panics from rule execution
	defer func() {
		if r := recover(); r != nil {
			logger.Error("automod message execution exception", "err", r)
			messageErrorCount.WithLabelValues("panic").Inc()
			dec = Allow("")
		}
		messageProcessDuration.Observe(time.Since(start).Seconds())
	}()

	dec = eng.Evaluate(ctx, msg)
	messageDecisionCount.WithLabelValues(dec.Action.String(), dec.Rule).Inc()

	if !dec.IsDelete() {
		logger.Debug("message allowed", "rule", dec.Rule)
		return dec
	}

	if eng.Sink == nil {
		logger.Warn("no action sink configured, not deleting message", "rule", dec.Rule)
		return dec
	}

	if err := eng.Sink.DeleteMessage(ctx, dec.PeerID, dec.ConversationMessageID); err != nil {
		deletionCount.WithLabelValues("error").Inc()
		logger.Error("failed to delete message", "rule", dec.Rule, "err", err)
		return dec
	}
	deletionCount.WithLabelValues("ok").Inc()
	logger.Info("deleted message", "rule", dec.Rule, "duration", time.Since(start))
	return dec
}

func (eng *Engine) now() time.Time {
	if eng.Clock == nil {
		return time.Now()
	}
	return eng.Clock()
}
