package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/vkmod/vkmod/automod"
	"github.com/vkmod/vkmod/automod/seenstore"
	"github.com/vkmod/vkmod/vkapi"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("vkmod/consumer")

// Ordered, blocking stream of community events. Implemented by longpoll.Source.
type EventSource interface {
	Next(ctx context.Context) (*vkapi.Event, error)
}

// Pulls events one at a time from the source and feeds new messages through the engine, in delivery order.
type LongPollConsumer struct {
	Logger *slog.Logger
	Engine *automod.Engine
	Source EventSource
	// optional; if set, messages which were already handled are skipped
	Seen seenstore.SeenStore
}

// Runs until the context is cancelled (returns nil) or the source fails (returns the wrapped source error).
func (lc *LongPollConsumer) Run(ctx context.Context) error {

	if lc.Engine == nil {
		return fmt.Errorf("nil engine")
	}
	if lc.Source == nil {
		return fmt.Errorf("nil event source")
	}
	if lc.Logger == nil {
		lc.Logger = slog.Default()
	}

	lc.Logger.Info("consuming community events")
	for {
		evt, err := lc.Source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil && errors.Is(err, ctx.Err()) {
				lc.Logger.Info("event consumer shutting down")
				return nil
			}
			return fmt.Errorf("reading community events: %w", err)
		}
		lc.HandleEvent(ctx, evt)
	}
}

// Handles a single event. Never fails: malformed events are logged and skipped.
func (lc *LongPollConsumer) HandleEvent(ctx context.Context, evt *vkapi.Event) {
	eventsReceived.WithLabelValues(evt.Type).Inc()

	ctx, span := tracer.Start(ctx, "HandleEvent")
	defer span.End()
	span.SetAttributes(attribute.String("type", evt.Type), attribute.String("event_id", evt.EventID))

	logger := lc.Logger.With("event", evt.Type, "eventID", evt.EventID)

	if evt.Type != vkapi.EventMessageNew {
		logger.Debug("ignoring event")
		return
	}

	msg, err := messageFromEvent(evt)
	if err != nil {
		eventsMalformed.WithLabelValues(evt.Type).Inc()
		logger.Warn("skipping malformed event", "err", err)
		return
	}
	span.SetAttributes(attribute.Int64("peer", msg.PeerID), attribute.Int64("cmid", msg.ConversationMessageID))

	if lc.Seen != nil {
		seen, err := lc.Seen.CheckAndMark(ctx, msg.Key())
		if err != nil {
			// evaluating twice is better than dropping the message
			logger.Error("checking seen-message cache", "err", err)
		} else if seen {
			eventsDuplicate.Inc()
			logger.Debug("skipping already handled message", "message", msg.Key())
			return
		}
	}

	dec := lc.Engine.ProcessMessage(ctx, msg)
	span.SetAttributes(attribute.String("action", dec.Action.String()), attribute.String("rule", dec.Rule))
}
