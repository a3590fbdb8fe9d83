package automod

import (
	"context"
	"log/slog"
)

// Carries out deletion decisions. Implementations report failure through the returned error, which the engine logs and absorbs.
type ActionSink interface {
	DeleteMessage(ctx context.Context, peerID, conversationMessageID int64) error
}

// Read-only sink: logs what would have been deleted.
type LogSink struct {
	Logger *slog.Logger
}

var _ ActionSink = (*LogSink)(nil)

func (s *LogSink) DeleteMessage(ctx context.Context, peerID, conversationMessageID int64) error {
	s.Logger.Info("readonly mode, skipping message deletion", "peer", peerID, "cmid", conversationMessageID)
	return nil
}
