package automod

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Action sink which records every deletion request, and optionally fails them. Useful for tests.
type CaptureSink struct {
	mu      sync.Mutex
	Deleted []Decision
	// if set, returned from every DeleteMessage call (the request is still captured)
	Err error
}

var _ ActionSink = (*CaptureSink)(nil)

func (s *CaptureSink) DeleteMessage(ctx context.Context, peerID, conversationMessageID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Deleted = append(s.Deleted, Decision{
		Action:                ActionDelete,
		PeerID:                peerID,
		ConversationMessageID: conversationMessageID,
	})
	return s.Err
}

func (s *CaptureSink) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Deleted)
}

// Manually advanced clock for cooldown tests.
type TestClock struct {
	mu sync.Mutex
	T  time.Time
}

func (c *TestClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.T
}

func (c *TestClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.T = c.T.Add(d)
}

// Engine with the pattern "spam" and repost group 100 banned, a capture sink, and a test clock. Logs are discarded.
func EngineTestFixture(stickerCooldown bool) (*Engine, *CaptureSink, *TestClock) {
	sink := &CaptureSink{}
	eng, err := NewEngine(Config{
		Logger:                slog.New(slog.NewTextHandler(io.Discard, nil)),
		BannedPatterns:        []string{"spam", `free\s+money`},
		BannedRepostGroups:    []int64{100},
		EnableStickerCooldown: stickerCooldown,
		Sink:                  sink,
	})
	if err != nil {
		panic(err)
	}
	clock := &TestClock{T: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	eng.Clock = clock.Now
	return eng, sink, clock
}
