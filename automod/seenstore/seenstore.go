package seenstore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type SeenStore interface {
	// Marks the key as seen, and reports whether it had already been seen.
	CheckAndMark(ctx context.Context, key string) (bool, error)
}

type MemSeenStore struct {
	Data *expirable.LRU[string, struct{}]
}

var _ SeenStore = (*MemSeenStore)(nil)

func NewMemSeenStore(capacity int, ttl time.Duration) *MemSeenStore {
	return &MemSeenStore{
		Data: expirable.NewLRU[string, struct{}](capacity, nil, ttl),
	}
}

func (s *MemSeenStore) CheckAndMark(ctx context.Context, key string) (bool, error) {
	if _, ok := s.Data.Get(key); ok {
		return true, nil
	}
	s.Data.Add(key, struct{}{})
	return false, nil
}
