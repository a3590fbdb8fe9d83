package cooldownstore

import (
	"context"
	"time"

	"github.com/puzpuzpuz/xsync/v3"
)

type MemCooldownStore struct {
	Data *xsync.MapOf[int64, time.Time]
}

var _ CooldownStore = (*MemCooldownStore)(nil)

func NewMemCooldownStore() *MemCooldownStore {
	return &MemCooldownStore{
		Data: xsync.NewMapOf[int64, time.Time](),
	}
}

func (s *MemCooldownStore) GetLast(ctx context.Context, senderID int64) (time.Time, bool, error) {
	v, ok := s.Data.Load(senderID)
	return v, ok, nil
}

func (s *MemCooldownStore) SetLast(ctx context.Context, senderID int64, ts time.Time) error {
	s.Data.Store(senderID, ts)
	return nil
}

func (s *MemCooldownStore) TryRecord(ctx context.Context, senderID int64, now time.Time, window time.Duration) (time.Time, bool, error) {
	var last time.Time
	var recorded bool
	s.Data.Compute(senderID, func(old time.Time, loaded bool) (time.Time, bool) {
		if loaded {
			last = old
			if now.Sub(old) < window {
				return old, false
			}
		}
		recorded = true
		return now, false
	})
	return last, recorded, nil
}

// Number of senders with an entry.
func (s *MemCooldownStore) Len() int {
	return s.Data.Size()
}
