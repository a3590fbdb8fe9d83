package cooldownstore

import (
	"context"
	"time"
)

// Tracks, per sender, the last time an event of interest (eg, a sticker) was accepted.
//
// There is no eviction: entries live for the lifetime of the store.
type CooldownStore interface {
	// Returns the last recorded time for the sender, and false if there is none.
	GetLast(ctx context.Context, senderID int64) (time.Time, bool, error)
	SetLast(ctx context.Context, senderID int64, ts time.Time) error
	// Atomically checks and updates the sender's entry. If the sender has no entry, or at least `window` has elapsed since the last one, `now` is stored and recorded is true. Otherwise the entry is left untouched and recorded is false. `last` is the previous entry (zero if none).
	TryRecord(ctx context.Context, senderID int64, now time.Time, window time.Duration) (last time.Time, recorded bool, err error)
}
