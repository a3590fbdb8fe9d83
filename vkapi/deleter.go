package vkapi

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
)

var (
	DefaultDeleteAttempts  = 3
	DefaultDeleteRetryWait = 500 * time.Millisecond
)

// Deletes chat messages for everyone on behalf of a community. Implements automod.ActionSink.
//
// API errors which are likely transient (rate limits, internal errors) are retried up to MaxAttempts in total, with exponential backoff. Anything else fails immediately.
type MessageDeleter struct {
	Client  *Client
	GroupID int64
	Logger  *slog.Logger
	// total attempts per message, including the first; defaults to DefaultDeleteAttempts
	MaxAttempts int
	// initial wait between attempts; defaults to DefaultDeleteRetryWait
	RetryWait time.Duration
}

func (d *MessageDeleter) DeleteMessage(ctx context.Context, peerID, conversationMessageID int64) error {
	attempts := d.MaxAttempts
	if attempts <= 0 {
		attempts = DefaultDeleteAttempts
	}
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = d.RetryWait
	if bo.InitialInterval <= 0 {
		bo.InitialInterval = DefaultDeleteRetryWait
	}
	bo.MaxInterval = 10 * time.Second

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		results, err := MessagesDelete(ctx, d.Client, d.GroupID, peerID, []int64{conversationMessageID}, true)
		if err != nil {
			if IsRetryable(err) {
				return struct{}{}, err
			}
			return struct{}{}, backoff.Permanent(err)
		}
		// per-message failures (eg, message too old, or sent by an admin) are final
		if ferr := FirstDeleteFailure(peerID, results); ferr != nil {
			return struct{}{}, backoff.Permanent(ferr)
		}
		return struct{}{}, nil
	},
		backoff.WithBackOff(bo),
		backoff.WithMaxTries(uint(attempts)),
		backoff.WithNotify(func(err error, wait time.Duration) {
			logger.Warn("retrying message deletion", "peer", peerID, "cmid", conversationMessageID, "attempt", attempt, "wait", wait, "err", err)
		}),
	)
	if err != nil {
		return fmt.Errorf("deleting message %d/%d: %w", peerID, conversationMessageID, err)
	}
	return nil
}
