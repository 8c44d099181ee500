// Package backoff implements bounded exponential backoff for transient
// failures against the oracle and the metadata store.
package backoff

import (
	"context"
	"time"
)

// BaseDelay is the first retry delay; it doubles each attempt. Tests override
// this to avoid real sleeps.
var BaseDelay = 500 * time.Millisecond

const defaultMaxAttempts = 3

// Retry runs fn up to maxAttempts times, sleeping BaseDelay, 2*BaseDelay,
// 4*BaseDelay, ... between attempts. retryable decides whether an error is
// worth another attempt; a nil retryable retries every error. When
// maxAttempts is 0 the default (3) is used. If ctx is cancelled during a
// wait, ctx.Err() is returned.
func Retry(ctx context.Context, maxAttempts int, retryable func(error) bool, fn func() error) error {
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == maxAttempts-1 {
			break
		}

		delay := BaseDelay << attempt
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return err
}
