package github

import (
	"context"
	"errors"
	"strconv"
	"time"
)

// maxRetries bounds how often a rate-limited request is replayed.
const maxRetries = 3

type rateLimitError struct {
	retryAfter time.Duration
}

func (e *rateLimitError) Error() string { return "rate limited by GitHub" }

type authError struct {
	message string
}

func (e *authError) Error() string {
	return "authentication failed: " + e.message
}

// IsAuthError checks if an error is an authentication error.
func IsAuthError(err error) bool {
	var ae *authError
	return errors.As(err, &ae)
}

// IsRateLimited reports whether err is a rate-limit response that survived
// every retry.
func IsRateLimited(err error) bool {
	var rl *rateLimitError
	return errors.As(err, &rl)
}

// parseRetryAfter reads a Retry-After header given in seconds.
func parseRetryAfter(v string) time.Duration {
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// retryWithBackoff replays fn while it reports a rate limit, waiting
// 1s, 2s, 4s... or the server's Retry-After when that is longer.
func retryWithBackoff(ctx context.Context, retries int, base time.Duration, fn func() error) error {
	var lastErr error
	for attempt := 0; attempt <= retries; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}

		var rl *rateLimitError
		if !errors.As(lastErr, &rl) {
			return lastErr
		}

		if attempt < retries {
			backoff := base << uint(attempt)
			if rl.retryAfter > backoff {
				backoff = rl.retryAfter
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}
