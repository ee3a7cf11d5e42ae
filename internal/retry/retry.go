// Package retry is a generic exponential-backoff wrapper. Nothing wires
// it in by default; callers opt in per operation.
package retry

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// Options controls the retry loop.
type Options struct {
	// MaxRetries is the number of retries after the first attempt.
	MaxRetries int
	// BaseDelay seeds the backoff; attempt n waits BaseDelay*2^n.
	BaseDelay time.Duration
	// MaxDelay caps the backoff.
	MaxDelay time.Duration
	// ShouldRetry classifies errors; nil uses DefaultShouldRetry.
	ShouldRetry func(error) bool
}

// DefaultOptions returns the standard policy: 3 retries, 1s base delay,
// 10s cap, network-class errors retryable.
func DefaultOptions() Options {
	return Options{
		MaxRetries: 3,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
	}
}

// DefaultShouldRetry treats network-class failures as retryable:
// net.Error values, cancelled-free transport errors, and anything whose
// message mentions a 5xx-style status. Everything else is permanent.
func DefaultShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	msg := strings.ToLower(err.Error())
	if strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "temporary failure") {
		return true
	}
	// Loose heuristic for upstream 5xx failures surfaced as text
	if strings.Contains(msg, "status 5") || strings.Contains(msg, "http 5") {
		return true
	}
	return false
}

// Delay returns the backoff before retry attempt n (0-indexed), capped at
// MaxDelay.
func (o Options) Delay(attempt int) time.Duration {
	delay := o.BaseDelay << uint(attempt)
	if delay > o.MaxDelay || delay <= 0 {
		return o.MaxDelay
	}
	return delay
}

// Do runs op, retrying per the options while the error is retryable and
// attempts remain. Context cancellation ends the loop immediately.
func Do(ctx context.Context, op func(context.Context) error, opts Options) error {
	shouldRetry := opts.ShouldRetry
	if shouldRetry == nil {
		shouldRetry = DefaultShouldRetry
	}

	var lastErr error
	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			if lastErr != nil {
				return lastErr
			}
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if attempt == opts.MaxRetries || !shouldRetry(err) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return lastErr
		case <-time.After(opts.Delay(attempt)):
		}
	}
	return lastErr
}
