package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const (
	// DefaultMaxRateLimitRetries bounds how many times a rate-limited
	// request is reissued before the error propagates.
	DefaultMaxRateLimitRetries = 5
	// DefaultMaxBackoffElapsed bounds the total time spent waiting on
	// rate-limit backoff for one request.
	DefaultMaxBackoffElapsed = 5 * time.Minute

	defaultInitialDelay           = 1 * time.Second
	maxBackoffInterval            = 5 * time.Minute
	retryAfterMultiplier          = 1.5
	retryAfterRandomizationFactor = 0.1
	standardMultiplier            = 2.0
	standardRandomizationFactor   = 0.2
)

// newRateLimitBackOff builds the backoff schedule for rate-limit retries.
// A provider-supplied retry-after becomes the initial delay; otherwise
// standard exponential backoff applies.
func newRateLimitBackOff(retryAfter *time.Duration) backoff.BackOff {
	eb := backoff.NewExponentialBackOff()

	if retryAfter != nil && *retryAfter > 0 {
		eb.InitialInterval = *retryAfter
		eb.Multiplier = retryAfterMultiplier
		eb.RandomizationFactor = retryAfterRandomizationFactor
	} else {
		eb.InitialInterval = defaultInitialDelay
		eb.Multiplier = standardMultiplier
		eb.RandomizationFactor = standardRandomizationFactor
	}

	eb.MaxInterval = maxBackoffInterval
	eb.MaxElapsedTime = DefaultMaxBackoffElapsed
	eb.Reset()

	return backoff.WithMaxRetries(eb, DefaultMaxRateLimitRetries)
}

// WithRateLimitRetry runs op, retrying with bounded backoff for as long as
// it fails with a rate-limit Error. Any other error, context cancellation,
// or backoff exhaustion stops the retries and propagates. Adapters wrap
// their network calls with this so the engine never observes a transient
// rate-limit signal.
func WithRateLimitRetry[T any](ctx context.Context, logger zerolog.Logger, op func() (T, error)) (T, error) {
	var zero T
	var b backoff.BackOff

	for attempt := 1; ; attempt++ {
		result, err := op()
		if err == nil {
			return result, nil
		}
		if !IsRateLimitError(err) {
			return zero, err
		}

		if b == nil {
			b = newRateLimitBackOff(ExtractRetryAfter(err))
		}
		delay := b.NextBackOff()
		if delay == backoff.Stop {
			return zero, fmt.Errorf("rate limit: max retries or elapsed time exceeded: %w", err)
		}

		logger.Warn().
			Int("attempt", attempt).
			Dur("next_delay", delay).
			Err(err).
			Msg("Rate limit encountered. Retrying after delay")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}
