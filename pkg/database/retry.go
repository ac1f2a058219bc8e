package database

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

const (
	defaultRetryAttempts = 3
	defaultRetryBaseWait = 1 * time.Second
	retryJitterFraction  = 0.25
)

// retryBackoff returns the wait before the next attempt (0-indexed): 1s, 2s,
// 4s, each with ±25% jitter.
func retryBackoff(attempt int) time.Duration {
	attempt = max(attempt, 0)
	base := defaultRetryBaseWait << attempt
	jitter := time.Duration(float64(base) * retryJitterFraction * (2*rand.Float64() - 1)) // #nosec G404 -- jitter only
	return base + jitter
}

// Retry calls fn up to three times, sleeping with exponential backoff between
// attempts. Errors for which retryable reports false are returned at once; a
// nil retryable retries everything. what names the operation in logs and in
// the returned error.
func Retry(ctx context.Context, logger *slog.Logger, what string, retryable func(error) bool, fn func(context.Context) error) error {
	return retry(ctx, logger, what, retryable, fn, retryBackoff)
}

func retry(ctx context.Context, logger *slog.Logger, what string, retryable func(error) bool, fn func(context.Context) error, backoff func(int) time.Duration) error {
	var err error
	for attempt := range defaultRetryAttempts {
		if err = fn(ctx); err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempt == defaultRetryAttempts-1 {
			break
		}

		wait := backoff(attempt)
		if logger != nil {
			logger.WarnContext(ctx, what+" failed, retrying",
				slog.Int("attempt", attempt+1),
				slog.Int("max_attempts", defaultRetryAttempts),
				slog.Duration("backoff", wait),
				slog.String("error", err.Error()),
			)
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: canceled during retry: %w", what, ctx.Err())
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", what, defaultRetryAttempts, err)
}
