package schedule

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aCrYoZPS/mtec_schedule_bot/src/mtec_api"
)

// withRetry repeats op while it fails with a FetchError, doubling delay after every attempt.
func withRetry[T any](ctx context.Context, attempts int, delay time.Duration, op func(context.Context) (T, error)) (T, error) {
	var (
		result T
		err    error
	)
	attempts = max(attempts, 1)
	for attempt := range attempts {
		result, err = op(ctx)
		if err == nil || !mtec_api.IsFetchError(err) || attempt == attempts-1 {
			return result, err
		}
		wait := delay << attempt
		slog.Warn("fetch failed, retrying", "attempt", attempt+1, "wait", wait.String(), "err", err)
		select {
		case <-ctx.Done():
			return result, errors.Join(err, ctx.Err())
		case <-time.After(wait):
		}
	}
	return result, err
}
