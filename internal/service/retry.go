package service

import (
	"context"
	"time"

	"github.com/pokerjest/stamper/internal/upstream"
)

// performWithRetry runs op up to attempts times, pausing delay between tries.
// Not-found answers are final and returned at once.
func performWithRetry[T any](ctx context.Context, attempts int, delay time.Duration, op func() (T, error)) (T, error) {
	var result T
	var err error
	if attempts < 1 {
		attempts = 1
	}
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(delay):
			}
		}
		result, err = op()
		if err == nil || upstream.IsNotFound(err) {
			return result, err
		}
	}
	return result, err
}
