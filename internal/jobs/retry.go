package jobs

import (
	"context"
	"math/rand"
	"time"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/cobranca-ops/fidc-backoffice/internal/middleware"
)

const (
	retryAttempts = 3
	retryBase     = 500 * time.Millisecond
)

// withRetry runs fn up to three times with exponential backoff and jitter.
// Only transient network failures are retried; credential problems, gateway
// rejections and parse failures surface immediately.
func withRetry(ctx context.Context, op string, fn func() error) error {
	logger := middleware.GetLoggerFromCtx(ctx)

	var err error
	for attempt := 1; attempt <= retryAttempts; attempt++ {
		err = fn()
		if err == nil || !apperrors.IsRetryable(err) {
			return err
		}
		if attempt == retryAttempts {
			break
		}

		backoff := retryBase << (attempt - 1)
		backoff += time.Duration(rand.Int63n(int64(backoff / 2)))
		logger.Warn("Transient failure, backing off",
			"op", op,
			"attempt", attempt,
			"backoff", backoff.String(),
			"error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
	}
	return err
}
