package jobs

import (
	"context"
	"testing"

	"github.com/cobranca-ops/fidc-backoffice/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithRetryRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "test", func() error {
		calls++
		if calls < 3 {
			return &apperrors.NetworkError{Op: "test", Err: assert.AnError}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestWithRetryGivesUpAfterThreeAttempts(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "test", func() error {
		calls++
		return &apperrors.NetworkError{Op: "test", Err: assert.AnError}
	})
	require.Error(t, err)
	assert.Equal(t, 3, calls)
	assert.True(t, apperrors.IsRetryable(err))
}

func TestWithRetryDoesNotRetryFatalFailures(t *testing.T) {
	calls := 0
	err := withRetry(context.Background(), "test", func() error {
		calls++
		return &apperrors.GatewayRejectedError{StatusCode: 400, Detail: "bad charge"}
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestWithRetryStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := withRetry(ctx, "test", func() error {
		calls++
		return &apperrors.NetworkError{Op: "test", Err: assert.AnError}
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}
