package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow/pkg/platform/sentinel"
)

func TestRetrySucceedsFirstAttempt(t *testing.T) {
	calls := 0
	made, err := retry(context.Background(), 3, isRemoteConflict, func(context.Context) error {
		calls++
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 1, made)
	assert.Equal(t, 1, calls)
}

func TestRetrySucceedsSecondAttempt(t *testing.T) {
	calls := 0
	made, err := retry(context.Background(), 3, isRemoteConflict, func(context.Context) error {
		calls++
		if calls == 1 {
			return sentinel.ErrRemoteConflict
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 2, made, "a success on attempt 2 shows exactly 2 attempts")
}

func TestRetryExhaustsOnPersistentConflict(t *testing.T) {
	calls := 0
	made, err := retry(context.Background(), 3, isRemoteConflict, func(context.Context) error {
		calls++
		return sentinel.ErrRemoteConflict
	})

	require.Error(t, err)
	assert.True(t, errors.Is(err, sentinel.ErrRemoteConflict))
	assert.Equal(t, 3, made, "exactly the bound, never more")
	assert.Equal(t, 3, calls)
}

func TestRetryStopsOnNonRetryableError(t *testing.T) {
	fatal := errors.New("platform rejected the event")
	calls := 0
	made, err := retry(context.Background(), 3, isRemoteConflict, func(context.Context) error {
		calls++
		return fatal
	})

	require.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, made)
	assert.Equal(t, 1, calls)
}

func TestRetryHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	_, err := retry(ctx, 3, isRemoteConflict, func(context.Context) error {
		calls++
		return sentinel.ErrRemoteConflict
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, calls)
}
