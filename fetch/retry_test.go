package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestRetryGivesUpAfterMaxAttempts(t *testing.T) {
	var delays []time.Duration
	p := Policy{
		MaxAttempts: 4,
		BaseDelay:   time.Millisecond,
		OnRetry:     func(_ error, d time.Duration) { delays = append(delays, d) },
	}

	calls := 0
	err := p.Do(context.Background(), func(context.Context) error {
		calls++
		return &FetchError{Kind: KindHTTPStatus, StatusCode: 503, URL: "https://example.ca"}
	})

	var tf *TerminalFailure
	require.True(t, errors.As(err, &tf))
	require.Equal(t, 4, calls)
	require.Equal(t, 4, tf.Attempts)

	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	require.Equal(t, 503, fe.StatusCode)

	require.Equal(t, []time.Duration{time.Millisecond, 2 * time.Millisecond, 4 * time.Millisecond}, delays)
	for i := 1; i < len(delays); i++ {
		require.GreaterOrEqual(t, delays[i], delays[i-1])
	}
}

func TestRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &FetchError{Kind: KindNetwork, Err: errors.New("reset")}
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 3, calls)
}

func TestRetryDoesNotRetryOtherErrors(t *testing.T) {
	boom := errors.New("parse failure")
	calls := 0
	err := Policy{MaxAttempts: 5, BaseDelay: time.Millisecond}.Do(context.Background(), func(context.Context) error {
		calls++
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 1, calls)

	var tf *TerminalFailure
	require.False(t, errors.As(err, &tf))
}

func TestRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := Policy{MaxAttempts: 5, BaseDelay: time.Hour}.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return &FetchError{Kind: KindTimeout, Err: context.DeadlineExceeded}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1, calls)
}
