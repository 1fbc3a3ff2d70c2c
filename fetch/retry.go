package fetch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const (
	DefaultMaxAttempts = 5
	DefaultBaseDelay   = 2 * time.Second
)

// TerminalFailure is returned once every attempt failed with a *FetchError.
type TerminalFailure struct {
	Attempts int
	Last     error
}

func (e *TerminalFailure) Error() string {
	return fmt.Sprintf("giving up after %d attempts: %v", e.Attempts, e.Last)
}

func (e *TerminalFailure) Unwrap() error {
	return e.Last
}

// Policy retries an operation with exponential backoff. The delay before attempt n+1
// is BaseDelay * 2^(n-1), without jitter.
type Policy struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// OnRetry, if set, is called before each wait.
	OnRetry func(err error, delay time.Duration)
}

// DefaultPolicy returns five attempts starting at two seconds.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: DefaultMaxAttempts, BaseDelay: DefaultBaseDelay}
}

// Do runs op until it succeeds, fails with an error that is not a *FetchError, or the
// attempts are exhausted. A cancelled ctx stops the loop with ctx.Err().
func (p Policy) Do(ctx context.Context, op func(ctx context.Context) error) error {
	maxAttempts := p.MaxAttempts
	if maxAttempts < 1 {
		maxAttempts = 1
	}

	attempts := 0
	err := backoff.RetryNotify(func() error {
		attempts++
		err := op(ctx)
		if err == nil {
			return nil
		}
		var fe *FetchError
		if !errors.As(err, &fe) {
			return backoff.Permanent(err)
		}
		return err
	}, p.backOff(ctx, maxAttempts), func(err error, d time.Duration) {
		if p.OnRetry != nil {
			p.OnRetry(err, d)
		}
	})
	if err == nil {
		return nil
	}

	var fe *FetchError
	if errors.As(err, &fe) && ctx.Err() == nil {
		return &TerminalFailure{Attempts: attempts, Last: err}
	}
	return err
}

func (p Policy) backOff(ctx context.Context, maxAttempts int) backoff.BackOff {
	base := p.BaseDelay
	if base <= 0 {
		base = DefaultBaseDelay
	}
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = base
	b.RandomizationFactor = 0
	b.Multiplier = 2
	b.MaxInterval = base << uint(maxAttempts)
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, uint64(maxAttempts-1)), ctx)
}
