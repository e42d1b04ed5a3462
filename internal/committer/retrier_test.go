package committer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

// fakeClock advances instantly on Sleep and records total waited time.
type fakeClock struct {
	now    time.Time
	slept  []time.Duration
	waited time.Duration
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.now = c.now.Add(d)
	c.slept = append(c.slept, d)
	c.waited += d
	return nil
}

func TestRun_ImmediateSuccess(t *testing.T) {
	r := NewRetrier("weights", 120*time.Second, 3, WithClock(newFakeClock()))
	err := r.Run(context.Background(), func(context.Context) error { return nil })
	require.NoError(t, err)
	require.Equal(t, StateCommitted, r.State())
}

func TestRun_CooldownWindowElapses(t *testing.T) {
	// The chain enforces a 20-minute window; retries every 120s should
	// succeed on the first attempt after the window, i.e. attempt 11.
	clock := newFakeClock()
	r := NewRetrier("register-dataset", 120*time.Second, 3, WithClock(clock))

	windowEnd := clock.Now().Add(20 * time.Minute)
	attempts := 0
	err := r.Run(context.Background(), func(context.Context) error {
		attempts++
		if clock.Now().Before(windowEnd) {
			return fmt.Errorf("set-commitment: %w", core.ErrCooldownActive)
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, r.State())
	require.Equal(t, 11, attempts)
	require.Equal(t, 20*time.Minute, clock.waited)
}

func TestRun_CooldownDoesNotCountAgainstAttemptBudget(t *testing.T) {
	clock := newFakeClock()
	r := NewRetrier("weights", time.Second, 2, WithClock(clock))

	attempts := 0
	err := r.Run(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 50 {
			return core.ErrCooldownActive
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 50, attempts)
}

func TestRun_IoErrorsAbandonAfterBudget(t *testing.T) {
	clock := newFakeClock()
	r := NewRetrier("weights", time.Second, 3, WithClock(clock), WithIoWait(time.Second))

	boom := errors.New("connection refused")
	err := r.Run(context.Background(), func(context.Context) error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, StateAbandoned, r.State())
	// Two backoffs before the third and final attempt, doubling.
	require.Equal(t, []time.Duration{time.Second, 2 * time.Second}, clock.slept)
}

func TestRun_CancellationDuringCooldown(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	clock := newFakeClock()
	r := NewRetrier("weights", time.Minute, 3, WithClock(clock))

	attempts := 0
	err := r.Run(ctx, func(context.Context) error {
		attempts++
		cancel()
		return core.ErrCooldownActive
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, StateAbandoned, r.State())
	require.Equal(t, 1, attempts)
}

func TestRun_RecoversAfterTransientIoError(t *testing.T) {
	clock := newFakeClock()
	r := NewRetrier("weights", time.Second, 5, WithClock(clock), WithIoWait(time.Second))

	attempts := 0
	err := r.Run(context.Background(), func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errors.New("timeout")
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, StateCommitted, r.State())
	require.Equal(t, 3, attempts)
}
