// Package committer implements the retry state machine shared by the miner's
// artifact registration and the validator's weight submission. Chain writes
// rejected by a cooldown window retry on a fixed interval for as long as the
// cooldown lasts; genuine I/O errors get a bounded budget with doubling
// backoff before the write is abandoned.
package committer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/FLock-io/FLock-subnet/internal/core"
)

// State of the retry machine.
type State string

const (
	StateIdle        State = "idle"
	StateAttempting  State = "attempting"
	StateCoolingDown State = "cooling_down"
	StateCommitted   State = "committed"
	StateAbandoned   State = "abandoned"
)

// SubmitFunc performs one chain write attempt. It returns nil on success, an
// error wrapping core.ErrCooldownActive when the chain's rate limit rejected
// the write, and any other error for genuine I/O failures.
type SubmitFunc func(ctx context.Context) error

// Retrier drives a SubmitFunc to completion.
type Retrier struct {
	name         string
	clock        Clock
	cooldownWait time.Duration
	ioWait       time.Duration
	maxAttempts  int

	state State
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithClock injects a clock, used by tests to avoid real delays.
func WithClock(c Clock) Option {
	return func(r *Retrier) { r.clock = c }
}

// WithIoWait sets the initial backoff for I/O failures.
func WithIoWait(d time.Duration) Option {
	return func(r *Retrier) { r.ioWait = d }
}

// NewRetrier creates a retry machine. cooldownWait is the fixed interval
// between attempts while the chain cooldown holds; maxAttempts bounds I/O
// failures only.
func NewRetrier(name string, cooldownWait time.Duration, maxAttempts int, opts ...Option) *Retrier {
	r := &Retrier{
		name:         name,
		clock:        NewClock(),
		cooldownWait: cooldownWait,
		ioWait:       5 * time.Second,
		maxAttempts:  maxAttempts,
		state:        StateIdle,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// State returns the machine's current state.
func (r *Retrier) State() State {
	return r.state
}

// Run drives submit until Committed or Abandoned. Cooldown rejections retry
// forever on the fixed interval and do not count against the attempt budget;
// the cooldown must eventually elapse. Context cancellation abandons the run.
func (r *Retrier) Run(ctx context.Context, submit SubmitFunc) error {
	ioFailures := 0
	ioWait := r.ioWait
	started := r.clock.Now()

	for {
		r.state = StateAttempting
		err := submit(ctx)
		if err == nil {
			r.state = StateCommitted
			log.Info().Str("commit", r.name).Dur("elapsed", r.clock.Now().Sub(started)).Msg("chain write committed")
			return nil
		}

		if errors.Is(err, core.ErrCooldownActive) {
			r.state = StateCoolingDown
			log.Info().Str("commit", r.name).Dur("retryIn", r.cooldownWait).Msg("cooldown active, will retry")
			if serr := r.clock.Sleep(ctx, r.cooldownWait); serr != nil {
				r.state = StateAbandoned
				return fmt.Errorf("%s: canceled while cooling down: %w", r.name, serr)
			}
			continue
		}

		ioFailures++
		if ioFailures >= r.maxAttempts {
			r.state = StateAbandoned
			log.Error().Err(err).Str("commit", r.name).Int("attempts", ioFailures).Msg("chain write abandoned")
			return fmt.Errorf("%s: abandoned after %d attempts: %w", r.name, ioFailures, err)
		}

		log.Warn().Err(err).Str("commit", r.name).Int("attempt", ioFailures).Dur("retryIn", ioWait).Msg("chain write failed, backing off")
		if serr := r.clock.Sleep(ctx, ioWait); serr != nil {
			r.state = StateAbandoned
			return fmt.Errorf("%s: canceled during backoff: %w", r.name, serr)
		}
		ioWait *= 2
	}
}
