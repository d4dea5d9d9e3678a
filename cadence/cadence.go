package cadence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

var (
	// ErrQuit indicates the operator asked to stop the transfer.
	ErrQuit = errors.New("quit requested")

	// ErrInvalidInterval indicates a negative delay or an unusable tick period.
	ErrInvalidInterval = errors.New("invalid interval")
)

// minAlignedLead is the smallest wait Aligned accepts before a tick; a tick
// closer than this is skipped in favor of the following one.
const minAlignedLead = 10 * time.Millisecond

// Cadence paces frame writes and buffer polls.
type Cadence interface {
	// Wait blocks until the next step may run.
	Wait(ctx context.Context) error
}

// Immediate never waits.
type Immediate struct{}

// Wait returns at once unless ctx is already done.
func (Immediate) Wait(ctx context.Context) error {
	return ctx.Err()
}

// Interval waits a fixed delay before every step.
type Interval struct {
	delay time.Duration
	clock Clock
}

// NewInterval creates a fixed-delay cadence. A nil clock uses SystemClock.
func NewInterval(delay time.Duration, clock Clock) (*Interval, error) {
	if delay < 0 {
		return nil, fmt.Errorf("%w: delay %v is negative", ErrInvalidInterval, delay)
	}
	return &Interval{delay: delay, clock: clockOrDefault(clock)}, nil
}

// Wait sleeps for the configured delay.
func (i *Interval) Wait(ctx context.Context) error {
	return i.clock.Sleep(ctx, i.delay)
}

// Aligned waits until the next wall-clock tick at a multiple of every, shifted
// by offset.
type Aligned struct {
	every  time.Duration
	offset time.Duration
	clock  Clock
}

// NewAligned creates a tick-aligned cadence. offset must lie in [0, every).
func NewAligned(every, offset time.Duration, clock Clock) (*Aligned, error) {
	if every <= 0 {
		return nil, fmt.Errorf("%w: tick period %v must be positive", ErrInvalidInterval, every)
	}
	if offset < 0 || offset >= every {
		return nil, fmt.Errorf("%w: offset %v outside [0, %v)", ErrInvalidInterval, offset, every)
	}
	return &Aligned{every: every, offset: offset, clock: clockOrDefault(clock)}, nil
}

// Next returns the tick Wait would sleep until if called at now.
func (a *Aligned) Next(now time.Time) time.Time {
	next := now.Truncate(a.every).Add(a.offset)
	for next.Sub(now) < minAlignedLead {
		next = next.Add(a.every)
	}
	return next
}

// Wait sleeps until the next tick.
func (a *Aligned) Wait(ctx context.Context) error {
	now := a.clock.Now()
	next := a.Next(now)

	logrus.WithFields(logrus.Fields{
		"function": "Aligned.Wait",
		"next":     next.Format(time.RFC3339),
		"wait":     next.Sub(now),
	}).Debug("Waiting for tick")

	return a.clock.Sleep(ctx, next.Sub(now))
}

// skipFirst lets the first Wait through without delay.
type skipFirst struct {
	inner   Cadence
	started bool
}

// SkipFirst wraps c so the first Wait returns immediately and later waits are
// delegated to c.
func SkipFirst(c Cadence) Cadence {
	return &skipFirst{inner: c}
}

func (s *skipFirst) Wait(ctx context.Context) error {
	if !s.started {
		s.started = true
		return ctx.Err()
	}
	return s.inner.Wait(ctx)
}
