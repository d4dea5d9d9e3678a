package cadence

import (
	"context"
	"time"
)

// Clock abstracts time so waits can be tested deterministically.
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
	// Sleep blocks for d or until ctx is done, returning ctx.Err() in the
	// latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

// SystemClock uses the standard library time functions.
type SystemClock struct{}

// Now returns the current time.
func (SystemClock) Now() time.Time { return time.Now() }

// Since returns the duration since t.
func (SystemClock) Since(t time.Time) time.Duration { return time.Since(t) }

// Sleep pauses for d or until ctx is cancelled.
func (SystemClock) Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// clockOrDefault returns c, or SystemClock when c is nil.
func clockOrDefault(c Clock) Clock {
	if c != nil {
		return c
	}
	return SystemClock{}
}
