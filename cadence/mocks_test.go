package cadence

import (
	"context"
	"time"
)

// mockClock advances its own time on Sleep instead of blocking.
type mockClock struct {
	currentTime time.Time
	sleeps      []time.Duration
}

func newMockClock() *mockClock {
	return &mockClock{
		currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (m *mockClock) Now() time.Time {
	return m.currentTime
}

func (m *mockClock) Since(t time.Time) time.Duration {
	return m.currentTime.Sub(t)
}

func (m *mockClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.sleeps = append(m.sleeps, d)
	m.currentTime = m.currentTime.Add(d)
	return nil
}

func (m *mockClock) advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}
