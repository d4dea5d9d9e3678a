package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opd-ai/clipxfer/transport"
	"github.com/stretchr/testify/require"
)

// mockTimeProvider provides deterministic time for testing. Sleep advances
// the clock instead of blocking.
type mockTimeProvider struct {
	currentTime time.Time
}

func (m *mockTimeProvider) Now() time.Time {
	return m.currentTime
}

func (m *mockTimeProvider) Since(t time.Time) time.Duration {
	return m.currentTime.Sub(t)
}

func (m *mockTimeProvider) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.currentTime = m.currentTime.Add(d)
	return nil
}

func (m *mockTimeProvider) advance(d time.Duration) {
	m.currentTime = m.currentTime.Add(d)
}

func newMockTimeProvider() *mockTimeProvider {
	return &mockTimeProvider{
		currentTime: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// scriptedTransport returns one prepared snapshot per Get, then keeps
// returning the last one.
type scriptedTransport struct {
	snapshots []string
	next      int
	puts      []string
	getErr    error
}

func newScriptedTransport(snapshots ...string) *scriptedTransport {
	return &scriptedTransport{snapshots: snapshots}
}

func (s *scriptedTransport) Put(text string) error {
	s.puts = append(s.puts, text)
	return nil
}

func (s *scriptedTransport) Get() (string, error) {
	if s.getErr != nil {
		return "", s.getErr
	}
	if len(s.snapshots) == 0 {
		return "", nil
	}
	if s.next >= len(s.snapshots) {
		return s.snapshots[len(s.snapshots)-1], nil
	}
	text := s.snapshots[s.next]
	s.next++
	return text, nil
}

func (s *scriptedTransport) Close() error {
	return nil
}

// failingTransport fails every Put after the first allowed ones.
type failingTransport struct {
	allowed int
	puts    int
}

func (f *failingTransport) Put(string) error {
	f.puts++
	if f.puts > f.allowed {
		return errors.New("device unplugged")
	}
	return nil
}

func (f *failingTransport) Get() (string, error) { return "", nil }

func (f *failingTransport) Close() error { return nil }

// cadenceFunc adapts a function to cadence.Cadence.
type cadenceFunc func(ctx context.Context) error

func (f cadenceFunc) Wait(ctx context.Context) error { return f(ctx) }

// quitAfter returns a cadence that allows n waits and then returns err.
func quitAfter(n int, err error) cadenceFunc {
	calls := 0
	return func(ctx context.Context) error {
		calls++
		if calls > n {
			return err
		}
		return ctx.Err()
	}
}

var _ transport.Transport = (*scriptedTransport)(nil)
var _ transport.Transport = (*failingTransport)(nil)

// writeSource writes data to name under dir and returns it as a Source.
func writeSource(t *testing.T, dir, name string, data []byte) Source {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	info, err := os.Stat(path)
	require.NoError(t, err)
	return Source{Path: path, Name: name, Size: info.Size(), ModTime: info.ModTime()}
}

// testData returns n deterministic pseudo-random bytes.
func testData(n int) []byte {
	data := make([]byte, n)
	x := uint32(2463534242)
	for i := range data {
		x ^= x << 13
		x ^= x >> 17
		x ^= x << 5
		data[i] = byte(x)
	}
	return data
}

// sendAll runs a sender over sources on an in-memory transport and returns
// every text written.
func sendAll(t *testing.T, protocol Protocol, chunkSize int, sources ...Source) ([]string, []FileResult) {
	t.Helper()
	mem := transport.NewMemory()
	sender, err := NewSender(mem, SenderOptions{
		Protocol:  protocol,
		ChunkSize: chunkSize,
		BlockSize: 7,
		Clock:     newMockTimeProvider(),
	})
	require.NoError(t, err)

	results, err := sender.Send(context.Background(), sources)
	require.NoError(t, err)
	return mem.History(), results
}

// pollAll feeds each snapshot to a fresh receiver, one Poll per snapshot.
func pollAll(t *testing.T, opts ReceiverOptions, snapshots []string) *Receiver {
	t.Helper()
	if opts.Clock == nil {
		opts.Clock = newMockTimeProvider()
	}
	r, err := NewReceiver(newScriptedTransport(snapshots...), opts)
	require.NoError(t, err)
	for range snapshots {
		_, err := r.Poll()
		require.NoError(t, err)
	}
	return r
}
