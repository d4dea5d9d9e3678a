package cadence

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualLineInput(t *testing.T) {
	var out bytes.Buffer
	m := NewManual(strings.NewReader("\n\nq\n"), &out, "next> ")

	require.NoError(t, m.Wait(context.Background()))
	require.NoError(t, m.Wait(context.Background()))
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
	assert.Equal(t, "next> next> next> ", out.String())
}

func TestManualQuitIsCaseInsensitive(t *testing.T) {
	m := NewManual(strings.NewReader("  Q \n"), io.Discard, "")
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
}

func TestManualInterruptByte(t *testing.T) {
	m := NewManual(strings.NewReader("\x03\n"), io.Discard, "")
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
}

func TestManualOtherInputContinues(t *testing.T) {
	m := NewManual(strings.NewReader("go\nquit\n"), io.Discard, "")
	require.NoError(t, m.Wait(context.Background()))
	// Only a lone q quits.
	require.NoError(t, m.Wait(context.Background()))
}

func TestManualLastLineWithoutNewline(t *testing.T) {
	m := NewManual(strings.NewReader("x"), io.Discard, "")
	require.NoError(t, m.Wait(context.Background()))
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
}

func TestManualEOFQuits(t *testing.T) {
	m := NewManual(strings.NewReader(""), nil, "prompt")
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
}

func TestManualCancellation(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	m := NewManual(pr, io.Discard, "")
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	assert.ErrorIs(t, m.Wait(ctx), context.DeadlineExceeded)
}

// cancelOnWrite cancels a context as soon as the prompt is printed.
type cancelOnWrite struct {
	cancel context.CancelFunc
}

func (w cancelOnWrite) Write(p []byte) (int, error) {
	w.cancel()
	return len(p), nil
}

func TestManualCancelledReadCarriesOver(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := NewManual(pr, cancelOnWrite{cancel: cancel}, "next> ")
	require.ErrorIs(t, m.Wait(ctx), context.Canceled)

	go func() {
		_, _ = io.WriteString(pw, "x\n")
		_, _ = io.WriteString(pw, "q\n")
	}()

	// The read started by the cancelled wait delivers the first line.
	m.out = io.Discard
	require.NoError(t, m.Wait(context.Background()))
	assert.ErrorIs(t, m.Wait(context.Background()), ErrQuit)
}
