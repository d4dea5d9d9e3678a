package file

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"testing"

	"github.com/opd-ai/clipxfer/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func controlText(t *testing.T, c frame.Control) string {
	t.Helper()
	text, err := frame.EncodeControl(c)
	require.NoError(t, err)
	return text
}

func TestControlEndToEnd(t *testing.T) {
	dir := t.TempDir()
	data := testData(testFileSize1KB + 3)
	a := writeSource(t, dir, "a.bin", data)
	empty := writeSource(t, dir, "sub/empty.txt", nil)
	zeros := writeSource(t, dir, "sub/zeros.bin", make([]byte, 48))

	texts, sent := sendAll(t, ProtocolControl, testChunkSmall, a, empty, zeros)

	outDir := t.TempDir()
	r := pollAll(t, ReceiverOptions{
		Protocol:     ProtocolControl,
		Target:       DirectoryTarget(outDir),
		AllowRepeats: true,
	}, texts)

	got, err := os.ReadFile(filepath.Join(outDir, "a.bin"))
	require.NoError(t, err)
	assert.Equal(t, data, got)

	got, err = os.ReadFile(filepath.Join(outDir, "sub", "empty.txt"))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = os.ReadFile(filepath.Join(outDir, "sub", "zeros.bin"))
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 48), got)

	done := r.Completed()
	require.Len(t, done, 3)
	for i, res := range done {
		assert.True(t, res.Complete)
		assert.Equal(t, sent[i].Name, res.Name)
		assert.Equal(t, sent[i].Digest, res.Digest)
	}
	assert.Equal(t, 3, r.Stats().FilesCompleted)
	assert.Equal(t, ReceiverWaiting, r.State())
}

func TestControlCollapsedChunksFailCompletion(t *testing.T) {
	src := writeSource(t, t.TempDir(), "zeros.bin", make([]byte, 24))
	texts, _ := sendAll(t, ProtocolControl, testChunkSmall, src)

	out := filepath.Join(t.TempDir(), "zeros.bin")
	r, err := NewReceiver(newScriptedTransport(texts...), ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   FileTarget(out),
		Clock:    newMockTimeProvider(),
	})
	require.NoError(t, err)

	var pollErr error
	for range texts {
		if _, pollErr = r.Poll(); pollErr != nil {
			break
		}
	}
	require.ErrorIs(t, pollErr, ErrSizeMismatch)

	done := r.Completed()
	require.Len(t, done, 1)
	assert.False(t, done[0].Complete)
	assert.Less(t, done[0].Bytes, int64(24))
	assert.Equal(t, 0, r.Stats().FilesCompleted)
	assert.Nil(t, r.Session())
}

func TestControlRepeatedChunksWithAllowRepeats(t *testing.T) {
	src := writeSource(t, t.TempDir(), "zeros.bin", make([]byte, 24))
	texts, _ := sendAll(t, ProtocolControl, testChunkSmall, src)

	out := filepath.Join(t.TempDir(), "zeros.bin")
	r := pollAll(t, ReceiverOptions{
		Protocol:     ProtocolControl,
		Target:       FileTarget(out),
		AllowRepeats: true,
	}, texts)

	got, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, make([]byte, 24), got)
	assert.Equal(t, 1, r.Stats().FilesCompleted)
}

func TestControlStartUsesAnnouncedSize(t *testing.T) {
	size := int64(3)
	outDir := t.TempDir()
	r := pollAll(t, ReceiverOptions{Protocol: ProtocolControl, Target: DirectoryTarget(outDir)}, []string{
		controlText(t, frame.Control{Type: frame.ControlStart, Name: "s.bin", Size: &size}),
	})

	require.NotNil(t, r.Session())
	assert.True(t, r.Session().SizeKnown)
	assert.Equal(t, size, r.Session().Size)
	assert.Equal(t, ReceiverReceiving, r.State())
}

func TestControlDataWithoutStart(t *testing.T) {
	r := pollAll(t, ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   DirectoryTarget(t.TempDir()),
	}, []string{base64.StdEncoding.EncodeToString([]byte("orphan"))})

	assert.Equal(t, 0, r.Stats().FramesAccepted)
	assert.Equal(t, 1, r.Stats().FramesSkipped)
}

func TestControlEndWithoutOpenFile(t *testing.T) {
	r := pollAll(t, ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   DirectoryTarget(t.TempDir()),
	}, []string{controlText(t, frame.Control{Type: frame.ControlEnd, Name: "x"})})

	assert.Equal(t, 0, r.Stats().FramesAccepted)
	assert.Empty(t, r.Completed())
}

func TestControlIgnoresForeignText(t *testing.T) {
	r := pollAll(t, ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   DirectoryTarget(t.TempDir()),
	}, []string{
		"just some copied text",
		controlText(t, frame.Control{Type: "rewind", Name: "x"}),
		base64.StdEncoding.EncodeToString([]byte(frame.ControlMagic + "{not json")),
	})

	assert.Equal(t, 0, r.Stats().FramesAccepted)
	assert.Equal(t, 2, r.Stats().FramesSkipped)
}

func TestControlAppend(t *testing.T) {
	outDir := t.TempDir()
	path := filepath.Join(outDir, "log.txt")
	require.NoError(t, os.WriteFile(path, []byte("old "), 0o644))

	pollAll(t, ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   DirectoryTarget(outDir).WithAppend(true),
	}, []string{
		controlText(t, frame.Control{Type: frame.ControlStart, Name: "log.txt"}),
		base64.StdEncoding.EncodeToString([]byte("new")),
		controlText(t, frame.Control{Type: frame.ControlEnd, Name: "log.txt"}),
	})

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old new", string(got))
}

func TestControlStartClosesPrevious(t *testing.T) {
	outDir := t.TempDir()
	r := pollAll(t, ReceiverOptions{
		Protocol: ProtocolControl,
		Target:   DirectoryTarget(outDir),
	}, []string{
		controlText(t, frame.Control{Type: frame.ControlStart, Name: "one.txt"}),
		base64.StdEncoding.EncodeToString([]byte("1")),
		controlText(t, frame.Control{Type: frame.ControlStart, Name: "two.txt"}),
	})

	done := r.Completed()
	require.Len(t, done, 1)
	assert.Equal(t, "one.txt", done[0].Name)
	assert.False(t, done[0].Complete)
	assert.Equal(t, "two.txt", r.Session().Name)

	got, err := os.ReadFile(filepath.Join(outDir, "one.txt"))
	require.NoError(t, err)
	assert.Equal(t, "1", string(got))
}
