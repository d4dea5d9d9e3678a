package frame

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestControlRoundTrip(t *testing.T) {
	size := int64(42)
	mtime := int64(1700000000)
	in := Control{Type: ControlStart, Name: "dir/a.txt", Size: &size, MTime: &mtime}

	text, err := EncodeControl(in)
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(text)
	require.NoError(t, err)
	assert.True(t, IsControl(decoded))

	out, ok, err := DecodeControl(decoded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, in, out)
}

func TestControlEncodingIsCompactJSON(t *testing.T) {
	text, err := EncodeControl(Control{Type: ControlEnd, Name: "a.txt"})
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(text)
	require.NoError(t, err)
	assert.Equal(t, ControlMagic+`{"type":"end","name":"a.txt"}`, string(decoded))
}

func TestDecodeControlData(t *testing.T) {
	_, ok, err := DecodeControl([]byte("plain file bytes"))
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestDecodeControlMalformed(t *testing.T) {
	_, ok, err := DecodeControl([]byte(ControlMagic + "{not json"))
	assert.True(t, ok)
	assert.ErrorIs(t, err, ErrMalformedControl)
}

func TestDecodeControlDefaultsName(t *testing.T) {
	c, ok, err := DecodeControl([]byte(ControlMagic + `{"type":"end"}`))
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "unknown", c.Name)
	assert.Equal(t, ControlEnd, c.Type)
}
