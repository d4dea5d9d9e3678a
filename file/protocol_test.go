package file

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProtocol(t *testing.T) {
	tests := []struct {
		input string
		want  Protocol
	}{
		{"header-crc", ProtocolHeaderCRC},
		{"HEADER", ProtocolHeaderCRC},
		{"", ProtocolHeaderCRC},
		{"control", ProtocolControl},
		{" ctrl ", ProtocolControl},
	}
	for _, tt := range tests {
		got, err := ParseProtocol(tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.want, got)
	}

	_, err := ParseProtocol("xmodem")
	assert.ErrorIs(t, err, ErrUnknownProtocol)
}

func TestProtocolString(t *testing.T) {
	for _, p := range []Protocol{ProtocolHeaderCRC, ProtocolControl} {
		parsed, err := ParseProtocol(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, parsed)
	}
	assert.Equal(t, "Protocol(7)", Protocol(7).String())
}

func TestStateStrings(t *testing.T) {
	assert.Equal(t, "sending", SenderSending.String())
	assert.Equal(t, "file_done", SenderFileDone.String())
	assert.Equal(t, "receiving", ReceiverReceiving.String())
	assert.Equal(t, "stopped", ReceiverStopped.String())
}
