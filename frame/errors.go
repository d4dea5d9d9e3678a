package frame

import "errors"

var (
	// ErrMalformedHeader indicates a header line that cannot be decoded.
	ErrMalformedHeader = errors.New("malformed frame header")

	// ErrNoPayload indicates text without a newline or with an empty payload.
	ErrNoPayload = errors.New("frame has no payload")

	// ErrLengthMismatch indicates the len field differs from the payload length.
	ErrLengthMismatch = errors.New("payload length mismatch")

	// ErrChecksumMismatch indicates the crc field differs from the payload CRC.
	ErrChecksumMismatch = errors.New("payload checksum mismatch")

	// ErrMalformedControl indicates a control frame whose JSON body is invalid.
	ErrMalformedControl = errors.New("malformed control frame")
)
