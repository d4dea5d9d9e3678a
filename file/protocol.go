package file

import (
	"fmt"
	"strings"
)

// Protocol selects the wire format used on the shared buffer.
type Protocol uint8

const (
	// ProtocolHeaderCRC prefixes every chunk with a B64CLIP1 header line.
	ProtocolHeaderCRC Protocol = iota
	// ProtocolControl sends bare base64 chunks framed by start/end control frames.
	ProtocolControl
)

// String returns the flag spelling of the protocol.
func (p Protocol) String() string {
	switch p {
	case ProtocolHeaderCRC:
		return "header-crc"
	case ProtocolControl:
		return "control"
	default:
		return fmt.Sprintf("Protocol(%d)", uint8(p))
	}
}

// ParseProtocol parses a protocol name as accepted on the command line.
func ParseProtocol(s string) (Protocol, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "header-crc", "header", "crc", "":
		return ProtocolHeaderCRC, nil
	case "control", "ctrl":
		return ProtocolControl, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownProtocol, s)
	}
}
