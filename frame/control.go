package frame

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// ControlMagic prefixes the decoded bytes of every control frame.
const ControlMagic = "J2B64v1\n"

// ControlType distinguishes the start and end of a file.
type ControlType string

const (
	// ControlStart opens a new output file.
	ControlStart ControlType = "start"
	// ControlEnd closes the current output file.
	ControlEnd ControlType = "end"
)

// unknownName is used when a control frame omits the name.
const unknownName = "unknown"

// Control is the JSON body of a control frame.
type Control struct {
	Type  ControlType `json:"type"`
	Name  string      `json:"name"`
	Size  *int64      `json:"size,omitempty"`
	MTime *int64      `json:"mtime,omitempty"`
}

// EncodeControl renders a control frame as clipboard text (base64).
func EncodeControl(c Control) (string, error) {
	body, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encode control frame: %w", err)
	}
	raw := make([]byte, 0, len(ControlMagic)+len(body))
	raw = append(raw, ControlMagic...)
	raw = append(raw, body...)
	return base64.StdEncoding.EncodeToString(raw), nil
}

// IsControl reports whether decoded payload bytes form a control frame.
func IsControl(decoded []byte) bool {
	return bytes.HasPrefix(decoded, []byte(ControlMagic))
}

// DecodeControl decodes a control frame from decoded payload bytes.
// ok is false when the bytes are plain file data.
func DecodeControl(decoded []byte) (Control, bool, error) {
	if !IsControl(decoded) {
		return Control{}, false, nil
	}
	var c Control
	if err := json.Unmarshal(decoded[len(ControlMagic):], &c); err != nil {
		return Control{}, true, fmt.Errorf("%w: %v", ErrMalformedControl, err)
	}
	if c.Name == "" {
		c.Name = unknownName
	}
	return c, true, nil
}
