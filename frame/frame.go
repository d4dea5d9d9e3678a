package frame

import (
	"fmt"
	"strconv"
	"strings"
)

// Magic is the tag that opens every header line.
const Magic = "B64CLIP1"

const (
	fieldSep = "|"
	nameSep  = "_"
)

// Header is the decoded first line of a frame.
type Header struct {
	Seq    int
	Total  int
	Length int
	CRC    uint32

	// Size is the source file size when HasSize is set.
	Size    int64
	HasSize bool

	// Name is the source name; empty when the sender did not provide one.
	Name string
}

// Frame is one header plus the payload chunk it describes.
type Frame struct {
	Header
	Payload string
}

// New builds a frame for payload, filling in its length and CRC.
func New(seq, total int, payload string, size int64, name string) Frame {
	return Frame{
		Header: Header{
			Seq:     seq,
			Total:   total,
			Length:  len(payload),
			CRC:     Checksum(payload),
			Size:    size,
			HasSize: true,
			Name:    name,
		},
		Payload: payload,
	}
}

// SanitizeName replaces the field separator, which cannot appear inside a value.
func SanitizeName(name string) string {
	return strings.ReplaceAll(name, fieldSep, nameSep)
}

// Encode renders the header line without a trailing newline.
func (h Header) Encode() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s|seq=%d|total=%d|len=%d|crc=%s", Magic, h.Seq, h.Total, h.Length, FormatChecksum(h.CRC))
	if h.HasSize {
		fmt.Fprintf(&b, "|fsize=%d", h.Size)
	}
	if h.Name != "" {
		fmt.Fprintf(&b, "|name=%s", SanitizeName(h.Name))
	}
	return b.String()
}

// String renders the full frame text as written to the clipboard.
func (f Frame) String() string {
	return f.Header.Encode() + "\n" + f.Payload
}

// DecodeHeader parses a header line. Unknown fields are ignored.
func DecodeHeader(line string) (Header, error) {
	parts := strings.Split(strings.TrimSpace(line), fieldSep)
	if len(parts) == 0 || parts[0] != Magic {
		return Header{}, fmt.Errorf("%w: bad magic", ErrMalformedHeader)
	}

	fields := make(map[string]string, len(parts)-1)
	for _, p := range parts[1:] {
		k, v, ok := strings.Cut(p, "=")
		if !ok {
			continue
		}
		fields[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}

	var h Header
	var err error
	if h.Seq, err = requiredInt(fields, "seq"); err != nil {
		return Header{}, err
	}
	if h.Total, err = requiredInt(fields, "total"); err != nil {
		return Header{}, err
	}
	if h.Length, err = requiredInt(fields, "len"); err != nil {
		return Header{}, err
	}

	crc, ok := fields["crc"]
	if !ok {
		return Header{}, fmt.Errorf("%w: missing field crc", ErrMalformedHeader)
	}
	c, err := strconv.ParseUint(crc, 16, 32)
	if err != nil {
		return Header{}, fmt.Errorf("%w: field crc=%q", ErrMalformedHeader, crc)
	}
	h.CRC = uint32(c)

	if v, ok := fields["fsize"]; ok {
		size, err := strconv.ParseInt(v, 10, 64)
		if err != nil || size < 0 {
			return Header{}, fmt.Errorf("%w: field fsize=%q", ErrMalformedHeader, v)
		}
		h.Size = size
		h.HasSize = true
	}
	h.Name = fields["name"]

	return h, nil
}

func requiredInt(fields map[string]string, key string) (int, error) {
	v, ok := fields[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing field %s", ErrMalformedHeader, key)
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: field %s=%q", ErrMalformedHeader, key, v)
	}
	return n, nil
}

// Split separates clipboard text into its header line and trimmed payload.
// ok is false when the text holds no newline or the payload is blank.
func Split(text string) (header, payload string, ok bool) {
	header, payload, found := strings.Cut(text, "\n")
	if !found {
		return "", "", false
	}
	payload = strings.TrimSpace(payload)
	if payload == "" {
		return "", "", false
	}
	return header, payload, true
}

// Parse decodes clipboard text into a frame. It does not validate the payload
// against the header; call Validate for that.
func Parse(text string) (Frame, error) {
	line, payload, ok := Split(text)
	if !ok {
		return Frame{}, ErrNoPayload
	}
	h, err := DecodeHeader(line)
	if err != nil {
		return Frame{}, err
	}
	return Frame{Header: h, Payload: payload}, nil
}

// Validate checks the payload length and then its CRC against the header.
func (f Frame) Validate() error {
	if f.Length != len(f.Payload) {
		return fmt.Errorf("%w: header %d, actual %d", ErrLengthMismatch, f.Length, len(f.Payload))
	}
	if actual := Checksum(f.Payload); actual != f.CRC {
		return fmt.Errorf("%w: header %s, actual %s", ErrChecksumMismatch, FormatChecksum(f.CRC), FormatChecksum(actual))
	}
	return nil
}
