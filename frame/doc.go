// Package frame implements the text framing used to carry base64 payload chunks
// through a shared clipboard.
//
// # Header-CRC Frames
//
// Each clipboard write is a single header line, a newline, then the payload:
//
//	B64CLIP1|seq=3|total=12|len=4194304|crc=1A2B3C4D|fsize=9437184|name=disk.img
//	<base64 payload>
//
// seq, total, len and crc are required; fsize and name are optional. The CRC is
// the IEEE CRC-32 of the literal payload text, rendered as eight uppercase hex
// digits.
//
//	f := frame.New(seq, total, payload, size, name)
//	text := f.String()
//
//	parsed, err := frame.Parse(text)
//	if err != nil {
//	    // errors.Is(err, frame.ErrMalformedHeader) or frame.ErrNoPayload
//	}
//	if err := parsed.Validate(); err != nil {
//	    // errors.Is(err, frame.ErrLengthMismatch) or frame.ErrChecksumMismatch
//	}
//
// # Control Frames
//
// The control-frame protocol carries no header at all. Every clipboard write is
// plain base64; decoded bytes that begin with ControlMagic hold a JSON object
// announcing the start or end of a file, anything else is raw file data:
//
//	text, err := frame.EncodeControl(frame.Control{Type: frame.ControlStart, Name: "a.txt"})
//
//	ctrl, ok, err := frame.DecodeControl(decoded)
//
// # Error Handling
//
// All parse and validation failures wrap one of the sentinel errors so callers
// can classify them with errors.Is:
//
//	var (
//	    ErrMalformedHeader   // missing magic or required field
//	    ErrNoPayload         // text carries no payload (not a frame at all)
//	    ErrLengthMismatch    // len field differs from payload length
//	    ErrChecksumMismatch  // crc field differs from recomputed CRC
//	    ErrMalformedControl  // control frame JSON could not be decoded
//	)
package frame
