package chunk

import (
	"encoding/base64"
	"errors"
	"fmt"
)

// ErrCorruptBase64 indicates payload text that is not valid base64. The bytes
// it stood for cannot be reconstructed, so the file being reassembled is lost.
var ErrCorruptBase64 = errors.New("corrupt base64 payload")

// Reassembler accumulates base64 text across chunks and decodes every complete
// 4-character group in order. The zero value is ready to use.
type Reassembler struct {
	pending  []byte
	received int64
}

// Accept appends text to the pending buffer and returns the bytes decoded from
// its longest multiple-of-4 prefix. The result may be empty.
func (r *Reassembler) Accept(text string) ([]byte, error) {
	r.pending = append(r.pending, text...)
	r.received += int64(len(text))

	n := (len(r.pending) / 4) * 4
	if n == 0 {
		return nil, nil
	}

	out, err := decode(r.pending[:n])
	if err != nil {
		return nil, err
	}
	r.pending = append(r.pending[:0], r.pending[n:]...)
	return out, nil
}

// Flush decodes whatever remains in the pending buffer and empties it.
func (r *Reassembler) Flush() ([]byte, error) {
	if len(r.pending) == 0 {
		return nil, nil
	}
	out, err := decode(r.pending)
	if err != nil {
		return nil, err
	}
	r.pending = r.pending[:0]
	return out, nil
}

// Pending returns the number of base64 characters waiting for a full group.
func (r *Reassembler) Pending() int {
	return len(r.pending)
}

// Received returns the total number of base64 characters accepted.
func (r *Reassembler) Received() int64 {
	return r.received
}

// Reset discards all pending text and counters.
func (r *Reassembler) Reset() {
	r.pending = r.pending[:0]
	r.received = 0
}

func decode(src []byte) ([]byte, error) {
	dst := make([]byte, base64.StdEncoding.DecodedLen(len(src)))
	n, err := base64.StdEncoding.Decode(dst, src)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptBase64, err)
	}
	return dst[:n], nil
}
