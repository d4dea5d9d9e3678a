package chunk

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/opd-ai/clipxfer/limits"
)

// ErrInvalidChunkSize indicates a non-positive chunk or block size.
var ErrInvalidChunkSize = errors.New("invalid chunk size")

// Chunk is one payload emitted by the Encoder.
type Chunk struct {
	// Payload is base64 text, at most the configured chunk size.
	Payload string
	// Consumed is the number of source bytes read so far.
	Consumed int64
	// Total is the source size reported to NewEncoder.
	Total int64
}

// Encoder produces base64 payload chunks from a byte stream.
// It is lazy, finite and cannot be restarted.
type Encoder struct {
	r         io.Reader
	total     int64
	chunkSize int
	block     []byte

	rem      []byte // 0-2 source bytes not yet encoded
	buf      []byte // encoded text not yet emitted
	consumed int64
	eof      bool
	err      error
}

// NewEncoder creates an encoder reading r, whose size is total, emitting chunks
// of chunkSize base64 characters.
func NewEncoder(r io.Reader, total int64, chunkSize int) (*Encoder, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidChunkSize, chunkSize)
	}
	return &Encoder{
		r:         r,
		total:     total,
		chunkSize: chunkSize,
		block:     make([]byte, limits.DefaultReadBlock),
		rem:       make([]byte, 0, 2),
	}, nil
}

// SetBlockSize changes the size of each read from the source.
// It must be called before the first call to Next.
func (e *Encoder) SetBlockSize(n int) error {
	if n <= 0 {
		return fmt.Errorf("%w: block %d", ErrInvalidChunkSize, n)
	}
	e.block = make([]byte, n)
	return nil
}

// Next returns the next chunk, or io.EOF once the source is exhausted and every
// chunk has been emitted. Only the final chunk may be shorter than the chunk size.
func (e *Encoder) Next() (Chunk, error) {
	for {
		if len(e.buf) >= e.chunkSize {
			return e.emit(e.chunkSize), nil
		}
		if e.eof {
			if len(e.buf) > 0 {
				return e.emit(len(e.buf)), nil
			}
			return Chunk{}, io.EOF
		}
		if e.err != nil {
			return Chunk{}, e.err
		}
		e.fill()
	}
}

// fill reads one block and encodes its 3-byte aligned prefix.
func (e *Encoder) fill() {
	n, err := e.r.Read(e.block)
	if n > 0 {
		e.consumed += int64(n)
		data := append(e.rem, e.block[:n]...)
		cut := (len(data) / 3) * 3
		e.buf = appendEncode(e.buf, data[:cut])
		e.rem = append(e.rem[:0:0], data[cut:]...)
	}

	switch {
	case errors.Is(err, io.EOF):
		if len(e.rem) > 0 {
			e.buf = appendEncode(e.buf, e.rem)
			e.rem = e.rem[:0]
		}
		e.eof = true
	case err != nil:
		e.err = fmt.Errorf("read source: %w", err)
	}
}

func (e *Encoder) emit(n int) Chunk {
	payload := string(e.buf[:n])
	e.buf = append(e.buf[:0], e.buf[n:]...)
	return Chunk{Payload: payload, Consumed: e.consumed, Total: e.total}
}

// EncodedLen returns the base64 length of a source of size bytes.
func EncodedLen(size int64) int64 {
	return ((size + 2) / 3) * 4
}

// EstimateTotal returns the number of chunks a source of size bytes produces at
// chunkSize characters per chunk, never less than one.
func EstimateTotal(size int64, chunkSize int) int {
	if chunkSize <= 0 {
		return 1
	}
	n := (EncodedLen(size) + int64(chunkSize) - 1) / int64(chunkSize)
	if n < 1 {
		return 1
	}
	return int(n)
}

// appendEncode is equivalent to base64.StdEncoding.AppendEncode (Go 1.22+).
func appendEncode(dst, src []byte) []byte {
	n := base64.StdEncoding.EncodedLen(len(src))
	dst = slices.Grow(dst, n)
	base64.StdEncoding.Encode(dst[len(dst):][:n], src)
	return dst[:len(dst)+n]
}
