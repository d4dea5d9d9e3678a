package file

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/opd-ai/clipxfer/cadence"
	"github.com/opd-ai/clipxfer/chunk"
	"github.com/opd-ai/clipxfer/frame"
	"github.com/opd-ai/clipxfer/limits"
	"github.com/opd-ai/clipxfer/transport"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// SenderState is the sender's position in a run.
type SenderState uint8

const (
	// SenderIdle is between files, or before and after a run.
	SenderIdle SenderState = iota
	// SenderSending is writing the frames of one file.
	SenderSending
	// SenderFileDone has written the last frame of a file.
	SenderFileDone
	// SenderAborted stopped on a transport or source failure.
	SenderAborted
)

// String returns a human-readable name for the state.
func (s SenderState) String() string {
	switch s {
	case SenderIdle:
		return "idle"
	case SenderSending:
		return "sending"
	case SenderFileDone:
		return "file_done"
	case SenderAborted:
		return "aborted"
	default:
		return fmt.Sprintf("SenderState(%d)", uint8(s))
	}
}

// SenderOptions configures a Sender.
type SenderOptions struct {
	Protocol Protocol
	// ChunkSize is the payload size in base64 characters. The control
	// protocol rounds it down to a multiple of 4.
	ChunkSize int
	// BlockSize is the source read size; zero uses limits.DefaultReadBlock.
	BlockSize int
	// Cadence paces frame writes; nil writes back to back.
	Cadence    cadence.Cadence
	Clock      cadence.Clock
	OnProgress ProgressFunc
}

// Sender writes source files to a transport as a sequence of frames.
type Sender struct {
	transport transport.Transport
	opts      SenderOptions
	clock     cadence.Clock
	state     SenderState
}

// NewSender validates opts and creates a sender writing to t.
func NewSender(t transport.Transport, opts SenderOptions) (*Sender, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", transport.ErrTransportFailure)
	}
	if opts.ChunkSize == 0 {
		opts.ChunkSize = limits.DefaultChunkSize
	}
	if err := limits.ValidateChunkSize(opts.ChunkSize); err != nil {
		return nil, err
	}
	if opts.Protocol == ProtocolControl {
		opts.ChunkSize = limits.AlignChunkSize(opts.ChunkSize)
	}
	if opts.BlockSize < 0 {
		return nil, fmt.Errorf("%w: block %d", chunk.ErrInvalidChunkSize, opts.BlockSize)
	}
	if opts.Cadence == nil {
		opts.Cadence = cadence.Immediate{}
	}

	clock := opts.Clock
	if clock == nil {
		clock = cadence.SystemClock{}
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewSender",
		"protocol":   opts.Protocol.String(),
		"chunk_size": opts.ChunkSize,
	}).Debug("Sender created")

	return &Sender{transport: t, opts: opts, clock: clock}, nil
}

// State returns the current sender state.
func (s *Sender) State() SenderState {
	return s.state
}

// ChunkSize returns the effective payload size in base64 characters.
func (s *Sender) ChunkSize() int {
	return s.opts.ChunkSize
}

// Send writes every source in order. It stops at the first transport or
// source failure, on cancellation, or when the cadence returns
// cadence.ErrQuit; the results of the files finished so far are returned in
// every case.
func (s *Sender) Send(ctx context.Context, sources []Source) ([]FileResult, error) {
	results := make([]FileResult, 0, len(sources))

	for i, src := range sources {
		logrus.WithFields(logrus.Fields{
			"function": "Send",
			"index":    i + 1,
			"count":    len(sources),
			"name":     src.Name,
			"size":     limits.FormatBytes(float64(src.Size)),
		}).Info("Sending file")

		res, err := s.sendFile(ctx, src)
		if err != nil {
			if errors.Is(err, transport.ErrTransportFailure) || errors.Is(err, ErrSourceFailure) {
				s.state = SenderAborted
			} else {
				s.state = SenderIdle
			}
			logrus.WithFields(logrus.Fields{
				"function": "Send",
				"name":     src.Name,
				"state":    s.state.String(),
				"error":    err.Error(),
			}).Warn("Send stopped")
			return results, err
		}
		if res.Frames > 0 {
			results = append(results, res)
		}
		s.state = SenderIdle
	}

	return results, nil
}

func (s *Sender) sendFile(ctx context.Context, src Source) (FileResult, error) {
	if s.opts.Protocol == ProtocolHeaderCRC && src.Size == 0 {
		logrus.WithFields(logrus.Fields{
			"function": "sendFile",
			"name":     src.Name,
		}).Warn("Skipping empty file: header-crc frames need a payload, use the control protocol")
		return FileResult{Name: src.Name, Path: src.Path}, nil
	}

	f, err := os.Open(src.Path)
	if err != nil {
		return FileResult{}, fmt.Errorf("%w: %v", ErrSourceFailure, err)
	}
	defer f.Close()

	digest, err := blake2b.New256(nil)
	if err != nil {
		return FileResult{}, err
	}

	enc, err := chunk.NewEncoder(io.TeeReader(f, digest), src.Size, s.opts.ChunkSize)
	if err != nil {
		return FileResult{}, err
	}
	if s.opts.BlockSize > 0 {
		if err := enc.SetBlockSize(s.opts.BlockSize); err != nil {
			return FileResult{}, err
		}
	}

	s.state = SenderSending
	run := &fileRun{
		sender: s,
		src:    src,
		start:  s.clock.Now(),
	}
	run.rate.start(run.start)

	switch s.opts.Protocol {
	case ProtocolControl:
		err = run.sendControl(ctx, enc)
	default:
		err = run.sendHeaderCRC(ctx, enc)
	}
	if err != nil {
		return FileResult{}, err
	}
	s.state = SenderFileDone

	res := FileResult{
		Name:     src.Name,
		Path:     src.Path,
		Bytes:    run.consumed,
		Frames:   run.frames,
		Digest:   hex.EncodeToString(digest.Sum(nil)),
		Elapsed:  s.clock.Since(run.start),
		Complete: true,
	}

	logrus.WithFields(logrus.Fields{
		"function": "sendFile",
		"name":     res.Name,
		"bytes":    res.Bytes,
		"frames":   res.Frames,
		"blake2b":  res.Digest,
		"elapsed":  res.Elapsed,
	}).Info("File sent")

	return res, nil
}

// fileRun tracks one file while its frames are written.
type fileRun struct {
	sender   *Sender
	src      Source
	start    time.Time
	rate     rateMeter
	frames   int
	seq      int
	payload  int64
	consumed int64
}

func (r *fileRun) sendHeaderCRC(ctx context.Context, enc *chunk.Encoder) error {
	total := chunk.EstimateTotal(r.src.Size, r.sender.opts.ChunkSize)
	name := frame.SanitizeName(r.src.Name)

	for {
		c, err := enc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceFailure, err)
		}

		r.seq++
		f := frame.New(r.seq, total, c.Payload, r.src.Size, name)
		if err := r.put(ctx, f.String()); err != nil {
			return err
		}
		r.report(c, f.CRC, true, total)
	}

	if r.seq != total {
		logrus.WithFields(logrus.Fields{
			"function":  "sendHeaderCRC",
			"name":      r.src.Name,
			"sent":      r.seq,
			"announced": total,
		}).Warn("Chunk count differs from announced total")
	}
	return nil
}

func (r *fileRun) sendControl(ctx context.Context, enc *chunk.Encoder) error {
	size := r.src.Size
	start := frame.Control{Type: frame.ControlStart, Name: r.src.Name, Size: &size}
	if !r.src.ModTime.IsZero() {
		mtime := r.src.ModTime.Unix()
		start.MTime = &mtime
	}
	if err := r.putControl(ctx, start); err != nil {
		return err
	}

	for {
		c, err := enc.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("%w: %v", ErrSourceFailure, err)
		}

		r.seq++
		if err := r.put(ctx, c.Payload); err != nil {
			return err
		}
		r.report(c, 0, false, 0)
	}

	return r.putControl(ctx, frame.Control{Type: frame.ControlEnd, Name: r.src.Name})
}

func (r *fileRun) putControl(ctx context.Context, c frame.Control) error {
	text, err := frame.EncodeControl(c)
	if err != nil {
		return err
	}
	return r.put(ctx, text)
}

// put waits for the cadence and writes text to the transport.
func (r *fileRun) put(ctx context.Context, text string) error {
	if err := r.sender.opts.Cadence.Wait(ctx); err != nil {
		return err
	}
	if err := r.sender.transport.Put(text); err != nil {
		if errors.Is(err, transport.ErrTransportFailure) {
			return fmt.Errorf("put %s frame %d: %w", r.src.Name, r.frames+1, err)
		}
		return fmt.Errorf("%w: put %s frame %d: %w", transport.ErrTransportFailure, r.src.Name, r.frames+1, err)
	}
	r.frames++
	return nil
}

func (r *fileRun) report(c chunk.Chunk, crc uint32, hasCRC bool, total int) {
	now := r.sender.clock.Now()
	moved := c.Consumed - r.consumed
	r.consumed = c.Consumed
	r.payload += int64(len(c.Payload))
	rate := r.rate.update(moved, now)

	p := Progress{
		Direction:   DirectionOutgoing,
		Name:        r.src.Name,
		Seq:         r.seq,
		Total:       total,
		Transferred: c.Consumed,
		Size:        r.src.Size,
		SizeKnown:   true,
		Payload:     r.payload,
		CRC:         crc,
		HasCRC:      hasCRC,
		Elapsed:     now.Sub(r.start),
		Rate:        rate,
	}

	logrus.WithFields(p.Fields()).Debug("Frame sent")
	if r.sender.opts.OnProgress != nil {
		r.sender.opts.OnProgress(p)
	}
}
