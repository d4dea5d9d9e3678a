package file

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/opd-ai/clipxfer/cadence"
	"github.com/opd-ai/clipxfer/transport"
	"github.com/sirupsen/logrus"
)

// ReceiverState is the receiver's position in a run.
type ReceiverState uint8

const (
	// ReceiverWaiting has no open output and waits for a first frame.
	ReceiverWaiting ReceiverState = iota
	// ReceiverReceiving has an open session.
	ReceiverReceiving
	// ReceiverStopped has left its loop; any session was closed.
	ReceiverStopped
)

// String returns a human-readable name for the state.
func (s ReceiverState) String() string {
	switch s {
	case ReceiverWaiting:
		return "waiting"
	case ReceiverReceiving:
		return "receiving"
	case ReceiverStopped:
		return "stopped"
	default:
		return fmt.Sprintf("ReceiverState(%d)", uint8(s))
	}
}

// ReceiverOptions configures a Receiver.
type ReceiverOptions struct {
	Protocol Protocol
	Target   Target
	// Cadence paces polls; nil polls back to back.
	Cadence cadence.Cadence
	Clock   cadence.Clock
	// Timeout ends Run with ErrNoProgress when no frame is accepted for this
	// long. Zero disables it.
	Timeout time.Duration
	// AllowRepeats processes a snapshot even when it equals the previous one.
	// Useful with a manual cadence, where the operator decides when to read.
	AllowRepeats bool
	OnProgress   ProgressFunc
	OnFileDone   func(FileResult)
}

// Stats counts what a receiver has seen.
type Stats struct {
	Polls          int
	FramesAccepted int
	FramesSkipped  int
	FilesCompleted int
}

// Receiver polls a transport and reassembles the files it carries.
type Receiver struct {
	transport transport.Transport
	opts      ReceiverOptions
	clock     cadence.Clock

	session      *Session
	lastText     string
	haveLast     bool
	lastProgress time.Time
	stopped      bool

	stats     Stats
	completed []FileResult
}

// NewReceiver validates opts and creates a receiver reading from t.
func NewReceiver(t transport.Transport, opts ReceiverOptions) (*Receiver, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil transport", transport.ErrTransportFailure)
	}
	if opts.Target.IsZero() {
		return nil, ErrNoTarget
	}
	if opts.Timeout < 0 {
		return nil, fmt.Errorf("%w: negative timeout %v", cadence.ErrInvalidInterval, opts.Timeout)
	}
	if opts.Cadence == nil {
		opts.Cadence = cadence.Immediate{}
	}

	clock := opts.Clock
	if clock == nil {
		clock = cadence.SystemClock{}
	}

	return &Receiver{
		transport:    t,
		opts:         opts,
		clock:        clock,
		lastProgress: clock.Now(),
	}, nil
}

// State returns the current receiver state.
func (r *Receiver) State() ReceiverState {
	switch {
	case r.stopped:
		return ReceiverStopped
	case r.session != nil:
		return ReceiverReceiving
	default:
		return ReceiverWaiting
	}
}

// Session returns the open session, or nil.
func (r *Receiver) Session() *Session {
	return r.session
}

// Stats returns the counters collected so far.
func (r *Receiver) Stats() Stats {
	return r.stats
}

// Completed returns the results of every file closed so far.
func (r *Receiver) Completed() []FileResult {
	out := make([]FileResult, len(r.completed))
	copy(out, r.completed)
	return out
}

// Run polls until ctx is done, the cadence quits, the timeout expires or a
// fatal error occurs. Any open session is closed before Run returns.
func (r *Receiver) Run(ctx context.Context) error {
	r.lastProgress = r.clock.Now()

	logrus.WithFields(logrus.Fields{
		"function": "Run",
		"protocol": r.opts.Protocol.String(),
		"target":   r.opts.Target.String(),
		"timeout":  r.opts.Timeout,
	}).Info("Receiver started")

	err := r.loop(ctx)

	if closeErr := r.Close(); closeErr != nil && err == nil {
		err = closeErr
	}

	logrus.WithFields(logrus.Fields{
		"function":        "Run",
		"files_completed": r.stats.FilesCompleted,
		"frames_accepted": r.stats.FramesAccepted,
		"frames_skipped":  r.stats.FramesSkipped,
	}).Info("Receiver stopped")

	return err
}

func (r *Receiver) loop(ctx context.Context) error {
	for {
		if err := r.opts.Cadence.Wait(ctx); err != nil {
			return err
		}

		if r.opts.Timeout > 0 && r.clock.Since(r.lastProgress) > r.opts.Timeout {
			logrus.WithFields(logrus.Fields{
				"function": "Run",
				"timeout":  r.opts.Timeout,
			}).Warn("Stopped: timeout without progress")
			return fmt.Errorf("%w: nothing accepted for %v", ErrNoProgress, r.opts.Timeout)
		}

		if _, err := r.Poll(); err != nil {
			return err
		}
	}
}

// Poll reads one snapshot from the transport and processes it. It reports
// whether a frame was accepted. Only fatal errors are returned; skipped
// frames are logged and counted.
func (r *Receiver) Poll() (bool, error) {
	r.stats.Polls++

	text, err := r.transport.Get()
	if err != nil {
		if errors.Is(err, transport.ErrClosed) {
			return false, err
		}
		logrus.WithFields(logrus.Fields{
			"function": "Poll",
			"error":    err.Error(),
		}).Warn("Transport read failed")
		return false, nil
	}

	if text == "" {
		return false, nil
	}
	if !r.opts.AllowRepeats && r.haveLast && text == r.lastText {
		return false, nil
	}
	r.lastText = text
	r.haveLast = true

	var accepted bool
	switch r.opts.Protocol {
	case ProtocolControl:
		accepted, err = r.handleControlText(text)
	default:
		accepted, err = r.handleHeaderText(text)
	}
	if err != nil {
		return false, err
	}
	if accepted {
		r.stats.FramesAccepted++
		r.lastProgress = r.clock.Now()
	}
	return accepted, nil
}

// Close closes any open session, flushing its pending buffer.
func (r *Receiver) Close() error {
	r.stopped = true
	if r.session == nil {
		return nil
	}
	_, err := r.finishSession(false)
	return err
}

// skip logs and counts a frame that was rejected but is not fatal.
func (r *Receiver) skip(reason error, fields logrus.Fields) {
	r.stats.FramesSkipped++
	fields["function"] = "Poll"
	fields["reason"] = reason.Error()
	logrus.WithFields(fields).Warn("Skipped frame")
}

// beginSession closes any open session and opens a new one for name.
func (r *Receiver) beginSession(name string) error {
	if r.session != nil {
		if _, err := r.finishSession(false); err != nil {
			return err
		}
	}
	s, err := openSession(r.opts.Target, name, r.clock)
	if err != nil {
		return err
	}
	r.session = s
	return nil
}

// finishSession closes the open session and records its result.
func (r *Receiver) finishSession(complete bool) (FileResult, error) {
	s := r.session
	r.session = nil

	res, err := s.Close(complete)
	if s.State() != SessionClosed {
		return res, err
	}
	r.completed = append(r.completed, res)
	if res.Complete {
		r.stats.FilesCompleted++
	}
	if r.opts.OnFileDone != nil {
		r.opts.OnFileDone(res)
	}
	return res, err
}

// abortSession aborts the open session after a fatal error.
func (r *Receiver) abortSession(reason error) {
	if r.session == nil {
		return
	}
	r.session.Abort(reason)
	r.session = nil
}

func (r *Receiver) report(seq, total int, crc uint32, hasCRC bool) {
	s := r.session
	p := Progress{
		Direction:   DirectionIncoming,
		Name:        s.Name,
		Seq:         seq,
		Total:       total,
		Transferred: s.BytesWritten,
		Size:        s.Size,
		SizeKnown:   s.SizeKnown,
		Payload:     s.Received(),
		CRC:         crc,
		HasCRC:      hasCRC,
		Elapsed:     r.clock.Since(s.StartTime),
		Rate:        s.Rate(),
	}

	logrus.WithFields(p.Fields()).Debug("Frame accepted")
	if r.opts.OnProgress != nil {
		r.opts.OnProgress(p)
	}
}

// isRecoverableOpen reports whether a failure to open an output only affects
// the frame that asked for it.
func isRecoverableOpen(err error) bool {
	return errors.Is(err, ErrDirectoryTraversal)
}
