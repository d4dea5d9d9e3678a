package file

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/opd-ai/clipxfer/cadence"
	"github.com/opd-ai/clipxfer/chunk"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/blake2b"
)

// SessionState is the lifecycle of a received file.
type SessionState uint8

const (
	// SessionOpen accepts data.
	SessionOpen SessionState = iota
	// SessionClosed was flushed and closed normally.
	SessionClosed
	// SessionAborted was closed after a fatal error.
	SessionAborted
)

// String returns a human-readable name for the state.
func (s SessionState) String() string {
	switch s {
	case SessionOpen:
		return "open"
	case SessionClosed:
		return "closed"
	case SessionAborted:
		return "aborted"
	default:
		return fmt.Sprintf("SessionState(%d)", uint8(s))
	}
}

// FileResult summarizes one file sent or received.
type FileResult struct {
	SessionID string
	Name      string
	Path      string
	Bytes     int64
	Frames    int
	// Digest is the hex BLAKE2b-256 of the file content.
	Digest  string
	Elapsed time.Duration
	// Complete is false when the session ended before its last frame.
	Complete bool
}

// Session is the receiver's state for one output file.
type Session struct {
	ID        string
	Name      string
	Path      string
	Size      int64
	SizeKnown bool
	// Total is the announced chunk count, zero when unknown.
	Total       int
	ExpectedSeq int
	StartTime   time.Time

	BytesWritten int64
	Frames       int

	state       SessionState
	out         *os.File
	reassembler chunk.Reassembler
	digest      hash.Hash
	rate        rateMeter
	clock       cadence.Clock
}

// openSession creates the output for name and returns a session expecting seq 1.
func openSession(target Target, name string, clock cadence.Clock) (*Session, error) {
	out, path, err := target.Open(name)
	if err != nil {
		return nil, err
	}

	digest, err := blake2b.New256(nil)
	if err != nil {
		out.Close()
		return nil, err
	}

	s := &Session{
		ID:          uuid.NewString(),
		Name:        name,
		Path:        path,
		ExpectedSeq: 1,
		StartTime:   clock.Now(),
		out:         out,
		digest:      digest,
		clock:       clock,
	}
	s.rate.start(s.StartTime)

	logrus.WithFields(logrus.Fields{
		"function":   "openSession",
		"session_id": s.ID,
		"name":       name,
		"path":       path,
	}).Info("Receiving file")

	return s, nil
}

// State returns the session lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Received returns the number of base64 characters accepted so far.
func (s *Session) Received() int64 {
	return s.reassembler.Received()
}

// Rate returns the smoothed write rate in bytes per second.
func (s *Session) Rate() float64 {
	return s.rate.rate
}

// AcceptPayload feeds base64 text through the reassembler and writes every
// complete group to the output. It returns the number of bytes written.
func (s *Session) AcceptPayload(payload string) (int, error) {
	if s.state != SessionOpen {
		return 0, fmt.Errorf("%w: session %s is %s", ErrOutputFailure, s.ID, s.state)
	}
	data, err := s.reassembler.Accept(payload)
	if err != nil {
		return 0, err
	}
	s.Frames++
	return len(data), s.write(data)
}

// WriteRaw writes already decoded bytes to the output.
func (s *Session) WriteRaw(data []byte) error {
	if s.state != SessionOpen {
		return fmt.Errorf("%w: session %s is %s", ErrOutputFailure, s.ID, s.state)
	}
	s.Frames++
	return s.write(data)
}

func (s *Session) write(data []byte) error {
	if len(data) > 0 {
		if _, err := s.out.Write(data); err != nil {
			return fmt.Errorf("%w: write %s: %v", ErrOutputFailure, s.Path, err)
		}
		s.digest.Write(data)
		s.BytesWritten += int64(len(data))
	}
	s.rate.update(int64(len(data)), s.clock.Now())
	return nil
}

// Close flushes the pending buffer, syncs and closes the output. A pending
// tail that does not decode aborts the session and returns chunk.ErrCorruptBase64.
// A session closed as complete whose written size differs from the announced
// size is reported incomplete with ErrSizeMismatch.
func (s *Session) Close(complete bool) (FileResult, error) {
	if s.state != SessionOpen {
		return s.result(complete), nil
	}

	tail, err := s.reassembler.Flush()
	if err != nil {
		s.Abort(err)
		return s.result(false), err
	}
	if err := s.write(tail); err != nil {
		s.Abort(err)
		return s.result(false), err
	}

	if err := s.out.Sync(); err != nil {
		s.Abort(err)
		return s.result(false), fmt.Errorf("%w: sync %s: %v", ErrOutputFailure, s.Path, err)
	}
	if err := s.out.Close(); err != nil {
		s.state = SessionAborted
		return s.result(false), fmt.Errorf("%w: close %s: %v", ErrOutputFailure, s.Path, err)
	}
	s.state = SessionClosed

	res := s.result(complete)
	fields := logrus.Fields{
		"function":   "Session.Close",
		"session_id": s.ID,
		"name":       s.Name,
		"path":       s.Path,
		"written":    s.BytesWritten,
		"frames":     res.Frames,
		"blake2b":    res.Digest,
		"elapsed":    res.Elapsed.Round(time.Millisecond),
		"complete":   complete,
	}
	if s.SizeKnown && s.Size != s.BytesWritten {
		fields["expected"] = s.Size
		if complete {
			res.Complete = false
			fields["complete"] = false
			logrus.WithFields(fields).Error("Written size differs from announced size")
			return res, fmt.Errorf("%w: %s wrote %d of %d bytes", ErrSizeMismatch, s.Path, s.BytesWritten, s.Size)
		}
		logrus.WithFields(fields).Warn("Written size differs from announced size")
	} else {
		logrus.WithFields(fields).Info("File closed")
	}

	return res, nil
}

// Abort closes the output without flushing. The partial file is left on disk.
func (s *Session) Abort(reason error) {
	if s.state != SessionOpen {
		return
	}
	s.state = SessionAborted
	closeErr := s.out.Close()

	fields := logrus.Fields{
		"function":   "Session.Abort",
		"session_id": s.ID,
		"name":       s.Name,
		"path":       s.Path,
		"written":    s.BytesWritten,
	}
	if reason != nil {
		fields["error"] = reason.Error()
	}
	if closeErr != nil && !errors.Is(closeErr, os.ErrClosed) {
		fields["close_error"] = closeErr.Error()
	}
	logrus.WithFields(fields).Error("Session aborted")
}

func (s *Session) result(complete bool) FileResult {
	return FileResult{
		SessionID: s.ID,
		Name:      s.Name,
		Path:      s.Path,
		Bytes:     s.BytesWritten,
		Frames:    s.Frames,
		Digest:    hex.EncodeToString(s.digest.Sum(nil)),
		Elapsed:   s.clock.Since(s.StartTime),
		Complete:  complete,
	}
}
