package file

import (
	"errors"
	"fmt"

	"github.com/opd-ai/clipxfer/frame"
	"github.com/sirupsen/logrus"
)

// handleHeaderText processes one snapshot in the header-crc protocol.
func (r *Receiver) handleHeaderText(text string) (bool, error) {
	f, err := frame.Parse(text)
	if errors.Is(err, frame.ErrNoPayload) {
		logrus.WithFields(logrus.Fields{
			"function": "handleHeaderText",
		}).Debug("Snapshot holds no frame")
		return false, nil
	}
	if err != nil {
		r.skip(err, logrus.Fields{})
		return false, nil
	}

	name := f.Name
	if name == "" {
		name = defaultName
	}

	if r.session == nil || r.session.Name != name {
		if r.session != nil {
			if _, err := r.finishSession(false); err != nil {
				return false, err
			}
		}
		// A new output is only opened by its first frame so that a stale
		// frame of a finished file cannot truncate it.
		if f.Seq != 1 {
			r.skip(fmt.Errorf("%w: got %d, expected 1", ErrSequenceMismatch, f.Seq), logrus.Fields{"name": name})
			return false, nil
		}
		if err := r.beginSession(name); err != nil {
			if isRecoverableOpen(err) {
				r.skip(err, logrus.Fields{"name": name})
				return false, nil
			}
			return false, err
		}
		r.session.Total = f.Total
		r.session.Size = f.Size
		r.session.SizeKnown = f.HasSize
	}

	s := r.session
	if f.Seq != s.ExpectedSeq {
		r.skip(fmt.Errorf("%w: got %d, expected %d", ErrSequenceMismatch, f.Seq, s.ExpectedSeq), logrus.Fields{"name": name})
		return false, nil
	}
	if err := f.Validate(); err != nil {
		r.skip(err, logrus.Fields{"name": name, "seq": f.Seq})
		return false, nil
	}

	if _, err := s.AcceptPayload(f.Payload); err != nil {
		r.abortSession(err)
		return false, err
	}
	s.ExpectedSeq++
	if f.Total > s.Total {
		s.Total = f.Total
	}
	r.report(f.Seq, f.Total, f.CRC, true)

	if f.Seq >= f.Total {
		if _, err := r.finishSession(true); err != nil {
			return true, err
		}
	}
	return true, nil
}
