package file

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/opd-ai/clipxfer/frame"
	"github.com/sirupsen/logrus"
)

// handleControlText processes one snapshot in the control protocol.
// Text that is not base64 is ignored: without a header there is no way to
// tell a damaged chunk from unrelated clipboard content.
func (r *Receiver) handleControlText(text string) (bool, error) {
	decoded, err := base64.StdEncoding.Strict().DecodeString(strings.TrimSpace(text))
	if err != nil {
		r.skip(fmt.Errorf("not base64: %w", err), logrus.Fields{})
		return false, nil
	}
	if len(decoded) == 0 {
		return false, nil
	}

	c, isControl, err := frame.DecodeControl(decoded)
	if err != nil {
		r.skip(err, logrus.Fields{})
		return false, nil
	}
	if !isControl {
		return r.handleControlData(decoded)
	}

	switch c.Type {
	case frame.ControlStart:
		if err := r.beginSession(c.Name); err != nil {
			if isRecoverableOpen(err) {
				r.skip(err, logrus.Fields{"name": c.Name})
				return false, nil
			}
			return false, err
		}
		if c.Size != nil {
			r.session.Size = *c.Size
			r.session.SizeKnown = true
		}
		logrus.WithFields(logrus.Fields{
			"function":   "handleControlText",
			"session_id": r.session.ID,
			"name":       c.Name,
			"path":       r.session.Path,
			"size":       r.session.Size,
		}).Info("Start frame received")
		return true, nil

	case frame.ControlEnd:
		if r.session == nil {
			logrus.WithFields(logrus.Fields{
				"function": "handleControlText",
				"name":     c.Name,
			}).Warn("End frame without an open file")
			return false, nil
		}
		if r.session.Name != c.Name {
			logrus.WithFields(logrus.Fields{
				"function": "handleControlText",
				"name":     c.Name,
				"open":     r.session.Name,
			}).Warn("End frame names a different file, closing the open one")
		}
		if _, err := r.finishSession(true); err != nil {
			return false, err
		}
		return true, nil

	default:
		logrus.WithFields(logrus.Fields{
			"function": "handleControlText",
			"type":     string(c.Type),
		}).Warn("Unknown control frame type")
		return false, nil
	}
}

func (r *Receiver) handleControlData(data []byte) (bool, error) {
	if r.session == nil {
		r.skip(ErrNoOpenFile, logrus.Fields{"bytes": len(data)})
		return false, nil
	}

	s := r.session
	if err := s.WriteRaw(data); err != nil {
		r.abortSession(err)
		return false, err
	}
	s.ExpectedSeq++
	r.report(s.Frames, 0, 0, false)
	return true, nil
}
