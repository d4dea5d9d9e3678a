package file

import (
	"fmt"
	"time"

	"github.com/opd-ai/clipxfer/frame"
	"github.com/opd-ai/clipxfer/limits"
	"github.com/sirupsen/logrus"
)

// Direction tells whether a progress report comes from the sender or the
// receiver.
type Direction uint8

const (
	// DirectionOutgoing reports frames written by the sender.
	DirectionOutgoing Direction = iota
	// DirectionIncoming reports frames accepted by the receiver.
	DirectionIncoming
)

// Progress is reported after every frame sent or accepted.
type Progress struct {
	Direction Direction
	Name      string
	Seq       int
	// Total is zero when the protocol does not announce a chunk count.
	Total int

	// Transferred counts source bytes read (sending) or output bytes written
	// (receiving).
	Transferred int64
	Size        int64
	SizeKnown   bool

	// Payload counts base64 characters sent or accepted.
	Payload int64
	CRC     uint32
	HasCRC  bool

	Elapsed time.Duration
	// Rate is a smoothed throughput in bytes per second.
	Rate float64
}

// ProgressFunc receives progress reports.
type ProgressFunc func(Progress)

// Percentage returns completion in percent, or 100 for an empty file and -1
// when the size is unknown.
func (p Progress) Percentage() float64 {
	if !p.SizeKnown {
		return -1
	}
	if p.Size == 0 {
		return 100
	}
	return float64(p.Transferred) / float64(p.Size) * 100
}

// ETA returns the estimated time remaining, or zero when it cannot be known.
func (p Progress) ETA() time.Duration {
	if !p.SizeKnown || p.Rate <= 0 || p.Transferred >= p.Size {
		return 0
	}
	remaining := float64(p.Size-p.Transferred) / p.Rate
	return time.Duration(remaining * float64(time.Second))
}

// Fields renders the report as structured log fields.
func (p Progress) Fields() logrus.Fields {
	fields := logrus.Fields{
		"name":    p.Name,
		"seq":     p.Seq,
		"payload": limits.FormatBytes(float64(p.Payload)),
		"rate":    limits.FormatBytes(p.Rate) + "/s",
		"elapsed": p.Elapsed.Round(time.Millisecond),
	}
	if p.Total > 0 {
		fields["total"] = p.Total
	}
	if p.HasCRC {
		fields["crc32"] = frame.FormatChecksum(p.CRC)
	}

	switch p.Direction {
	case DirectionOutgoing:
		fields["processed"] = limits.FormatBytes(float64(p.Transferred))
	default:
		fields["written"] = limits.FormatBytes(float64(p.Transferred))
	}

	if p.SizeKnown {
		fields["size"] = limits.FormatBytes(float64(p.Size))
		fields["percent"] = fmt.Sprintf("%.2f", p.Percentage())
		if eta := p.ETA(); eta > 0 {
			fields["eta"] = eta.Round(time.Second)
		}
	}
	return fields
}

// String renders a one-line summary such as "[3/10] report.pdf 30.00%".
func (p Progress) String() string {
	prefix := fmt.Sprintf("[%d]", p.Seq)
	if p.Total > 0 {
		prefix = fmt.Sprintf("[%d/%d]", p.Seq, p.Total)
	}
	if !p.SizeKnown {
		return fmt.Sprintf("%s %s %s", prefix, p.Name, limits.FormatBytes(float64(p.Transferred)))
	}
	return fmt.Sprintf("%s %s %.2f%% (%s/%s)", prefix, p.Name, p.Percentage(),
		limits.FormatBytes(float64(p.Transferred)), limits.FormatBytes(float64(p.Size)))
}

// rateMeter keeps an exponentially smoothed bytes-per-second rate.
type rateMeter struct {
	last time.Time
	rate float64
}

func (m *rateMeter) start(now time.Time) {
	m.last = now
	m.rate = 0
}

// update records n bytes moved at now and returns the smoothed rate.
func (m *rateMeter) update(n int64, now time.Time) float64 {
	if !m.last.IsZero() {
		if d := now.Sub(m.last).Seconds(); d > 0 {
			instant := float64(n) / d
			if m.rate == 0 {
				m.rate = instant
			} else {
				m.rate = 0.7*m.rate + 0.3*instant
			}
		}
	}
	m.last = now
	return m.rate
}
