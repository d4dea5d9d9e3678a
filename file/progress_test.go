package file

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressPercentage(t *testing.T) {
	tests := []struct {
		name string
		p    Progress
		want float64
	}{
		{name: "half", p: Progress{Transferred: 50, Size: 100, SizeKnown: true}, want: 50},
		{name: "empty file", p: Progress{Size: 0, SizeKnown: true}, want: 100},
		{name: "unknown size", p: Progress{Transferred: 50}, want: -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.Percentage())
		})
	}
}

func TestProgressETA(t *testing.T) {
	p := Progress{Transferred: 100, Size: 300, SizeKnown: true, Rate: 50}
	assert.Equal(t, 4*time.Second, p.ETA())

	p.Rate = 0
	assert.Zero(t, p.ETA())

	p = Progress{Transferred: 300, Size: 300, SizeKnown: true, Rate: 50}
	assert.Zero(t, p.ETA())
}

func TestProgressString(t *testing.T) {
	p := Progress{Name: "a.bin", Seq: 3, Total: 10, Transferred: 1024, Size: 2048, SizeKnown: true}
	assert.Equal(t, "[3/10] a.bin 50.00% (1.00KB/2.00KB)", p.String())

	p = Progress{Name: "a.bin", Seq: 2, Transferred: 512}
	assert.Equal(t, "[2] a.bin 512.00B", p.String())
}

func TestProgressFields(t *testing.T) {
	p := Progress{
		Direction:   DirectionIncoming,
		Name:        "a.bin",
		Seq:         1,
		Total:       2,
		Transferred: 10,
		Size:        20,
		SizeKnown:   true,
		CRC:         0xCBF43926,
		HasCRC:      true,
	}
	fields := p.Fields()
	assert.Equal(t, "CBF43926", fields["crc32"])
	assert.Equal(t, 2, fields["total"])
	assert.Equal(t, "50.00", fields["percent"])
	assert.Contains(t, fields, "written")
	assert.NotContains(t, fields, "processed")

	p.Direction = DirectionOutgoing
	p.HasCRC = false
	fields = p.Fields()
	assert.Contains(t, fields, "processed")
	assert.NotContains(t, fields, "crc32")
}

func TestRateMeterSmoothing(t *testing.T) {
	clock := newMockTimeProvider()
	var m rateMeter
	m.start(clock.Now())

	clock.advance(time.Second)
	assert.Equal(t, float64(100), m.update(100, clock.Now()))

	clock.advance(time.Second)
	assert.InDelta(t, 0.7*100+0.3*200, m.update(200, clock.Now()), 1e-9)

	// No elapsed time leaves the rate unchanged.
	assert.InDelta(t, 130, m.update(500, clock.Now()), 1e-9)
}
