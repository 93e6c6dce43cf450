package osc

import (
	"encoding/binary"
	"time"
)

const (
	// TimetagImmediate is the special time tag meaning "now": 63 zero bits
	// followed by a one.
	TimetagImmediate Timetag = 1

	secondsFrom1900To1970 = 2208988800
)

// Timetag represents an OSC Time Tag.
// Time tags are represented by a 64 bit fixed point number. The first 32 bits
// specify the number of seconds since midnight on January 1, 1900, and the
// last 32 bits specify fractional parts of a second to a precision of about
// 200 picoseconds. This is the representation used by Internet NTP timestamps.
type Timetag uint64

// NewTimetag builds a time tag from its two words.
func NewTimetag(seconds, fraction uint32) Timetag {
	return Timetag(uint64(seconds)<<32 | uint64(fraction))
}

// NewTimetagFromTime returns a new OSC time tag object from a time.Time.
func NewTimetagFromTime(t time.Time) Timetag {
	secs := uint64(t.Unix() + secondsFrom1900To1970)
	frac := uint64(t.Nanosecond()) << 32 / uint64(time.Second)
	return Timetag(secs<<32 | frac)
}

// Time converts the time tag to a time.Time.
func (t Timetag) Time() time.Time {
	secs := int64(t.SecondsSinceEpoch()) - secondsFrom1900To1970
	nsec := uint64(t.FractionalSecond()) * uint64(time.Second) >> 32
	return time.Unix(secs, int64(nsec))
}

// FractionalSecond returns the low 32 bits of the time tag.
func (t Timetag) FractionalSecond() uint32 {
	return uint32(t)
}

// SecondsSinceEpoch returns the high 32 bits, seconds since 1900.
func (t Timetag) SecondsSinceEpoch() uint32 {
	return uint32(t >> 32)
}

// IsImmediate reports whether t is the "immediately" time tag.
func (t Timetag) IsImmediate() bool {
	return t == TimetagImmediate
}

// MarshalBinary converts the OSC time tag to a byte array.
func (t Timetag) MarshalBinary() ([]byte, error) {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(t))
	return b, nil
}
