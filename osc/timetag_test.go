package osc

import (
	"testing"
	"time"
)

func TestNewTimetagFromTime(t *testing.T) {
	tests := []struct {
		name string
		time time.Time
	}{
		{"epoch", time.Unix(0, 0)},
		{"half_second", time.Unix(1600000000, 500000000)},
		{"now", time.Now()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewTimetagFromTime(tt.time).Time()
			if d := got.Sub(tt.time); d < -time.Microsecond || d > time.Microsecond {
				t.Errorf("Time() = %v, want %v", got, tt.time)
			}
		})
	}
}

func TestTimetag_Parts(t *testing.T) {
	tt := NewTimetagFromTime(time.Unix(0, 500000000))
	if got := tt.SecondsSinceEpoch(); got != secondsFrom1900To1970 {
		t.Errorf("SecondsSinceEpoch() = %d, want %d", got, secondsFrom1900To1970)
	}
	if got := tt.FractionalSecond(); got != 1<<31 {
		t.Errorf("FractionalSecond() = %d, want %d", got, uint32(1<<31))
	}
	if NewTimetag(0, 1) != TimetagImmediate || !TimetagImmediate.IsImmediate() {
		t.Errorf("NewTimetag(0, 1) = %d, want immediate", NewTimetag(0, 1))
	}
}

func TestTimetag_MarshalBinary(t *testing.T) {
	b, err := NewTimetag(1, 2).MarshalBinary()
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{0, 0, 0, 1, 0, 0, 0, 2}
	if string(b) != string(want) {
		t.Errorf("MarshalBinary() = %v, want %v", b, want)
	}
}
