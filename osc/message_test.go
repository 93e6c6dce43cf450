package osc

import (
	"errors"
	"reflect"
	"testing"
)

func TestMessage_Append(t *testing.T) {
	message := NewMessage("/address")

	if err := message.Append("string argument", int32(123456789), float32(1), []byte{1}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if err := message.Append(true); !errors.Is(err, ErrIncorrectDataType) {
		t.Errorf("Append(bool) error = %v, want %v", err, ErrIncorrectDataType)
	}

	if len(message.Arguments) != 4 {
		t.Errorf("Number of arguments should be %d and is %d", 4, len(message.Arguments))
	}
}

func TestOscMessageMatch(t *testing.T) {
	tc := []struct {
		desc        string
		addr        string
		addrPattern string
		want        bool
	}{
		{"match one element", "/*", "/a", true},
		{"elements must line up", "/*", "/a/b", false},
		{"don't match", "/a/b", "/a", false},
		{"match alternatives", "/a/{foo,bar}", "/a/foo", true},
		{"don't match if address is not part of the alternatives", "/a/{foo,bar}", "/a/bob", false},
		{"match ranges", "/appled/[0-2]/state", "/appled/1/state", true},
		{"match negated ranges", "/appled/[!0-2]/state", "/appled/1/state", false},
	}

	for _, tt := range tc {
		msg := NewMessage(tt.addr)

		got := msg.Match(tt.addrPattern)
		if got != tt.want {
			t.Errorf("%s: msg.Match('%s') = '%t', want = '%t'", tt.desc, tt.addrPattern, got, tt.want)
		}
	}
}

func TestMessage_TypeTags(t *testing.T) {
	tests := []struct {
		name    string
		args    []interface{}
		want    string
		wantErr bool
	}{
		{"none", nil, ",", false},
		{"all", []interface{}{int32(1), float32(1), "s", []byte{}}, ",ifsb", false},
		{"unsupported", []interface{}{int64(1)}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewMessage("/a", tt.args...).TypeTags()
			if (err != nil) != tt.wantErr {
				t.Errorf("TypeTags() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("TypeTags() got = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMessage_MarshalBinary(t *testing.T) {
	for _, tt := range messageTestCases {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.obj.MarshalBinary()
			if (err != nil) != tt.wantErr {
				t.Errorf("MarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !reflect.DeepEqual(got, tt.raw) {
				t.Errorf("MarshalBinary() got = %q, want %q", got, tt.raw)
			}
			size, _ := tt.obj.Size()
			if size != len(tt.raw) {
				t.Errorf("Size() = %d, want %d", size, len(tt.raw))
			}
		})
	}
}

func TestMessage_UnmarshalBinary(t *testing.T) {
	for _, tt := range messageTestCases {
		t.Run(tt.name, func(t *testing.T) {
			m := new(Message)
			if err := m.UnmarshalBinary(tt.raw); (err != nil) != tt.wantErr {
				t.Errorf("UnmarshalBinary() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !reflect.DeepEqual(m, tt.obj) {
				t.Errorf("UnmarshalBinary() got = %v, want %v", m, tt.obj)
			}
		})
	}
}

func TestMessage_UnmarshalUntyped(t *testing.T) {
	for _, raw := range [][]byte{
		[]byte("/led/state\x00\x00"),
		[]byte("/led/state\x00\x00\x00\x00\x00\x01"),
	} {
		m := new(Message)
		if err := m.UnmarshalBinary(raw); err != nil {
			t.Fatalf("UnmarshalBinary() error = %v", err)
		}
		if !m.Untyped || m.Address != "/led/state" || len(m.Arguments) != 0 {
			t.Errorf("UnmarshalBinary() got = %+v, want untyped /led/state", m)
		}
	}
}

func TestMessage_Encode(t *testing.T) {
	m := NewMessage("/led/state", int32(1))
	if _, err := m.Encode(make([]byte, 19)); err != ErrBufferFull {
		t.Errorf("Encode() short buffer error = %v, want %v", err, ErrBufferFull)
	}
	if _, err := NewMessage("led").Encode(make([]byte, 32)); !errors.Is(err, ErrBadFormat) {
		t.Errorf("Encode() without leading slash error = %v, want %v", err, ErrBadFormat)
	}
	rest, err := m.Encode(make([]byte, 24))
	if err != nil || len(rest) != 4 {
		t.Errorf("Encode() rest = %d, err = %v, want 4, nil", len(rest), err)
	}
}

func TestMessage_String(t *testing.T) {
	m := NewMessage("/m", int32(7), "x", []byte{1, 2})
	if got, want := m.String(), "/m ,isb 7 x blob[2]"; got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}

var temp = &Message{Address: "/composition/layers/1/clips/1/transport/position", Arguments: []interface{}{float32(0.123456789), "hello world"}}

func BenchmarkMessageMarshalBinary(b *testing.B) {
	var buf []byte
	b.ReportAllocs()
	b.ResetTimer()
	for n := 0; n < b.N; n++ {
		buf, _ = temp.MarshalBinary()
	}
	result = buf
}
