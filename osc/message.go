package osc

import (
	"bytes"
	"fmt"

	"github.com/pkg/errors"
)

// Message represents a single OSC message. An OSC message consists of an OSC
// address pattern and zero or more arguments of type int32, float32, string
// or []byte.
type Message struct {
	Address   string
	Arguments []interface{}

	// Untyped is set when a decoded message carried no type tag string.
	// Its Arguments are then empty, whatever bytes followed the address.
	Untyped bool
}

// Verify that Messages implements the Packet interface.
var _ Packet = (*Message)(nil)

// NewMessage returns a new Message. The address parameter is the OSC address.
func NewMessage(addr string, args ...interface{}) *Message {
	return &Message{Address: addr, Arguments: args}
}

// NewMessageFromData decodes a single message.
func NewMessageFromData(data []byte) (*Message, error) {
	msg := &Message{}
	if err := msg.UnmarshalBinary(data); err != nil {
		return nil, err
	}
	return msg, nil
}

// Clear removes the address and all arguments.
func (m *Message) Clear() {
	m.Address = ""
	m.Arguments = m.Arguments[:0]
	m.Untyped = false
}

// Append appends the given arguments to the arguments list.
func (m *Message) Append(args ...interface{}) error {
	for i, a := range args {
		if ToTypeTag(a) == TypeInvalid {
			return errors.Wrapf(ErrIncorrectDataType, "argument %d has unsupported type %T", i, a)
		}
	}
	m.Arguments = append(m.Arguments, args...)
	return nil
}

// Match reports whether the message's address pattern matches addr, element
// by element. The match is case sensitive.
func (m *Message) Match(addr string) bool {
	pattern := splitAddress(m.Address)
	elems := splitAddress(addr)
	if len(pattern) != len(elems) {
		return false
	}
	for i := range pattern {
		if !GlobMatch(pattern[i], elems[i]) {
			return false
		}
	}
	return true
}

// TypeTags returns the type tag string.
func (m *Message) TypeTags() (string, error) {
	if m == nil {
		return "", errors.New("TypeTags: message is nil")
	}
	return GetTypeTag(m.Arguments)
}

// Size returns the encoded length of m.
func (m *Message) Size() (int, error) {
	tagLen := len(m.Arguments) + 2
	n := stringSize(m.Address) + tagLen + padBytesNeeded(tagLen)
	for i, arg := range m.Arguments {
		switch t := arg.(type) {
		case int32, float32:
			n += bit32Size
		case string:
			n += stringSize(t)
		case []byte:
			n += blobSize(t)
		default:
			return 0, errors.Wrapf(ErrIncorrectDataType, "argument %d has unsupported type %T", i, arg)
		}
	}
	return n, nil
}

// Encode writes m at the start of b and returns the rest of b. It fails
// with ErrBufferFull when b is too short, leaving the bytes written so far
// in place.
func (m *Message) Encode(b []byte) ([]byte, error) {
	if len(m.Address) == 0 || m.Address[0] != '/' {
		return b, errors.Wrapf(ErrBadFormat, "address %q", m.Address)
	}
	tags, err := m.TypeTags()
	if err != nil {
		return b, err
	}

	rest, err := EncodeString(b, m.Address)
	if err != nil {
		return b, err
	}
	if rest, err = EncodeString(rest, tags); err != nil {
		return b, err
	}
	for _, arg := range m.Arguments {
		switch t := arg.(type) {
		case int32:
			rest, err = EncodeInt32(rest, t)
		case float32:
			rest, err = EncodeFloat32(rest, t)
		case string:
			rest, err = EncodeString(rest, t)
		case []byte:
			rest, err = EncodeBlob(rest, t)
		}
		if err != nil {
			return b, err
		}
	}
	return rest, nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (m *Message) MarshalBinary() ([]byte, error) {
	n, err := m.Size()
	if err != nil {
		return nil, err
	}
	b := make([]byte, n)
	if _, err = m.Encode(b); err != nil {
		return nil, err
	}
	return b, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface. Blob
// arguments alias data.
func (m *Message) UnmarshalBinary(data []byte) error {
	if len(data) == 0 || data[0] != '/' {
		return errors.Wrap(ErrBadPacket, "data not a valid OSC message")
	}

	addr, rest, err := DecodeString(data)
	if err != nil {
		return errors.Wrap(err, "UnmarshalBinary: address")
	}
	m.Address = addr
	m.Arguments = nil
	m.Untyped = false

	if len(rest) == 0 || rest[0] != ',' {
		m.Untyped = true
		return nil
	}
	return m.readArguments(rest)
}

// readArguments decodes the type tag string at the start of b and the
// arguments it names.
func (m *Message) readArguments(b []byte) error {
	tags, rest, err := DecodeString(b)
	if err != nil {
		return errors.Wrap(err, "readArguments: type tags")
	}
	if len(tags) == 1 {
		return nil
	}

	m.Arguments = make([]interface{}, 0, len(tags)-1)
	for _, c := range tags[1:] {
		var arg interface{}
		switch TypeTag(c) {
		case TypeInt32:
			arg, rest, err = DecodeInt32(rest)
		case TypeFloat32:
			arg, rest, err = DecodeFloat32(rest)
		case TypeString:
			arg, rest, err = DecodeString(rest)
		case TypeBlob:
			arg, rest, err = DecodeBlob(rest)
		default:
			return errors.Wrapf(ErrBadPacket, "unsupported typetag %q", c)
		}
		if err != nil {
			return errors.Wrapf(err, "readArguments: %c", c)
		}
		m.Arguments = append(m.Arguments, arg)
	}
	return nil
}

// String implements the fmt.Stringer interface.
func (m *Message) String() string {
	if m == nil {
		return ""
	}

	strBuf := bufPool.Get().(*bytes.Buffer)
	defer bufPool.Put(strBuf)
	strBuf.Reset()

	strBuf.WriteString(m.Address)
	if m.Untyped {
		return strBuf.String()
	}
	tags, err := m.TypeTags()
	if err != nil {
		return strBuf.String()
	}
	strBuf.WriteByte(' ')
	strBuf.WriteString(tags)

	for _, arg := range m.Arguments {
		switch arg := arg.(type) {
		case []byte:
			fmt.Fprintf(strBuf, " blob[%d]", len(arg))
		default:
			fmt.Fprintf(strBuf, " %v", arg)
		}
	}

	return strBuf.String()
}
