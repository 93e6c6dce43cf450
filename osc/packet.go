package osc

import (
	"encoding"

	"github.com/pkg/errors"
)

// DefaultMaxDepth is how many levels of nested bundles a packet may hold.
const DefaultMaxDepth = 4

// Packet is the interface for Message and Bundle.
type Packet interface {
	encoding.BinaryMarshaler

	// Size returns the number of bytes Encode writes.
	Size() (int, error)
	// Encode writes the packet at the start of b and returns the rest of b.
	Encode(b []byte) ([]byte, error)
}

// ParsePacket decodes a message or a bundle, allowing DefaultMaxDepth levels
// of bundles.
func ParsePacket(data []byte) (Packet, error) {
	return parsePacket(data, DefaultMaxDepth)
}

// ParsePacketDepth is ParsePacket with an explicit bundle depth limit.
func ParsePacketDepth(data []byte, depth int) (Packet, error) {
	return parsePacket(data, depth)
}

func parsePacket(data []byte, depth int) (Packet, error) {
	if len(data) == 0 {
		return nil, errors.Wrap(ErrBadPacket, "empty packet")
	}

	switch data[0] {
	case '/':
		msg := &Message{}
		if err := msg.UnmarshalBinary(data); err != nil {
			return nil, err
		}
		return msg, nil

	case '#':
		if depth < 1 {
			return nil, ErrDepthExceeded
		}
		bundle := &Bundle{}
		if err := bundle.unmarshal(data, depth); err != nil {
			return nil, err
		}
		return bundle, nil
	}

	return nil, errors.Wrapf(ErrBadPacket, "unexpected first byte %#x", data[0])
}
