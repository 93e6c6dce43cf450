package osc

import (
	"encoding/binary"

	"github.com/pkg/errors"
)

var bundleTag = []byte("#bundle\x00")

// Bundle represents an OSC bundle. It consists of the OSC-string "#bundle"
// followed by an OSC Time Tag, followed by zero or more OSC bundle/message
// elements. The time tag is carried but never used to schedule delivery.
type Bundle struct {
	Timetag  Timetag
	Elements []Packet
}

// Verify that Bundle implements the Packet interface.
var _ Packet = (*Bundle)(nil)

// NewBundle returns an immediate bundle holding elements.
func NewBundle(elements ...Packet) *Bundle {
	return &Bundle{Timetag: TimetagImmediate, Elements: elements}
}

// Append adds packets to the bundle.
func (b *Bundle) Append(elements ...Packet) {
	b.Elements = append(b.Elements, elements...)
}

// Size returns the encoded length of b.
func (b *Bundle) Size() (int, error) {
	n := bundleHeaderSize
	for _, e := range b.Elements {
		s, err := e.Size()
		if err != nil {
			return 0, err
		}
		n += bit32Size + s
	}
	return n, nil
}

// Encode writes b at the start of buf and returns the rest of buf.
func (b *Bundle) Encode(buf []byte) ([]byte, error) {
	rest, err := EncodeBundleHeader(buf, b.Timetag.SecondsSinceEpoch(), b.Timetag.FractionalSecond())
	if err != nil {
		return buf, err
	}
	for _, e := range b.Elements {
		if len(rest) < bit32Size {
			return buf, ErrBufferFull
		}
		body, err := e.Encode(rest[bit32Size:])
		if err != nil {
			return buf, err
		}
		size := len(rest) - bit32Size - len(body)
		binary.BigEndian.PutUint32(rest, uint32(size))
		rest = body
	}
	return rest, nil
}

// MarshalBinary implements the encoding.BinaryMarshaler interface.
func (b *Bundle) MarshalBinary() ([]byte, error) {
	n, err := b.Size()
	if err != nil {
		return nil, err
	}
	data := make([]byte, n)
	if _, err = b.Encode(data); err != nil {
		return nil, err
	}
	return data, nil
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface.
func (b *Bundle) UnmarshalBinary(data []byte) error {
	return b.unmarshal(data, DefaultMaxDepth)
}

// unmarshal decodes a bundle that may hold at most depth levels of
// bundles, itself included.
func (b *Bundle) unmarshal(data []byte, depth int) error {
	tt, err := readBundleHeader(data)
	if err != nil {
		return err
	}
	b.Timetag = tt
	b.Elements = nil
	return walkBundle(data, func(elem []byte) error {
		p, err := parsePacket(elem, depth-1)
		if err != nil {
			return err
		}
		b.Elements = append(b.Elements, p)
		return nil
	})
}

func readBundleHeader(data []byte) (Timetag, error) {
	if len(data) < bundleHeaderSize {
		return 0, errors.Wrap(ErrTruncated, "bundle header")
	}
	if string(data[:len(bundleTag)]) != string(bundleTag) {
		return 0, errors.Wrap(ErrBadPacket, "missing #bundle tag")
	}
	return Timetag(binary.BigEndian.Uint64(data[8:bundleHeaderSize])), nil
}

// walkBundle calls fn with each element of the bundle in data. It stops at
// the first element whose length prefix is zero, unaligned or longer than
// what remains, and at the first error fn returns.
func walkBundle(data []byte, fn func(elem []byte) error) error {
	if _, err := readBundleHeader(data); err != nil {
		return err
	}
	rest := data[bundleHeaderSize:]
	for len(rest) > 0 {
		size, body, err := DecodeInt32(rest)
		if err != nil {
			return errors.Wrap(err, "bundle element length")
		}
		if size <= 0 || size%bit32Size != 0 || int64(size) > int64(len(body)) {
			return errors.Wrapf(ErrBadPacket, "bundle element length %d, have %d", size, len(body))
		}
		if err := fn(body[:size]); err != nil {
			return err
		}
		rest = body[size:]
	}
	return nil
}
