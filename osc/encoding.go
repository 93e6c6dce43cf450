package osc

import (
	"bytes"
	"encoding/binary"
	"math"

	"github.com/pkg/errors"
)

////
// De/Encoding functions
//
// Encoders write at the start of b and return what is left of b after the
// written value. Decoders return the value and what follows it.
////

const (
	bit32Size        = 4
	bundleHeaderSize = 16
)

// EncodeInt32 writes v as a big-endian 32-bit integer.
func EncodeInt32(b []byte, v int32) ([]byte, error) {
	return encodeUint32(b, uint32(v))
}

// EncodeFloat32 writes the IEEE-754 bits of v, big-endian.
func EncodeFloat32(b []byte, v float32) ([]byte, error) {
	return encodeUint32(b, math.Float32bits(v))
}

func encodeUint32(b []byte, v uint32) ([]byte, error) {
	if len(b) < bit32Size {
		return b, ErrBufferFull
	}
	binary.BigEndian.PutUint32(b, v)
	return b[bit32Size:], nil
}

// EncodeString writes s followed by 1 to 4 zero bytes, so that the written
// length is a multiple of 4.
func EncodeString(b []byte, s string) ([]byte, error) {
	n := stringSize(s)
	if len(b) < n {
		return b, ErrBufferFull
	}
	copy(b, s)
	clear(b[len(s):n])
	return b[n:], nil
}

// EncodeBlob writes a 4-byte length, the data, and zero padding up to the
// next multiple of 4.
func EncodeBlob(b []byte, data []byte) ([]byte, error) {
	n := blobSize(data)
	if len(b) < n {
		return b, ErrBufferFull
	}
	binary.BigEndian.PutUint32(b, uint32(len(data)))
	copy(b[bit32Size:], data)
	clear(b[bit32Size+len(data) : n])
	return b[n:], nil
}

// EncodeBundleHeader writes "#bundle\0" and the two timetag words.
func EncodeBundleHeader(b []byte, hi, lo uint32) ([]byte, error) {
	if len(b) < bundleHeaderSize {
		return b, ErrBufferFull
	}
	copy(b, bundleTag)
	binary.BigEndian.PutUint32(b[8:], hi)
	binary.BigEndian.PutUint32(b[12:], lo)
	return b[bundleHeaderSize:], nil
}

// DecodeInt32 reads a big-endian 32-bit integer.
func DecodeInt32(b []byte) (int32, []byte, error) {
	v, rest, err := decodeUint32(b)
	return int32(v), rest, err
}

// DecodeFloat32 reads a big-endian IEEE-754 float.
func DecodeFloat32(b []byte) (float32, []byte, error) {
	v, rest, err := decodeUint32(b)
	return math.Float32frombits(v), rest, err
}

func decodeUint32(b []byte) (uint32, []byte, error) {
	if len(b) < bit32Size {
		return 0, b, errors.Wrapf(ErrTruncated, "need %d bytes, have %d", bit32Size, len(b))
	}
	return binary.BigEndian.Uint32(b), b[bit32Size:], nil
}

// DecodeString reads a zero-terminated, padded string. Both the terminator
// and the whole padding must be present.
func DecodeString(b []byte) (string, []byte, error) {
	pos := bytes.IndexByte(b, 0)
	if pos < 0 {
		return "", b, errors.Wrap(ErrTruncated, "string has no terminator")
	}
	n := pos + 1 + padBytesNeeded(pos+1)
	if n > len(b) {
		return "", b, errors.Wrap(ErrTruncated, "string padding")
	}
	return string(b[:pos]), b[n:], nil
}

// DecodeBlob reads a length-prefixed blob. The returned data aliases b.
func DecodeBlob(b []byte) ([]byte, []byte, error) {
	size, rest, err := decodeUint32(b)
	if err != nil {
		return nil, b, err
	}
	if uint64(size) > uint64(len(rest)) {
		return nil, b, errors.Wrapf(ErrTruncated, "blob length %d, have %d", size, len(rest))
	}
	n := int(size) + padBytesNeeded(int(size))
	if n > len(rest) {
		return nil, b, errors.Wrap(ErrTruncated, "blob padding")
	}
	return rest[:size:size], rest[n:], nil
}

// stringSize is the encoded length of s, terminator and padding included.
func stringSize(s string) int {
	n := len(s) + 1
	return n + padBytesNeeded(n)
}

func blobSize(data []byte) int {
	return bit32Size + len(data) + padBytesNeeded(len(data))
}

// padBytesNeeded determines how many bytes are needed to fill up to the next 4
// byte length.
func padBytesNeeded(elementLen int) int {
	return (4 - (elementLen % 4)) % 4
}
