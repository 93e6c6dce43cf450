package osc

import (
	"github.com/pkg/errors"
)

// Errors reported by the engine. Most of them are also sent back to the
// peer in an /error reply; ErrorText gives the reply wording.
var (
	ErrBadData           = errors.New("bad data")
	ErrNoProperty        = errors.New("no property")
	ErrUnknownProperty   = errors.New("unknown property")
	ErrIllegalIndex      = errors.New("illegal index")
	ErrBadFormat         = errors.New("bad format")
	ErrNoTypeTag         = errors.New("no type tag")
	ErrIncorrectDataType = errors.New("incorrect data type")
	ErrLockTimeout       = errors.New("channel lock timeout")
	ErrBufferFull        = errors.New("buffer full")
	ErrNoAddress         = errors.New("no reply address")
	ErrSubsystemInactive = errors.New("subsystem inactive")

	ErrTruncated     = errors.New("truncated data")
	ErrBadPacket     = errors.New("malformed packet")
	ErrDepthExceeded = errors.New("bundle nesting too deep")
)

var errorTexts = []struct {
	err  error
	text string
}{
	{ErrBadData, "Bad Data"},
	{ErrNoProperty, "No Property"},
	{ErrUnknownProperty, "Unknown Property"},
	{ErrIllegalIndex, "Bad Index"},
	{ErrBadFormat, "Bad Format"},
	{ErrNoTypeTag, "No Type Tag"},
	{ErrIncorrectDataType, "Incorrect Data Type"},
	{ErrLockTimeout, "Lock Error"},
	{ErrBufferFull, "Insufficient Resources"},
	{ErrNoAddress, "No Address"},
	{ErrSubsystemInactive, "Subsystem Inactive"},
	{ErrTruncated, "Packet Error"},
	{ErrBadPacket, "Packet Error"},
	{ErrDepthExceeded, "Packet Error"},
}

// ErrorText returns the text sent to a peer for err. Errors that are not
// one of the package's sentinels are reported by their message.
func ErrorText(err error) string {
	if err == nil {
		return ""
	}
	for _, e := range errorTexts {
		if errors.Is(err, e.err) {
			return e.text
		}
	}
	return err.Error()
}
