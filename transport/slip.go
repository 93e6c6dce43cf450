package transport

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// SLIP framing (RFC 1055), as used by OSC 1.1 over stream transports.
const (
	slipEnd    = 0xC0
	slipEsc    = 0xDB
	slipEscEnd = 0xDC
	slipEscEsc = 0xDD
)

// ErrFrameTooLong is returned for a SLIP frame that does not fit the
// caller's buffer. The rest of the frame is discarded.
var ErrFrameTooLong = errors.New("slip frame too long")

// AppendSLIP appends p to dst as a SLIP frame, with an END byte on both
// sides so that line noise before the frame is discarded by the receiver.
func AppendSLIP(dst, p []byte) []byte {
	dst = append(dst, slipEnd)
	for _, b := range p {
		switch b {
		case slipEnd:
			dst = append(dst, slipEsc, slipEscEnd)
		case slipEsc:
			dst = append(dst, slipEsc, slipEscEsc)
		default:
			dst = append(dst, b)
		}
	}
	return append(dst, slipEnd)
}

// SLIPReader splits a byte stream into SLIP frames.
type SLIPReader struct {
	r *bufio.Reader
}

// NewSLIPReader returns a reader of the frames in r.
func NewSLIPReader(r io.Reader) *SLIPReader {
	return &SLIPReader{r: bufio.NewReader(r)}
}

// ReadFrame reads the next non-empty frame into p and returns its length.
func (s *SLIPReader) ReadFrame(p []byte) (int, error) {
	n := 0
	overflow := false
	esc := false
	for {
		b, err := s.r.ReadByte()
		if err != nil {
			if n > 0 && err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return 0, err
		}

		if b == slipEnd {
			if overflow {
				return 0, ErrFrameTooLong
			}
			if n == 0 {
				continue
			}
			return n, nil
		}

		if esc {
			esc = false
			switch b {
			case slipEscEnd:
				b = slipEnd
			case slipEscEsc:
				b = slipEsc
			}
		} else if b == slipEsc {
			esc = true
			continue
		}

		if n == len(p) {
			overflow = true
			continue
		}
		p[n] = b
		n++
	}
}
