package transport

import (
	"io"
	"net"
	"os"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

// Serial carries SLIP frames over a point-to-point byte stream such as a
// USB serial device. Replies need no address.
type Serial struct {
	rw  io.ReadWriteCloser
	in  *inbox
	wmu sync.Mutex
}

// OpenSerial opens a character device for reading and writing. The line
// settings are left as the system has them.
func OpenSerial(device string) (*Serial, error) {
	f, err := os.OpenFile(device, os.O_RDWR, 0)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", device)
	}
	return NewSerial(f), nil
}

// NewSerial starts reading frames from rw.
func NewSerial(rw io.ReadWriteCloser) *Serial {
	s := &Serial{rw: rw, in: newInbox(16)}
	go s.read()
	return s
}

func (s *Serial) read() {
	sr := NewSLIPReader(s.rw)
	buf := make([]byte, MaxPacketSize)
	for {
		n, err := sr.ReadFrame(buf)
		if errors.Is(err, ErrFrameTooLong) {
			osc.LogWarn(osc.ComponentTransport, "dropping serial frame", "err", err)
			continue
		}
		if err != nil {
			if err == io.EOF || errors.Is(err, os.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
				err = net.ErrClosed
			}
			s.in.fail(err)
			return
		}
		if !s.in.put(packet{data: append([]byte(nil), buf[:n]...)}) {
			return
		}
	}
}

// ReadPacket implements osc.Transport.
func (s *Serial) ReadPacket(p []byte, timeout time.Duration) (int, net.Addr, error) {
	return s.in.read(p, timeout)
}

// WritePacket implements osc.Transport. to is ignored.
func (s *Serial) WritePacket(p []byte, _ net.Addr) (int, error) {
	s.wmu.Lock()
	defer s.wmu.Unlock()
	if _, err := s.rw.Write(AppendSLIP(nil, p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Addressed implements osc.Transport.
func (s *Serial) Addressed() bool { return false }

// Close implements osc.Transport.
func (s *Serial) Close() error {
	s.in.fail(net.ErrClosed)
	return s.rw.Close()
}
