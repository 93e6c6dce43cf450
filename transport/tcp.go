package transport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/soheilhy/cmux"

	"github.com/chabad360/oscengine/osc"
)

// TCP accepts stream connections and reads packets from each of them.
// Connections whose first byte is a SLIP END carry SLIP frames; all others
// carry packets prefixed with a 4-byte big-endian length. Replies go back
// on the connection the reply address belongs to, framed the same way.
type TCP struct {
	ln  net.Listener
	mux cmux.CMux
	in  *inbox

	mu    sync.Mutex
	conns map[string]*tcpConn
}

type tcpConn struct {
	net.Conn
	slip bool
	wmu  sync.Mutex
}

// ListenTCP opens a TCP transport on addr.
func ListenTCP(addr string) (*TCP, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return NewTCP(ln), nil
}

// NewTCP serves connections accepted from ln.
func NewTCP(ln net.Listener) *TCP {
	t := &TCP{
		ln:    ln,
		mux:   cmux.New(ln),
		in:    newInbox(64),
		conns: make(map[string]*tcpConn),
	}
	slipL := t.mux.Match(slipMatcher)
	sizeL := t.mux.Match(cmux.Any())
	go t.accept(slipL, true)
	go t.accept(sizeL, false)
	go func() {
		if err := t.mux.Serve(); err != nil && !isClosed(err) {
			osc.LogWarn(osc.ComponentTransport, "tcp mux stopped", "err", err)
		}
		t.in.fail(net.ErrClosed)
	}()
	return t
}

func slipMatcher(r io.Reader) bool {
	b := make([]byte, 1)
	n, _ := io.ReadFull(r, b)
	return n == 1 && b[0] == slipEnd
}

func isClosed(err error) bool {
	return errors.Is(err, net.ErrClosed) || errors.Is(err, cmux.ErrListenerClosed)
}

// Addr returns the listening address.
func (t *TCP) Addr() net.Addr { return t.ln.Addr() }

func (t *TCP) accept(l net.Listener, slip bool) {
	for {
		conn, err := l.Accept()
		if err != nil {
			if !isClosed(err) {
				osc.LogDebug(osc.ComponentTransport, "tcp accept", "err", err)
			}
			return
		}
		c := &tcpConn{Conn: conn, slip: slip}
		t.mu.Lock()
		t.conns[conn.RemoteAddr().String()] = c
		t.mu.Unlock()
		osc.LogDebug(osc.ComponentTransport, "tcp connection", "peer", conn.RemoteAddr(), "slip", slip)
		go t.read(c)
	}
}

func (t *TCP) read(c *tcpConn) {
	defer func() {
		t.mu.Lock()
		delete(t.conns, c.RemoteAddr().String())
		t.mu.Unlock()
		c.Close()
	}()

	var next func() ([]byte, error)
	if c.slip {
		sr := NewSLIPReader(c)
		buf := make([]byte, MaxPacketSize)
		next = func() ([]byte, error) {
			n, err := sr.ReadFrame(buf)
			if err != nil {
				return nil, err
			}
			return append([]byte(nil), buf[:n]...), nil
		}
	} else {
		next = func() ([]byte, error) {
			var size [4]byte
			if _, err := io.ReadFull(c, size[:]); err != nil {
				return nil, err
			}
			n := binary.BigEndian.Uint32(size[:])
			if n > MaxPacketSize {
				return nil, errors.Errorf("packet length %d exceeds %d", n, MaxPacketSize)
			}
			data := make([]byte, n)
			_, err := io.ReadFull(c, data)
			return data, err
		}
	}

	for {
		data, err := next()
		if errors.Is(err, ErrFrameTooLong) {
			osc.LogWarn(osc.ComponentTransport, "dropping frame", "peer", c.RemoteAddr(), "err", err)
			continue
		}
		if err != nil {
			if err != io.EOF && !isClosed(err) {
				osc.LogDebug(osc.ComponentTransport, "tcp read", "peer", c.RemoteAddr(), "err", err)
			}
			return
		}
		if !t.in.put(packet{data: data, from: c.RemoteAddr()}) {
			return
		}
	}
}

// ReadPacket implements osc.Transport.
func (t *TCP) ReadPacket(p []byte, timeout time.Duration) (int, net.Addr, error) {
	return t.in.read(p, timeout)
}

// WritePacket implements osc.Transport.
func (t *TCP) WritePacket(p []byte, to net.Addr) (int, error) {
	if to == nil {
		return 0, osc.ErrNoAddress
	}
	t.mu.Lock()
	c, ok := t.conns[to.String()]
	t.mu.Unlock()
	if !ok {
		return 0, errors.Wrapf(ErrNoPeer, "%s", to)
	}

	var frame []byte
	if c.slip {
		frame = AppendSLIP(nil, p)
	} else {
		frame = make([]byte, 4+len(p))
		binary.BigEndian.PutUint32(frame, uint32(len(p)))
		copy(frame[4:], p)
	}
	c.wmu.Lock()
	defer c.wmu.Unlock()
	if _, err := c.Write(frame); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Addressed implements osc.Transport.
func (t *TCP) Addressed() bool { return true }

// Close stops accepting and closes every connection.
func (t *TCP) Close() error {
	err := t.ln.Close()
	t.in.fail(net.ErrClosed)
	t.mu.Lock()
	for _, c := range t.conns {
		c.Close()
	}
	t.mu.Unlock()
	return err
}
