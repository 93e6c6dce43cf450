package transport

import (
	"net"
	"time"
)

// LoopbackAddr is the peer address of packets injected into a Loopback.
type LoopbackAddr string

func (a LoopbackAddr) Network() string { return "loopback" }
func (a LoopbackAddr) String() string  { return string(a) }

// Loopback is an in-memory transport. Packets passed to Inject come out of
// ReadPacket; packets written by the channel come out of Sent.
type Loopback struct {
	in        *inbox
	out       chan []byte
	addressed bool
}

// NewLoopback returns a loopback transport. When addressed is set, writes
// without a reply address fail as they do on UDP.
func NewLoopback(addressed bool) *Loopback {
	return &Loopback{in: newInbox(64), out: make(chan []byte, 64), addressed: addressed}
}

// Inject queues an incoming packet.
func (l *Loopback) Inject(p []byte, from net.Addr) {
	l.in.put(packet{data: append([]byte(nil), p...), from: from})
}

// Sent returns the packets written to the transport.
func (l *Loopback) Sent() <-chan []byte { return l.out }

// Next waits up to timeout for a written packet.
func (l *Loopback) Next(timeout time.Duration) ([]byte, bool) {
	select {
	case p := <-l.out:
		return p, true
	case <-time.After(timeout):
		return nil, false
	}
}

// ReadPacket implements osc.Transport.
func (l *Loopback) ReadPacket(p []byte, timeout time.Duration) (int, net.Addr, error) {
	return l.in.read(p, timeout)
}

// WritePacket implements osc.Transport.
func (l *Loopback) WritePacket(p []byte, to net.Addr) (int, error) {
	if l.addressed && to == nil {
		return 0, ErrNoPeer
	}
	select {
	case l.out <- append([]byte(nil), p...):
	default:
		return 0, ErrNoPeer
	}
	return len(p), nil
}

// Addressed implements osc.Transport.
func (l *Loopback) Addressed() bool { return l.addressed }

// Close implements osc.Transport.
func (l *Loopback) Close() error {
	l.in.fail(net.ErrClosed)
	return nil
}
