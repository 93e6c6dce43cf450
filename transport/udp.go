package transport

import (
	"net"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"

	"github.com/chabad360/oscengine/osc"
)

const (
	// batchSize is how many datagrams one ReadBatch call can return.
	batchSize = 16
	// MaxDatagramSize is the largest UDP payload over IPv4.
	MaxDatagramSize = 65507
)

// UDP is a datagram transport. Reads are batched: one system call may
// queue several datagrams, which ReadPacket hands out one at a time.
// Datagrams larger than the configured size are dropped whole.
type UDP struct {
	conn *net.UDPConn
	pc   *ipv4.PacketConn
	size int

	msgs  []ipv4.Message
	head  int
	count int
}

// ListenUDP opens a UDP transport on addr, for example ":10000", that
// accepts datagrams of up to size bytes. A size of zero or less means
// MaxDatagramSize.
func ListenUDP(addr string, size int) (*UDP, error) {
	a, err := net.ResolveUDPAddr("udp4", addr)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", addr)
	}
	conn, err := net.ListenUDP("udp4", a)
	if err != nil {
		return nil, errors.Wrapf(err, "listen %s", addr)
	}
	return NewUDP(conn, size), nil
}

// NewUDP wraps an open socket. size is as for ListenUDP.
func NewUDP(conn *net.UDPConn, size int) *UDP {
	if size <= 0 || size > MaxDatagramSize {
		size = MaxDatagramSize
	}
	msgs := make([]ipv4.Message, batchSize)
	for k := range msgs {
		// One spare byte shows a datagram did not fit.
		msgs[k].Buffers = [][]byte{make([]byte, size+1)}
	}
	return &UDP{conn: conn, pc: ipv4.NewPacketConn(conn), size: size, msgs: msgs}
}

// LocalAddr returns the bound address.
func (u *UDP) LocalAddr() net.Addr { return u.conn.LocalAddr() }

// ReadPacket implements osc.Transport. It must not be called concurrently.
// Oversized datagrams are logged and skipped.
func (u *UDP) ReadPacket(p []byte, timeout time.Duration) (int, net.Addr, error) {
	deadline := time.Time{}
	if timeout > 0 {
		deadline = time.Now().Add(timeout)
	}
	for {
		if u.head == u.count {
			if err := u.conn.SetReadDeadline(deadline); err != nil {
				return 0, nil, err
			}
			count, err := u.pc.ReadBatch(u.msgs, 0)
			if err != nil {
				return 0, nil, err
			}
			u.head, u.count = 0, count
			if count == 0 {
				return 0, nil, nil
			}
		}

		msg := &u.msgs[u.head]
		u.head++
		if msg.N > u.size || msg.Flags&msgTrunc != 0 {
			osc.LogWarn(osc.ComponentTransport, "datagram dropped, too large", "from", msg.Addr, "limit", u.size)
			continue
		}
		if msg.N > len(p) {
			osc.LogWarn(osc.ComponentTransport, "datagram dropped, too large", "from", msg.Addr, "size", msg.N, "limit", len(p))
			continue
		}
		return copy(p, msg.Buffers[0][:msg.N]), msg.Addr, nil
	}
}

// WritePacket implements osc.Transport.
func (u *UDP) WritePacket(p []byte, to net.Addr) (int, error) {
	if to == nil {
		return 0, osc.ErrNoAddress
	}
	return u.conn.WriteTo(p, to)
}

// Addressed implements osc.Transport.
func (u *UDP) Addressed() bool { return true }

// Close implements osc.Transport.
func (u *UDP) Close() error { return u.conn.Close() }
