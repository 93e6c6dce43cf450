// Package transport provides the packet links an osc.Channel writes to:
// batched UDP, TCP carrying SLIP or length-prefixed streams, SLIP over a
// serial device, and an in-memory loopback for tests.
package transport

import (
	"net"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/chabad360/oscengine/osc"
)

// MaxPacketSize bounds packets read from stream transports.
const MaxPacketSize = 8192

// ErrNoPeer is returned when writing to an address with no open
// connection.
var ErrNoPeer = errors.New("no connection to peer")

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// errTimeout is returned by ReadPacket when nothing arrived in time.
var errTimeout net.Error = timeoutError{}

type packet struct {
	data []byte
	from net.Addr
}

// inbox queues packets produced by reader goroutines for ReadPacket.
type inbox struct {
	packets chan packet
	done    chan struct{}
	once    sync.Once

	mu  sync.Mutex
	err error
}

func newInbox(size int) *inbox {
	return &inbox{packets: make(chan packet, size), done: make(chan struct{})}
}

// put queues p, giving up when the inbox is closed.
func (in *inbox) put(p packet) bool {
	select {
	case in.packets <- p:
		return true
	case <-in.done:
		return false
	}
}

// fail closes the inbox with err. Queued packets can still be read.
func (in *inbox) fail(err error) {
	in.once.Do(func() {
		in.mu.Lock()
		in.err = err
		in.mu.Unlock()
		close(in.done)
	})
}

func (in *inbox) read(p []byte, timeout time.Duration) (int, net.Addr, error) {
	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case pkt := <-in.packets:
		return in.deliver(p, pkt)
	default:
	}
	select {
	case pkt := <-in.packets:
		return in.deliver(p, pkt)
	case <-in.done:
		in.mu.Lock()
		defer in.mu.Unlock()
		return 0, nil, in.err
	case <-timer:
		return 0, nil, errTimeout
	}
}

func (in *inbox) deliver(p []byte, pkt packet) (int, net.Addr, error) {
	n := copy(p, pkt.data)
	if n < len(pkt.data) {
		osc.LogWarn(osc.ComponentTransport, "packet truncated", "size", len(pkt.data), "buffer", len(p))
	}
	return n, pkt.from, nil
}

var _ osc.Transport = (*UDP)(nil)
var _ osc.Transport = (*TCP)(nil)
var _ osc.Transport = (*Serial)(nil)
var _ osc.Transport = (*Loopback)(nil)
