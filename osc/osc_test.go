package osc

import (
	"net"
	"sync"
	"testing"
	"time"
)

// timeoutError is what fakeTransport returns when nothing arrives.
type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

type inPacket struct {
	data []byte
	from net.Addr
}

// fakeTransport records every packet written to it.
type fakeTransport struct {
	addressed bool
	in        chan inPacket
	writeErr  error

	mu     sync.Mutex
	sent   [][]byte
	to     []net.Addr
	closed bool
}

func newFakeTransport(addressed bool) *fakeTransport {
	return &fakeTransport{addressed: addressed, in: make(chan inPacket, 16)}
}

func (f *fakeTransport) ReadPacket(p []byte, timeout time.Duration) (int, net.Addr, error) {
	select {
	case pkt, ok := <-f.in:
		if !ok {
			return 0, nil, net.ErrClosed
		}
		return copy(p, pkt.data), pkt.from, nil
	case <-time.After(timeout):
		return 0, nil, timeoutError{}
	}
}

func (f *fakeTransport) WritePacket(p []byte, to net.Addr) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.writeErr != nil {
		return 0, f.writeErr
	}
	f.sent = append(f.sent, append([]byte(nil), p...))
	f.to = append(f.to, to)
	return len(p), nil
}

func (f *fakeTransport) Addressed() bool { return f.addressed }

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.closed {
		f.closed = true
		close(f.in)
	}
	return nil
}

func (f *fakeTransport) packets() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.sent...)
}

// replies decodes every packet sent so far and flattens bundles.
func (f *fakeTransport) replies(t *testing.T) []*Message {
	t.Helper()
	var msgs []*Message
	for _, data := range f.packets() {
		p, err := ParsePacket(data)
		if err != nil {
			t.Fatalf("ParsePacket() error = %v", err)
		}
		msgs = append(msgs, flatten(p)...)
	}
	return msgs
}

func flatten(p Packet) []*Message {
	switch p := p.(type) {
	case *Message:
		return []*Message{p}
	case *Bundle:
		var msgs []*Message
		for _, e := range p.Elements {
			msgs = append(msgs, flatten(e)...)
		}
		return msgs
	}
	return nil
}

func testChannel(opts ...ChannelOption) (*Channel, *fakeTransport) {
	ft := newFakeTransport(false)
	return NewChannel("test", ft, opts...), ft
}

func mustMarshal(t *testing.T, p Packet) []byte {
	t.Helper()
	b, err := p.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary() error = %v", err)
	}
	return b
}
