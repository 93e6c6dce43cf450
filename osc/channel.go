package osc

import (
	"encoding/binary"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultBufferSize is the outgoing buffer size of a channel.
	DefaultBufferSize = 512
	// DefaultLockTimeout bounds how long CreateMessage waits for a channel.
	DefaultLockTimeout = time.Second
)

// Transport moves whole packets for a Channel.
type Transport interface {
	// ReadPacket blocks for at most timeout (forever when zero) and copies
	// one packet into p. It returns a net.Error whose Timeout method
	// reports true when nothing arrived. from is nil for point-to-point
	// links.
	ReadPacket(p []byte, timeout time.Duration) (n int, from net.Addr, err error)
	// WritePacket sends p to addr. p is not retained after it returns.
	WritePacket(p []byte, to net.Addr) (int, error)
	// Addressed reports whether replies need a peer address.
	Addressed() bool
	Close() error
}

// Channel stages outgoing replies for one transport. Messages created
// between flushes are sent as a single immediate bundle, or as a bare
// message when only one is pending.
type Channel struct {
	name        string
	transport   Transport
	lockTimeout time.Duration
	sem         chan struct{}

	buf     []byte
	n       int // committed bytes, bundle header included
	pending int

	addrMu    sync.RWMutex
	replyAddr net.Addr
	replyPort int

	running atomic.Bool
}

// ChannelOption configures a Channel.
type ChannelOption func(*Channel)

// WithBufferSize sets the outgoing buffer size.
func WithBufferSize(n int) ChannelOption {
	return func(c *Channel) {
		if n >= bundleHeaderSize+bit32Size {
			c.buf = make([]byte, n)
		}
	}
}

// WithLockTimeout sets how long a writer waits for the channel.
func WithLockTimeout(d time.Duration) ChannelOption {
	return func(c *Channel) {
		if d > 0 {
			c.lockTimeout = d
		}
	}
}

// WithReplyPort makes replies on UDP go to port instead of the sender's
// source port. Zero keeps the source port.
func WithReplyPort(port int) ChannelOption {
	return func(c *Channel) {
		c.replyPort = port
	}
}

// NewChannel returns a running channel named name.
func NewChannel(name string, t Transport, opts ...ChannelOption) *Channel {
	c := &Channel{
		name:        name,
		transport:   t,
		lockTimeout: DefaultLockTimeout,
		sem:         make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.buf == nil {
		c.buf = make([]byte, DefaultBufferSize)
	}
	c.running.Store(true)
	return c
}

// Name returns the channel's name.
func (c *Channel) Name() string { return c.name }

// Transport returns the transport the channel writes to.
func (c *Channel) Transport() Transport { return c.transport }

// SetRunning enables or disables the channel. A stopped channel refuses
// new messages with ErrSubsystemInactive.
func (c *Channel) SetRunning(running bool) { c.running.Store(running) }

// Running reports whether the channel accepts messages.
func (c *Channel) Running() bool { return c.running.Load() }

// SetReplyAddr records where replies go, applying the reply port override
// to UDP addresses.
func (c *Channel) SetReplyAddr(addr net.Addr) {
	if ua, ok := addr.(*net.UDPAddr); ok && c.replyPort > 0 && ua.Port != c.replyPort {
		cp := *ua
		cp.Port = c.replyPort
		addr = &cp
	}
	c.addrMu.Lock()
	c.replyAddr = addr
	c.addrMu.Unlock()
}

// ReplyAddr returns the current reply address, nil if none is known.
func (c *Channel) ReplyAddr() net.Addr {
	c.addrMu.RLock()
	defer c.addrMu.RUnlock()
	return c.replyAddr
}

func (c *Channel) lock() error {
	select {
	case c.sem <- struct{}{}:
		return nil
	default:
	}
	t := time.NewTimer(c.lockTimeout)
	defer t.Stop()
	select {
	case c.sem <- struct{}{}:
		return nil
	case <-t.C:
		LogError(ComponentChannel, "lock timeout", "channel", c.name, "after", c.lockTimeout)
		return errors.Wrapf(ErrLockTimeout, "channel %s", c.name)
	}
}

func (c *Channel) unlock() { <-c.sem }

// Pending returns the number of messages waiting for Flush. It fails
// with ErrLockTimeout when another writer holds the channel.
func (c *Channel) Pending() (int, error) {
	if err := c.lock(); err != nil {
		return 0, err
	}
	defer c.unlock()
	return c.pending, nil
}

// CreateMessage stages a message for the next Flush. When the buffer has
// no room, pending messages are flushed and the message is tried once more
// before ErrBufferFull is returned.
func (c *Channel) CreateMessage(address string, args ...interface{}) error {
	if !c.Running() {
		return ErrSubsystemInactive
	}
	if c.transport.Addressed() && c.ReplyAddr() == nil {
		return errors.Wrapf(ErrNoAddress, "channel %s", c.name)
	}
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()

	msg := Message{Address: address, Arguments: args}
	err := c.appendLocked(&msg)
	if errors.Is(err, ErrBufferFull) {
		c.flushLocked()
		err = c.appendLocked(&msg)
	}
	if err != nil {
		return errors.Wrapf(err, "create %s", address)
	}
	return nil
}

// appendLocked writes the bundle header if the buffer is empty, reserves
// the element length, encodes msg and backpatches the length.
func (c *Channel) appendLocked(msg *Message) error {
	lenPos, err := c.beginMessage()
	if err != nil {
		return err
	}
	start := lenPos + bit32Size
	rest, err := msg.Encode(c.buf[start:])
	if err != nil {
		return err
	}
	c.commitMessage(lenPos, start, len(c.buf)-len(rest))
	return nil
}

func (c *Channel) beginMessage() (int, error) {
	pos := c.n
	if c.pending == 0 {
		if _, err := EncodeBundleHeader(c.buf, TimetagImmediate.SecondsSinceEpoch(), TimetagImmediate.FractionalSecond()); err != nil {
			return 0, err
		}
		pos = bundleHeaderSize
	}
	if len(c.buf)-pos < bit32Size {
		return 0, ErrBufferFull
	}
	return pos, nil
}

func (c *Channel) commitMessage(lenPos, start, end int) {
	binary.BigEndian.PutUint32(c.buf[lenPos:], uint32(end-start))
	c.n = end
	c.pending++
}

// Flush sends the pending messages and empties the buffer. Transport
// errors are logged, not returned.
func (c *Channel) Flush() error {
	if err := c.lock(); err != nil {
		return err
	}
	defer c.unlock()
	c.flushLocked()
	return nil
}

func (c *Channel) flushLocked() {
	defer c.reset()
	if c.pending == 0 {
		return
	}
	data := c.buf[:c.n]
	if c.pending == 1 {
		data = data[bundleHeaderSize+bit32Size:]
	}
	to := c.ReplyAddr()
	if c.transport.Addressed() && to == nil {
		LogDebug(ComponentChannel, "dropping replies, no address", "channel", c.name, "messages", c.pending)
		return
	}
	if _, err := c.transport.WritePacket(data, to); err != nil {
		LogWarn(ComponentChannel, "send failed", "channel", c.name, "to", to, "err", err)
	}
}

func (c *Channel) reset() {
	c.n = 0
	c.pending = 0
}

// SubsystemError stages "/<subsystem>/error ,s text".
func (c *Channel) SubsystemError(subsystem, text string) error {
	return c.CreateMessage(joinAddress(subsystem, "error"), text)
}

// SendError reports err to the peer as a subsystem error using the text
// from ErrorText. Failing to stage the reply is logged.
func (c *Channel) SendError(subsystem string, err error) {
	LogDebug(ComponentChannel, "error reply", "channel", c.name, "subsystem", subsystem, "err", err)
	if cerr := c.SubsystemError(subsystem, ErrorText(err)); cerr != nil {
		LogDebug(ComponentChannel, "error reply not sent", "channel", c.name, "err", cerr)
	}
}

// Debug stages "/debug ,ss preamble text".
func (c *Channel) Debug(preamble, text string) error {
	return c.CreateMessage("/debug", preamble, text)
}
