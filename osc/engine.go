package osc

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"github.com/pkg/errors"
)

const (
	// DefaultReceiveBufferSize is the largest packet a channel reads.
	DefaultReceiveBufferSize = 8192
	// DefaultReadTimeout is how long a receive loop blocks before it
	// checks for shutdown.
	DefaultReadTimeout = 100 * time.Millisecond
	// DefaultAsyncInterval is the autosend polling period.
	DefaultAsyncInterval = 10 * time.Millisecond
)

// Engine routes packets received on its channels to its subsystems and
// polls subsystems for autosend updates.
type Engine struct {
	mu         sync.RWMutex
	channels   *treemap.Map // name -> *Channel
	subsystems []Subsystem
	autosend   map[string]bool

	maxDepth      int
	inSize        int
	readTimeout   time.Duration
	asyncInterval atomic.Int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxDepth limits bundle nesting in received packets.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// WithReceiveBufferSize sets the size of each receive loop's buffer.
func WithReceiveBufferSize(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.inSize = n
		}
	}
}

// WithReadTimeout sets how long a receive loop waits per read.
func WithReadTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.readTimeout = d
		}
	}
}

// WithAsyncInterval sets the autosend polling period.
func WithAsyncInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.asyncInterval.Store(int64(d))
		}
	}
}

// NewEngine returns an engine with no channels and no subsystems.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		channels:    treemap.NewWithStringComparator(),
		autosend:    make(map[string]bool),
		maxDepth:    DefaultMaxDepth,
		inSize:      DefaultReceiveBufferSize,
		readTimeout: DefaultReadTimeout,
	}
	e.asyncInterval.Store(int64(DefaultAsyncInterval))
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AddChannel registers ch under its name.
func (e *Engine) AddChannel(ch *Channel) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, found := e.channels.Get(ch.Name()); found {
		return errors.Errorf("channel %q exists already", ch.Name())
	}
	e.channels.Put(ch.Name(), ch)
	LogInfo(ComponentEngine, "channel added", "channel", ch.Name())
	return nil
}

// Channel returns the channel called name.
func (e *Engine) Channel(name string) (*Channel, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, found := e.channels.Get(name)
	if !found {
		return nil, false
	}
	return v.(*Channel), true
}

// Channels returns the channels ordered by name.
func (e *Engine) Channels() []*Channel {
	e.mu.RLock()
	defer e.mu.RUnlock()
	chs := make([]*Channel, 0, e.channels.Size())
	for _, v := range e.channels.Values() {
		chs = append(chs, v.(*Channel))
	}
	return chs
}

// Register adds a subsystem. Names must be unique and free of pattern
// characters.
func (e *Engine) Register(sub Subsystem) error {
	if err := validSubsystemName(sub.Name()); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.subsystems {
		if s.Name() == sub.Name() {
			return errors.Errorf("subsystem %q exists already", sub.Name())
		}
	}
	e.subsystems = append(e.subsystems, sub)
	LogInfo(ComponentEngine, "subsystem registered", "subsystem", sub.Name())
	return nil
}

// RegisterNode validates root and registers it as a subsystem.
func (e *Engine) RegisterNode(root *Node) error {
	sub, err := NewNodeSubsystem(root)
	if err != nil {
		return err
	}
	return e.Register(sub)
}

// Subsystems returns the registered subsystems in registration order.
func (e *Engine) Subsystems() []Subsystem {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Subsystem(nil), e.subsystems...)
}

// SetAutoSend turns autosend polling on or off for a channel.
func (e *Engine) SetAutoSend(channel string, on bool) error {
	if _, ok := e.Channel(channel); !ok {
		return errors.Errorf("no channel %q", channel)
	}
	e.mu.Lock()
	e.autosend[channel] = on
	e.mu.Unlock()
	return nil
}

// AutoSend reports whether channel receives autosend updates.
func (e *Engine) AutoSend(channel string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.autosend[channel]
}

// SetAsyncInterval changes the autosend polling period.
func (e *Engine) SetAsyncInterval(d time.Duration) error {
	if d <= 0 {
		return errors.Errorf("async interval %v", d)
	}
	e.asyncInterval.Store(int64(d))
	return nil
}

// AsyncInterval returns the autosend polling period.
func (e *Engine) AsyncInterval() time.Duration {
	return time.Duration(e.asyncInterval.Load())
}

// ReceivePacket dispatches a packet that arrived on ch and flushes the
// replies it produced. It returns the number of properties served.
func (e *Engine) ReceivePacket(ch *Channel, data []byte) int {
	n := e.receivePacket(ch, e.Subsystems(), data, e.maxDepth)
	if err := ch.Flush(); err != nil {
		LogWarn(ComponentEngine, "flush failed", "channel", ch.Name(), "err", err)
	}
	return n
}

func (e *Engine) receivePacket(ch *Channel, subs []Subsystem, data []byte, depth int) int {
	if len(data) == 0 {
		return 0
	}

	switch data[0] {
	case '/':
		msg := &Message{}
		if err := msg.UnmarshalBinary(data); err != nil {
			e.packetError(ch, err)
			return 0
		}
		return route(ch, subs, msg)

	case '#':
		if depth < 1 {
			e.packetError(ch, ErrDepthExceeded)
			return 0
		}
		count := 0
		err := walkBundle(data, func(elem []byte) error {
			count += e.receivePacket(ch, subs, elem, depth-1)
			return nil
		})
		if err != nil {
			e.packetError(ch, err)
		}
		return count
	}

	e.packetError(ch, errors.Wrapf(ErrBadPacket, "first byte %#x", data[0]))
	return 0
}

func (e *Engine) packetError(ch *Channel, err error) {
	LogDebug(ComponentEngine, "bad packet", "channel", ch.Name(), "err", err)
	if cerr := ch.CreateMessage("/error", ErrorText(err)); cerr != nil {
		LogDebug(ComponentEngine, "error reply not sent", "channel", ch.Name(), "err", cerr)
	}
}

// PollOnce asks every Poller for updates on each autosend channel and
// flushes those channels. It returns the number of messages created.
func (e *Engine) PollOnce() int {
	subs := e.Subsystems()
	n := 0
	for _, ch := range e.Channels() {
		if !e.AutoSend(ch.Name()) || !ch.Running() {
			continue
		}
		sent := 0
		for _, sub := range subs {
			if p, ok := sub.(Poller); ok {
				sent += p.Poll(ch)
			}
		}
		if sent > 0 {
			if err := ch.Flush(); err != nil {
				LogWarn(ComponentEngine, "flush failed", "channel", ch.Name(), "err", err)
			}
		}
		n += sent
	}
	return n
}

// Close closes every channel's transport.
func (e *Engine) Close() error {
	var first error
	for _, ch := range e.Channels() {
		ch.SetRunning(false)
		if err := ch.Transport().Close(); err != nil && first == nil {
			first = errors.Wrapf(err, "close %s", ch.Name())
		}
	}
	return first
}
