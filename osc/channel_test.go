package osc

import (
	"encoding/binary"
	"fmt"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pending(t *testing.T, ch *Channel) int {
	t.Helper()
	n, err := ch.Pending()
	require.NoError(t, err)
	return n
}

func TestChannel_SingleMessageIsUnbundled(t *testing.T) {
	ch, ft := testChannel()
	require.NoError(t, ch.CreateMessage("/led/state", int32(1)))
	assert.Equal(t, 1, pending(t, ch))
	require.NoError(t, ch.Flush())

	pkts := ft.packets()
	require.Len(t, pkts, 1)
	assert.Equal(t, mustMarshal(t, NewMessage("/led/state", int32(1))), pkts[0])
	assert.Equal(t, 0, pending(t, ch))
}

func TestChannel_TwoMessagesAreBundled(t *testing.T) {
	ch, ft := testChannel()
	m1 := NewMessage("/a", int32(1))
	m2 := NewMessage("/bb", "text")
	require.NoError(t, ch.CreateMessage(m1.Address, m1.Arguments...))
	require.NoError(t, ch.CreateMessage(m2.Address, m2.Arguments...))
	require.NoError(t, ch.Flush())

	pkts := ft.packets()
	require.Len(t, pkts, 1)
	raw := pkts[0]
	l1, _ := m1.Size()
	l2, _ := m2.Size()
	assert.Len(t, raw, 16+4+l1+4+l2)
	assert.Equal(t, "#bundle\x00", string(raw[:8]))
	assert.Equal(t, uint64(1), binary.BigEndian.Uint64(raw[8:16]))
	assert.Equal(t, uint32(l1), binary.BigEndian.Uint32(raw[16:20]))

	p, err := ParsePacket(raw)
	require.NoError(t, err)
	assert.Equal(t, NewBundle(m1, m2), p)
}

func TestChannel_FlushEmptyIsNoop(t *testing.T) {
	ch, ft := testChannel()
	require.NoError(t, ch.Flush())
	assert.Empty(t, ft.packets())
}

func TestChannel_BufferFullFlushesAndRetries(t *testing.T) {
	// Header (16) plus two 4+20 byte messages fills 64 bytes.
	ch, ft := testChannel(WithBufferSize(80))
	for i := 0; i < 3; i++ {
		require.NoError(t, ch.CreateMessage("/abcdefg", int32(i)))
	}
	pkts := ft.packets()
	require.Len(t, pkts, 1, "first two messages flushed to make room")
	first, err := ParsePacket(pkts[0])
	require.NoError(t, err)
	assert.Len(t, first.(*Bundle).Elements, 2)
	assert.Equal(t, 1, pending(t, ch))

	require.NoError(t, ch.Flush())
	msgs := ft.replies(t)
	require.Len(t, msgs, 3)
	for i, m := range msgs {
		assert.Equal(t, []interface{}{int32(i)}, m.Arguments)
	}
}

func TestChannel_MessageTooLarge(t *testing.T) {
	ch, ft := testChannel(WithBufferSize(32))
	err := ch.CreateMessage("/a", make([]byte, 64))
	assert.True(t, errors.Is(err, ErrBufferFull), "got %v", err)
	assert.Equal(t, "Insufficient Resources", ErrorText(err))
	require.NoError(t, ch.Flush())
	assert.Empty(t, ft.packets())
}

func TestChannel_BadArgumentDoesNotFlush(t *testing.T) {
	ch, ft := testChannel()
	require.NoError(t, ch.CreateMessage("/a"))
	err := ch.CreateMessage("/b", int64(1))
	assert.True(t, errors.Is(err, ErrIncorrectDataType), "got %v", err)
	assert.Empty(t, ft.packets())
	assert.Equal(t, 1, pending(t, ch))
}

func TestChannel_NoAddress(t *testing.T) {
	ft := newFakeTransport(true)
	ch := NewChannel("udp", ft)
	err := ch.CreateMessage("/a")
	assert.True(t, errors.Is(err, ErrNoAddress), "got %v", err)

	ch.SetReplyAddr(&net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 4000})
	require.NoError(t, ch.CreateMessage("/a"))
	require.NoError(t, ch.Flush())
	require.Len(t, ft.to, 1)
	assert.Equal(t, "127.0.0.1:4000", ft.to[0].String())
}

func TestChannel_ReplyPort(t *testing.T) {
	ft := newFakeTransport(true)
	ch := NewChannel("udp", ft, WithReplyPort(10000))
	from := &net.UDPAddr{IP: net.IPv4(10, 0, 0, 2), Port: 5555}
	ch.SetReplyAddr(from)
	assert.Equal(t, "10.0.0.2:10000", ch.ReplyAddr().String())
	assert.Equal(t, 5555, from.Port, "sender address untouched")
}

func TestChannel_Stopped(t *testing.T) {
	ch, _ := testChannel()
	ch.SetRunning(false)
	err := ch.CreateMessage("/a")
	assert.Equal(t, ErrSubsystemInactive, err)
	assert.Equal(t, "Subsystem Inactive", ErrorText(err))
}

func TestChannel_LockTimeout(t *testing.T) {
	ch, _ := testChannel(WithLockTimeout(20 * time.Millisecond))
	require.NoError(t, ch.lock())
	defer ch.unlock()

	start := time.Now()
	err := ch.CreateMessage("/a")
	assert.True(t, errors.Is(err, ErrLockTimeout), "got %v", err)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.Equal(t, "Lock Error", ErrorText(err))

	_, err = ch.Pending()
	assert.True(t, errors.Is(err, ErrLockTimeout), "busy is not empty: %v", err)
}

func TestChannel_ConcurrentWriters(t *testing.T) {
	const writers, perWriter = 8, 200
	ch, ft := testChannel(WithLockTimeout(10 * time.Second))

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			address := fmt.Sprintf("/writer/%d", w)
			for i := 0; i < perWriter; i++ {
				if err := ch.CreateMessage(address, int32(i), "payload"); err != nil {
					t.Errorf("CreateMessage(%s, %d) error = %v", address, i, err)
					return
				}
				if i%7 == 0 {
					if err := ch.Flush(); err != nil {
						t.Errorf("Flush() error = %v", err)
						return
					}
				}
			}
		}(w)
	}
	wg.Wait()
	require.NoError(t, ch.Flush())
	assert.Equal(t, 0, pending(t, ch))

	seen := make(map[string]int)
	for _, m := range ft.replies(t) {
		require.Len(t, m.Arguments, 2, m.Address)
		assert.Equal(t, "payload", m.Arguments[1])
		seen[fmt.Sprintf("%s %d", m.Address, m.Arguments[0])]++
	}
	assert.Len(t, seen, writers*perWriter)
	for w := 0; w < writers; w++ {
		for i := 0; i < perWriter; i++ {
			key := fmt.Sprintf("/writer/%d %d", w, i)
			assert.Equal(t, 1, seen[key], key)
		}
	}
}

func TestChannel_TransportErrorIsSwallowed(t *testing.T) {
	ch, ft := testChannel()
	ft.writeErr = errors.New("link down")
	require.NoError(t, ch.CreateMessage("/a"))
	assert.NoError(t, ch.Flush())
	assert.Equal(t, 0, pending(t, ch))
}

func TestChannel_Errors(t *testing.T) {
	ch, ft := testChannel()
	ch.SendError("led", ErrUnknownProperty)
	require.NoError(t, ch.Debug("trace", "hello"))
	require.NoError(t, ch.Flush())

	msgs := ft.replies(t)
	require.Len(t, msgs, 2)
	assert.Equal(t, NewMessage("/led/error", "Unknown Property"), msgs[0])
	assert.Equal(t, NewMessage("/debug", "trace", "hello"), msgs[1])
}
