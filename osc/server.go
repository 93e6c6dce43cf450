package osc

import (
	"context"
	"io"
	"net"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/pkg/errors"
)

type temporary interface {
	Temporary() bool
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func isTemporary(err error) bool {
	var te temporary
	return errors.As(err, &te) && te.Temporary()
}

// Serve reads packets from ch's transport and dispatches them until ctx is
// done or the transport fails. Read timeouts only serve to check ctx.
func (e *Engine) Serve(ctx context.Context, ch *Channel) error {
	buf := make([]byte, e.inSize)
	var tempDelay time.Duration
	for ctx.Err() == nil {
		n, from, err := ch.Transport().ReadPacket(buf, e.readTimeout)
		if err != nil {
			switch {
			case isTimeout(err):
				continue
			case isTemporary(err):
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay *= 2
				}
				if max := 1 * time.Second; tempDelay > max {
					tempDelay = max
				}
				LogWarn(ComponentEngine, "temporary read error", "channel", ch.Name(), "err", err, "retry", tempDelay)
				time.Sleep(tempDelay)
				continue
			case ctx.Err() != nil:
				return nil
			case errors.Is(err, net.ErrClosed), errors.Is(err, io.EOF):
				LogInfo(ComponentEngine, "transport closed", "channel", ch.Name())
				return nil
			}
			return errors.Wrapf(err, "serve %s", ch.Name())
		}
		tempDelay = 0
		if n == 0 {
			continue
		}
		if from != nil {
			ch.SetReplyAddr(from)
		}
		e.serve(ch, buf[:n])
	}
	return nil
}

func (e *Engine) serve(ch *Channel, data []byte) {
	defer func() {
		if err := recover(); err != nil {
			buf := make([]byte, 4096)
			buf = buf[:runtime.Stack(buf, false)]
			LogError(ComponentEngine, "panic handling packet", "channel", ch.Name(), "err", err, "stack", string(buf))
		}
	}()
	e.ReceivePacket(ch, data)
}

// RunAsync polls for autosend updates every AsyncInterval until ctx is
// done.
func (e *Engine) RunAsync(ctx context.Context) error {
	for {
		t := time.NewTimer(e.AsyncInterval())
		select {
		case <-ctx.Done():
			t.Stop()
			return nil
		case <-t.C:
		}
		e.pollOnce()
	}
}

func (e *Engine) pollOnce() {
	defer func() {
		if err := recover(); err != nil {
			LogError(ComponentEngine, "panic during autosend", "err", err)
		}
	}()
	e.PollOnce()
}

// Run serves every channel and runs autosend polling until ctx is done or
// a receive loop fails. It returns the first failure.
func (e *Engine) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	chs := e.Channels()
	errc := make(chan error, len(chs))
	var wg sync.WaitGroup
	for _, ch := range chs {
		wg.Add(1)
		go func(ch *Channel) {
			defer wg.Done()
			if err := e.Serve(ctx, ch); err != nil {
				LogError(ComponentEngine, "receive loop stopped", "channel", ch.Name(), "err", err)
				errc <- err
				cancel()
			}
		}(ch)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = e.RunAsync(ctx)
	}()

	wg.Wait()
	close(errc)
	return <-errc
}
