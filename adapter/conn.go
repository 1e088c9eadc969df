package adapter

import (
	"context"
	"sync"

	"github.com/openiap/openiap-go/errcode"
)

type ConnState uint8

const (
	StateDisconnected ConnState = iota
	StateConnecting
	StateConnected
)

func (s ConnState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Conn is the connection state machine shared by adapter implementations:
// Disconnected -> Connecting -> Connected -> Disconnected. It owns the
// lifetime of the single listener goroutine.
type Conn struct {
	mu     sync.Mutex
	state  ConnState
	cancel context.CancelFunc
	done   chan struct{}
}

// Begin transitions to Connected, running the listener in its own
// goroutine until the connection ends. Calling Begin while connected is a
// success no-op; the listener is never registered twice.
func (c *Conn) Begin(listen func(ctx context.Context)) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state == StateConnected {
		return nil
	}

	c.state = StateConnecting

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go func() {
		defer close(done)
		listen(ctx)
	}()

	c.state = StateConnected
	return nil
}

// End cancels the listener and waits for it to exit. Idempotent.
func (c *Conn) End() error {
	c.mu.Lock()
	if c.state != StateConnected {
		c.mu.Unlock()
		return nil
	}
	cancel, done := c.cancel, c.done
	c.state = StateDisconnected
	c.cancel = nil
	c.done = nil
	c.mu.Unlock()

	cancel()
	<-done
	return nil
}

func (c *Conn) State() ConnState {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

// Require yields a NotPrepared error when an operation is attempted
// outside the Connected state.
func (c *Conn) Require() error {
	if c.State() != StateConnected {
		return errcode.New(errcode.NotPrepared)
	}
	return nil
}
