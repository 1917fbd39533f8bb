package sse

import (
	"errors"
	"sync"
)

// ErrChannelClosed is returned by Send after a channel has closed.
var ErrChannelClosed = errors.New("channel closed")

// SendFunc writes one encoded frame to the underlying transport.
type SendFunc func(frame []byte) error

// Channel is one open push connection for one user. Closure from any cause
// (client disconnect, idle timeout, failed send, heartbeat failure) funnels
// through Close, which runs exactly once and detaches the channel from its
// registry.
type Channel struct {
	userID int64
	send   SendFunc

	mu        sync.Mutex // serializes writes to the transport
	closeOnce sync.Once
	closed    chan struct{}
	onClose   func(*Channel, string)
}

func newChannel(userID int64, send SendFunc, onClose func(*Channel, string)) *Channel {
	return &Channel{
		userID:  userID,
		send:    send,
		closed:  make(chan struct{}),
		onClose: onClose,
	}
}

// UserID returns the owning user.
func (c *Channel) UserID() int64 {
	return c.userID
}

// Send encodes and writes one event. A transport error closes the channel
// and is returned to the caller.
func (c *Channel) Send(ev Event) error {
	select {
	case <-c.closed:
		return ErrChannelClosed
	default:
	}

	frame, err := ev.Encode()
	if err != nil {
		return err
	}

	c.mu.Lock()
	// Re-check under the lock: Close flips the closed channel while
	// holding it, so a send that raced past the earlier check must not
	// touch the transport.
	select {
	case <-c.closed:
		c.mu.Unlock()
		return ErrChannelClosed
	default:
	}
	err = c.send(frame)
	c.mu.Unlock()

	if err != nil {
		c.Close("send failed")
		return err
	}
	return nil
}

// Close shuts the channel down. Safe to call from any goroutine, any number
// of times. Close does not return until any in-flight transport write has
// finished, so once it returns the subscribe handler may safely release the
// underlying ResponseWriter.
func (c *Channel) Close(reason string) {
	c.closeOnce.Do(func() {
		// Taking the write lock waits out an in-flight Send. The
		// send-failure path calls Close only after unlocking, so this
		// cannot deadlock.
		c.mu.Lock()
		close(c.closed)
		c.mu.Unlock()

		if c.onClose != nil {
			c.onClose(c, reason)
		}
	})
}

// Closed is closed once the channel has shut down. Handlers select on it to
// end the streaming response.
func (c *Channel) Closed() <-chan struct{} {
	return c.closed
}
