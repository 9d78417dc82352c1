package notify

import "context"

// Channel is a Notifier that hands toasts to a single consumer, such as
// the UI event loop.
type Channel struct {
	ch chan Toast
}

// NewChannel returns a Channel buffering up to size toasts.
func NewChannel(size int) *Channel {
	if size < 0 {
		size = 0
	}
	return &Channel{ch: make(chan Toast, size)}
}

// Notify queues t, blocking while the buffer is full.
func (c *Channel) Notify(ctx context.Context, t Toast) error {
	select {
	case c.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// C returns the receive side.
func (c *Channel) C() <-chan Toast {
	return c.ch
}
