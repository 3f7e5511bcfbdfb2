// Package chat holds the client session: registration, roster and timeline
// reconciliation, and composing outbound messages.
package chat

import "errors"

var (
	// ErrQueueFull is returned by a Channel whose outbound queue is full.
	ErrQueueFull = errors.New("outbound queue is full")

	// ErrClosed is returned by a Channel after it has been closed.
	ErrClosed = errors.New("channel is closed")
)

// Channel abstracts the outbound half of the transport.
// This interface isolates connection handling from session logic.
type Channel interface {
	// Submit enqueues one encoded envelope. It must not block: a full or
	// closed channel is reported through the returned error.
	Submit(text string) error
}

// ChannelFunc adapts an ordinary function to Channel.
type ChannelFunc func(text string) error

// Submit implements Channel.
func (f ChannelFunc) Submit(text string) error {
	return f(text)
}
