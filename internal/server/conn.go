// Package server provides the development chat hub: it tracks registered
// users, attributes senders and fans envelopes out to every connection.
package server

import "context"

// Conn abstracts one client connection.
// This interface isolates transport details from hub logic.
type Conn interface {
	// Read reads a single text frame.
	// Returns io.EOF when connection is closed.
	Read(ctx context.Context) ([]byte, error)

	// Write sends a single text frame.
	Write(ctx context.Context, data []byte) error

	// Close closes the connection.
	Close() error

	// RemoteAddr returns the remote address for logging.
	RemoteAddr() string
}
