// Package client dials a chat server over WebSocket or line-delimited TCP.
package client

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/internal/client/tcp"
	"github.com/omochice/chatview/internal/client/ws"
	"go.uber.org/zap"
)

// ErrUnsupportedScheme is returned by Dial for URLs other than ws, wss and
// tcp.
var ErrUnsupportedScheme = errors.New("unsupported server URL scheme")

// Transport is a connected channel that also delivers inbound frames.
// Both the WebSocket and TCP implementations satisfy this interface.
type Transport interface {
	chat.Channel
	Frames() <-chan string
	Done() <-chan struct{}
	Close() error
}

// Options configures Dial.
type Options struct {
	QueueSize int
	Logger    *zap.Logger
}

// Dial connects to serverURL, picking the transport from its scheme.
func Dial(ctx context.Context, serverURL string, opts Options) (Transport, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}

	switch u.Scheme {
	case "ws", "wss":
		ch, err := ws.Dial(ctx, serverURL, ws.Options{QueueSize: opts.QueueSize, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		return ch, nil
	case "tcp":
		ch, err := tcp.Dial(ctx, u.Host, tcp.Options{QueueSize: opts.QueueSize, Logger: opts.Logger})
		if err != nil {
			return nil, err
		}
		return ch, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
}
