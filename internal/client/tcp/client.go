// Package tcp provides a line-delimited TCP transport channel for chat
// sessions. Each line carries one JSON envelope.
package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"

	"github.com/omochice/chatview/internal/chat"
	"github.com/omochice/chatview/pkg/logger"
	"go.uber.org/zap"
)

// DefaultQueueSize is the outbound queue capacity used when none is given.
const DefaultQueueSize = 1000

// MaxLineSize bounds a single inbound envelope.
const MaxLineSize = 64 * 1024

var (
	// ErrQueueFull is returned by Submit when the outbound queue is full.
	ErrQueueFull = chat.ErrQueueFull

	// ErrClosed is returned by Submit after the channel has been closed.
	ErrClosed = chat.ErrClosed
)

// Options configures a Channel.
type Options struct {
	// QueueSize bounds the outbound queue. Defaults to DefaultQueueSize.
	QueueSize int
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Channel is a TCP connection with a bounded outbound queue and a stream
// of inbound lines.
type Channel struct {
	conn     net.Conn
	outgoing chan string
	frames   chan string
	log      *zap.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// Dial connects to address (host:port) and starts the read and write
// loops.
func Dial(ctx context.Context, address string, opts Options) (*Channel, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	c := &Channel{
		conn:     conn,
		outgoing: make(chan string, opts.QueueSize),
		frames:   make(chan string, opts.QueueSize),
		log:      logger.OrNop(opts.Logger).Named("transport").With(zap.String("address", address)),
		ctx:      loopCtx,
		cancel:   cancel,
	}

	c.wg.Add(2)
	go c.writeLoop()
	go c.readLoop()

	c.log.Info("Connected")
	return c, nil
}

// Submit queues text for sending without blocking.
func (c *Channel) Submit(text string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.closed {
		return ErrClosed
	}

	select {
	case c.outgoing <- text:
		return nil
	default:
		return ErrQueueFull
	}
}

// Frames returns inbound lines. It is closed when the connection ends.
func (c *Channel) Frames() <-chan string {
	return c.frames
}

// Done is closed once the channel has shut down.
func (c *Channel) Done() <-chan struct{} {
	return c.ctx.Done()
}

// Close closes the connection and waits for both loops to exit.
func (c *Channel) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.shutdown()
		err = c.conn.Close()
		c.wg.Wait()
		c.log.Info("Disconnected")
	})
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *Channel) shutdown() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
}

func (c *Channel) writeLoop() {
	defer c.wg.Done()

	for {
		select {
		case <-c.ctx.Done():
			return
		case text := <-c.outgoing:
			if _, err := io.WriteString(c.conn, text+"\n"); err != nil {
				if c.ctx.Err() == nil {
					c.log.Error("Failed to send message", zap.Error(err))
				}
				c.shutdown()
				_ = c.conn.Close()
				return
			}
		}
	}
}

func (c *Channel) readLoop() {
	defer c.wg.Done()
	defer close(c.frames)

	scanner := bufio.NewScanner(c.conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		select {
		case c.frames <- line:
		case <-c.ctx.Done():
			return
		}
	}

	if err := scanner.Err(); err != nil && c.ctx.Err() == nil {
		c.log.Warn("Error reading from server", zap.Error(err))
	}
	c.shutdown()
}
