// Package tcp provides a line-oriented TCP transport for the dev chat
// server. Each line carries one JSON envelope.
package tcp

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net"
	"sync"
)

// MaxLineSize bounds a single inbound envelope.
const MaxLineSize = 64 * 1024

// Conn adapts net.Conn to server.Conn.
type Conn struct {
	conn    net.Conn
	scanner *bufio.Scanner
	wmu     sync.Mutex
}

// NewConn wraps a net.Conn.
func NewConn(conn net.Conn) *Conn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), MaxLineSize)
	return &Conn{conn: conn, scanner: scanner}
}

// Read implements server.Conn.
// Returns the next non-empty line without its terminator.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !c.scanner.Scan() {
			if err := c.scanner.Err(); err != nil {
				return nil, err
			}
			return nil, io.EOF
		}
		line := bytes.TrimRight(c.scanner.Bytes(), "\r")
		if len(line) == 0 {
			continue
		}
		return bytes.Clone(line), nil
	}
}

// Write implements server.Conn.
// Writes data followed by a newline.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(append(bytes.Clone(data), '\n'))
	return err
}

// Close implements server.Conn.
func (c *Conn) Close() error {
	return c.conn.Close()
}

// RemoteAddr implements server.Conn.
func (c *Conn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
