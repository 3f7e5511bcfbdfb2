// Package ws provides the WebSocket transport for the dev chat server.
package ws

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"sync"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
)

// MaxMessageSize bounds a single inbound text message, matching the TCP
// line limit.
const MaxMessageSize = 64 * 1024

// ErrMessageTooLarge is returned by Read when a text message exceeds
// MaxMessageSize.
var ErrMessageTooLarge = errors.New("websocket message too large")

// Conn adapts a server side gobwas/ws connection to server.Conn.
type Conn struct {
	conn       net.Conn
	rd         *wsutil.Reader
	wmu        sync.Mutex
	remoteAddr string
}

// NewConn wraps an upgraded connection. r is the reader returned by the
// upgrade, which may hold bytes already read from conn.
func NewConn(conn net.Conn, r io.Reader, addr string) *Conn {
	if r == nil {
		r = conn
	}
	c := &Conn{conn: conn, remoteAddr: addr}
	c.rd = &wsutil.Reader{
		Source:         r,
		State:          ws.StateServerSide,
		CheckUTF8:      true,
		OnIntermediate: c.handleControl,
	}
	return c
}

// Read implements server.Conn.
// Reads the next text message; control frames are answered in place and
// binary messages are skipped.
func (c *Conn) Read(ctx context.Context) ([]byte, error) {
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		hdr, err := c.rd.NextFrame()
		if err != nil {
			return nil, err
		}

		if hdr.OpCode.IsControl() {
			if err := c.handleControl(hdr, c.rd); err != nil {
				return nil, err
			}
			continue
		}

		if hdr.OpCode != ws.OpText {
			if err := c.rd.Discard(); err != nil {
				return nil, err
			}
			continue
		}

		data, err := io.ReadAll(io.LimitReader(c.rd, MaxMessageSize+1))
		if err != nil {
			return nil, err
		}
		if len(data) > MaxMessageSize {
			return nil, ErrMessageTooLarge
		}
		return data, nil
	}
}

// Write implements server.Conn.
// Writes data as a single text frame.
func (c *Conn) Write(ctx context.Context, data []byte) error {
	var buf bytes.Buffer
	if err := wsutil.WriteServerText(&buf, data); err != nil {
		return err
	}
	return c.writeRaw(buf.Bytes())
}

// Close implements server.Conn.
func (c *Conn) Close() error {
	var buf bytes.Buffer
	body := ws.NewCloseFrameBody(ws.StatusNormalClosure, "")
	if err := ws.WriteFrame(&buf, ws.NewCloseFrame(body)); err == nil {
		_ = c.writeRaw(buf.Bytes())
	}
	return c.conn.Close()
}

// RemoteAddr implements server.Conn.
func (c *Conn) RemoteAddr() string {
	return c.remoteAddr
}

// handleControl answers pings and close frames. The reply is assembled in
// memory and written in one call so it cannot interleave with Write.
func (c *Conn) handleControl(hdr ws.Header, r io.Reader) error {
	var buf bytes.Buffer
	err := wsutil.ControlFrameHandler(&buf, ws.StateServerSide)(hdr, r)
	if buf.Len() > 0 {
		if werr := c.writeRaw(buf.Bytes()); err == nil {
			err = werr
		}
	}
	return err
}

func (c *Conn) writeRaw(frame []byte) error {
	c.wmu.Lock()
	defer c.wmu.Unlock()
	_, err := c.conn.Write(frame)
	return err
}
