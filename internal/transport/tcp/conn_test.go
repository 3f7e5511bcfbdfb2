package tcp_test

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/omochice/chatview/internal/server"
	"github.com/omochice/chatview/internal/transport/tcp"
)

func TestConn_ImplementsInterface(t *testing.T) {
	var _ server.Conn = (*tcp.Conn)(nil)
}

func TestConn_Read(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		srv.Write([]byte("first\r\n\nsecond\nthird"))
		srv.Close()
	}()

	for _, want := range []string{"first", "second", "third"} {
		data, err := conn.Read(context.Background())
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if string(data) != want {
			t.Errorf("Read() = %q, want %q", string(data), want)
		}
	}

	if _, err := conn.Read(context.Background()); !errors.Is(err, io.EOF) {
		t.Errorf("Read() at end error = %v, want io.EOF", err)
	}
}

func TestConn_ReadLineTooLong(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		srv.Write([]byte(strings.Repeat("x", tcp.MaxLineSize+1)))
		srv.Close()
	}()

	if _, err := conn.Read(context.Background()); !errors.Is(err, bufio.ErrTooLong) {
		t.Errorf("Read() error = %v, want bufio.ErrTooLong", err)
	}
}

func TestConn_ReadCanceledContext(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := conn.Read(ctx); err == nil {
		t.Error("Read() error = nil with canceled context")
	}
}

func TestConn_Write(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	go func() {
		err := conn.Write(context.Background(), []byte("hello"))
		if err != nil {
			t.Errorf("Write() error = %v", err)
		}
	}()

	line, err := bufio.NewReader(srv).ReadString('\n')
	if err != nil {
		t.Fatalf("server read error: %v", err)
	}
	if line != "hello\n" {
		t.Errorf("server received %q, want %q", line, "hello\n")
	}
}

func TestConn_Close(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()

	conn := tcp.NewConn(client)

	err := conn.Close()
	if err != nil {
		t.Errorf("Close() error = %v", err)
	}

	_, err = client.Read(make([]byte, 1))
	if err == nil {
		t.Error("expected error after close, got nil")
	}
}

func TestConn_RemoteAddr(t *testing.T) {
	srv, client := net.Pipe()
	defer srv.Close()
	defer client.Close()

	conn := tcp.NewConn(client)

	addr := conn.RemoteAddr()
	if addr == "" {
		t.Error("RemoteAddr() returned empty string")
	}
}
