package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/omochice/chatview/internal/server"
	"github.com/omochice/chatview/pkg/logger"
	"go.uber.org/zap"
)

// Server handles TCP connections and delegates to Hub.
type Server struct {
	address   string
	queueSize int
	listener  net.Listener
	hub       *server.Hub
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	ready     chan struct{}
	log       *zap.Logger
}

// New creates a TCP server that uses the provided Hub.
func New(address string, hub *server.Hub, queueSize int, log *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address:   address,
		queueSize: queueSize,
		hub:       hub,
		ctx:       ctx,
		cancel:    cancel,
		ready:     make(chan struct{}),
		log:       logger.OrNop(log).Named("tcp"),
	}
}

// Start starts accepting TCP connections. It blocks until Stop is called
// or the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		close(s.ready)
		return fmt.Errorf("failed to start TCP server: %w", err)
	}

	s.mu.Lock()
	s.listener = listener
	s.mu.Unlock()
	close(s.ready)

	if s.ctx.Err() != nil {
		_ = listener.Close()
		return nil
	}

	s.log.Info("TCP server started", zap.String("addr", listener.Addr().String()))

	for {
		conn, err := listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.log.Warn("Failed to accept TCP connection", zap.Error(err))
			continue
		}

		client := server.NewClient(NewConn(conn), s.queueSize)
		s.hub.Register(client)
		s.log.Debug("Client connected", zap.String("client", client.ID), zap.String("remote", conn.RemoteAddr().String()))

		s.wg.Add(2)
		go s.handleClient(client)
		go s.writeLoop(client)
	}
}

// Ready is closed once Start has bound its listener (or failed to).
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop stops the TCP server. Connected clients are closed through the
// hub, which the caller owns.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	listener := s.listener
	s.mu.Unlock()
	if listener != nil {
		_ = listener.Close()
	}

	s.hub.Close()
	s.wg.Wait()
}

// Addr returns the listening address.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return ""
}

func (s *Server) handleClient(client *server.Client) {
	defer s.wg.Done()
	defer close(client.Outgoing)
	s.hub.HandleClient(s.ctx, client)
}

func (s *Server) writeLoop(client *server.Client) {
	defer s.wg.Done()
	defer client.Conn.Close()
	for data := range client.Outgoing {
		if err := client.Conn.Write(s.ctx, data); err != nil {
			s.log.Debug("Failed to write to TCP client", zap.String("client", client.ID), zap.Error(err))
			return
		}
	}
}
