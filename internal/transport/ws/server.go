package ws

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync"

	"github.com/gobwas/ws"
	"github.com/omochice/chatview/internal/server"
	"github.com/omochice/chatview/pkg/logger"
	"go.uber.org/zap"
)

// DefaultPath is where the server accepts WebSocket upgrades.
const DefaultPath = "/chat"

// Server handles WebSocket connections and delegates to Hub.
type Server struct {
	address   string
	queueSize int
	listener  net.Listener
	hub       *server.Hub
	server    *http.Server
	ctx       context.Context
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	ready     chan struct{}
	log       *zap.Logger
}

// New creates a WebSocket server that uses the provided Hub. queueSize
// bounds each client's outgoing queue.
func New(address string, hub *server.Hub, queueSize int, log *zap.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		address:   address,
		queueSize: queueSize,
		hub:       hub,
		ctx:       ctx,
		cancel:    cancel,
		ready:     make(chan struct{}),
		log:       logger.OrNop(log).Named("ws"),
	}
}

// Start starts accepting WebSocket connections. It blocks until Stop is
// called or the listener fails.
func (s *Server) Start() error {
	listener, err := net.Listen("tcp", s.address)
	if err != nil {
		close(s.ready)
		return err
	}

	mux := http.NewServeMux()
	mux.HandleFunc(DefaultPath, s.handleWebSocket)

	s.mu.Lock()
	s.listener = listener
	s.server = &http.Server{Handler: mux}
	srv := s.server
	s.mu.Unlock()
	close(s.ready)

	if s.ctx.Err() != nil {
		_ = listener.Close()
		return nil
	}

	s.log.Info("WebSocket server started", zap.String("addr", listener.Addr().String()))

	if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Ready is closed once Start has bound its listener (or failed to).
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Stop stops the WebSocket server and disconnects every client.
func (s *Server) Stop() {
	s.cancel()

	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()
	if srv != nil {
		if err := srv.Shutdown(context.Background()); err != nil {
			s.log.Warn("Shutdown failed", zap.Error(err))
		}
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

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	netConn, rw, _, err := ws.UpgradeHTTP(r, w)
	if err != nil {
		s.log.Warn("Failed to accept WebSocket connection", zap.Error(err))
		return
	}

	var src io.Reader = netConn
	if rw != nil {
		src = rw.Reader
	}

	client := server.NewClient(NewConn(netConn, src, r.RemoteAddr), s.queueSize)
	s.hub.Register(client)
	if s.ctx.Err() != nil {
		s.hub.Unregister(client)
		_ = netConn.Close()
		return
	}
	s.log.Debug("Client connected", zap.String("client", client.ID), zap.String("remote", r.RemoteAddr))

	s.wg.Add(2)
	go s.handleClient(client)
	go s.writeLoop(client)
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
			s.log.Debug("Failed to write to WebSocket client", zap.String("client", client.ID), zap.Error(err))
			return
		}
	}
}
