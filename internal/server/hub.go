package server

import (
	"context"
	"errors"
	"io"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/omochice/chatview/pkg/logger"
	"github.com/omochice/chatview/pkg/protocol"
	"go.uber.org/zap"
)

// DefaultQueueSize is the per-client outgoing buffer used by NewClient.
const DefaultQueueSize = 64

// Client represents a connected client with transport-agnostic connection.
type Client struct {
	ID       string
	Conn     Conn
	Outgoing chan []byte

	// username is empty until the client registers. Guarded by Hub.mu.
	username string
}

// NewClient wraps conn with a fresh ID and an outgoing queue of the given
// size.
func NewClient(conn Conn, queueSize int) *Client {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Client{
		ID:       uuid.NewString(),
		Conn:     conn,
		Outgoing: make(chan []byte, queueSize),
	}
}

// Hub manages all connected clients and handles broadcast.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]bool
	// named lists registered clients in registration order.
	named []*Client
	log   *zap.Logger
}

// NewHub creates a new Hub.
func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		log:     logger.OrNop(log).Named("hub"),
	}
}

// Register adds a client to the hub. It receives broadcasts but is not
// listed in the roster until it sends a register envelope.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
}

// Unregister removes a client from the hub and, if it had registered a
// username, broadcasts the shrunken roster.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	delete(h.clients, client)

	i := slices.Index(h.named, client)
	if i < 0 {
		return
	}
	h.named = slices.Delete(h.named, i, i+1)
	h.log.Info("User left", zap.String("client", client.ID), zap.String("username", client.username))
	h.broadcastUsersLocked()
}

// ClientCount returns number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Users returns registered usernames in registration order.
func (h *Hub) Users() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.usersLocked()
}

// Close closes every client connection. Read loops blocked in HandleClient
// return with an error and unregister themselves.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients {
		if err := client.Conn.Close(); err != nil {
			h.log.Debug("Failed to close client", zap.String("client", client.ID), zap.Error(err))
		}
	}
}

// HandleClient reads frames from client until the connection fails, then
// unregisters it.
func (h *Hub) HandleClient(ctx context.Context, client *Client) {
	defer h.Unregister(client)

	for {
		data, err := client.Conn.Read(ctx)
		if err != nil {
			if !errors.Is(err, io.EOF) && ctx.Err() == nil {
				h.log.Debug("Error reading from client",
					zap.String("client", client.ID),
					zap.String("remote", client.Conn.RemoteAddr()),
					zap.Error(err))
			}
			return
		}
		h.HandleFrame(client, data)
	}
}

// HandleFrame applies one frame received from client.
func (h *Hub) HandleFrame(client *Client, data []byte) {
	env, err := protocol.Decode(data)
	if err != nil {
		h.log.Warn("Failed to decode message", zap.String("client", client.ID), zap.Error(err))
		return
	}

	switch env := env.(type) {
	case protocol.Register:
		h.register(client, env.Username)
	case protocol.Message:
		h.relay(client, env)
	case protocol.Users:
		// Rosters only flow from the hub to clients.
	}
}

func (h *Hub) register(client *Client, username string) {
	if username == "" {
		h.log.Warn("Ignoring register without username", zap.String("client", client.ID))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.clients[client] {
		return
	}
	client.username = username
	if !slices.Contains(h.named, client) {
		h.named = append(h.named, client)
	}
	h.log.Info("User joined", zap.String("client", client.ID), zap.String("username", username))
	h.broadcastUsersLocked()
}

// relay attributes a composed message to the sending client's username and
// sends it to every client, the sender included.
func (h *Hub) relay(client *Client, env protocol.Message) {
	out, err := protocol.DecodeOutbound(env.Data)
	if err != nil {
		h.log.Warn("Failed to decode message data", zap.String("client", client.ID), zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	if client.username == "" {
		h.log.Warn("Dropping message from unregistered client", zap.String("client", client.ID))
		return
	}

	payload, err := protocol.EncodeChatMessage(protocol.ChatMessage{
		From:      client.username,
		Body:      out.Body,
		Timestamp: out.Timestamp,
	})
	if err != nil {
		h.log.Error("Failed to encode chat message", zap.Error(err))
		return
	}
	data, err := protocol.Encode(protocol.Message{Data: payload})
	if err != nil {
		h.log.Error("Failed to encode envelope", zap.Error(err))
		return
	}

	h.log.Debug("Message relayed", zap.String("from", client.username))
	h.broadcastLocked(data)
}

func (h *Hub) usersLocked() []string {
	names := make([]string, 0, len(h.named))
	for _, c := range h.named {
		names = append(names, c.username)
	}
	return names
}

func (h *Hub) broadcastUsersLocked() {
	data, err := protocol.Encode(protocol.Users{Names: h.usersLocked()})
	if err != nil {
		h.log.Error("Failed to encode users", zap.Error(err))
		return
	}
	h.broadcastLocked(data)
}

// broadcastLocked sends data to all clients. h.mu must be held.
func (h *Hub) broadcastLocked(data []byte) {
	for client := range h.clients {
		select {
		case client.Outgoing <- data:
		default:
			// Channel is full, skip this client
			h.log.Warn("Client channel full, skipping", zap.String("client", client.ID))
		}
	}
}
