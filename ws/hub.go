package ws

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// EventPublisher is the slice of the hub services depend on. Services only
// see this interface, so their tests swap in a recorder and never open a
// socket.
//
// All methods are non-blocking: an event for an offline user is dropped,
// and a client whose send buffer is full is disconnected rather than
// stalling the caller. Durable state (the notification inbox) lives in the
// database; realtime events are a hint to refetch.
type EventPublisher interface {
	BroadcastToUser(userID string, event Event)
	BroadcastToUsers(userIDs []string, event Event)
	IsOnline(userID string) bool
}

// ReadyBuilder produces the payload of the ready event for a new connection.
type ReadyBuilder func(ctx context.Context, userID string) (any, error)

// Hub tracks every connection, keyed by user. One user can have several
// tabs open, so each user maps to a set of clients.
//
// Registration goes through the register / unregister channels and is
// applied by the single Run goroutine; broadcasts only take the read lock
// and may run from any request goroutine. Every outgoing event is stamped
// with a hub-wide sequence number so a client can order them and notice
// gaps.
//
// Lifecycle:
//
//	hub := NewHub(logger)
//	hub.SetReadyBuilder(...)  // before Run
//	go hub.Run(ctx)           // returns once ctx is done and clients are closed
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	seq atomic.Int64

	readyBuilder ReadyBuilder
	log          *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		log:        logger.Named("ws"),
	}
}

// SetReadyBuilder must be called before Run.
func (h *Hub) SetReadyBuilder(fn ReadyBuilder) {
	h.readyBuilder = fn
}

// Run serializes register / unregister until ctx is canceled, then closes
// every connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// registerClient returns false once the hub has stopped.
func (h *Hub) registerClient(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) unregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.userID]; !ok {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.log.Debug("client connected",
		zap.String("user_id", client.userID),
		zap.Int("connections", len(h.clients[client.userID])))
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[client.userID]
	if !ok || !clients[client] {
		return
	}
	delete(clients, client)
	close(client.send)

	if len(clients) == 0 {
		delete(h.clients, client.userID)
	}
	h.log.Debug("client disconnected",
		zap.String("user_id", client.userID),
		zap.Int("remaining", len(clients)))
}

func (h *Hub) encode(event Event) ([]byte, bool) {
	event.Seq = h.seq.Add(1)
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("failed to marshal event", zap.String("op", event.Op), zap.Error(err))
		return nil, false
	}
	return data, true
}

// deliver must be called with h.mu held for reading. A client whose buffer
// is full is dropped instead of blocking the broadcaster.
func (h *Hub) deliver(clients map[*Client]bool, data []byte) {
	for client := range clients {
		select {
		case client.send <- data:
		default:
			h.log.Warn("dropping slow client", zap.String("user_id", client.userID))
			go h.unregisterClient(client)
		}
	}
}

func (h *Hub) BroadcastToUser(userID string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	h.deliver(h.clients[userID], data)
}

// BroadcastToUsers sends one event, with one sequence number, to every
// connection of the given users.
func (h *Hub) BroadcastToUsers(userIDs []string, event Event) {
	data, ok := h.encode(event)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, userID := range userIDs {
		h.deliver(h.clients[userID], data)
	}
}

func (h *Hub) IsOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID]) > 0
}

func (h *Hub) GetOnlineUserIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	ids := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		ids = append(ids, userID)
	}
	return ids
}

// shutdown closes every send channel; each WritePump then sends a close
// frame and exits.
func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			close(client.send)
		}
	}
	h.clients = make(map[string]map[*Client]bool)
	h.log.Info("hub shut down, all connections closed")
}
