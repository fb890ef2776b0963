// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"timesoffice-service/internal/domain/event"

	"go.uber.org/zap"
)

// Hub fans one-way events out to every connected presentation client.
// It is the Notifier of the performance pipeline: publishing never
// blocks the caller, and a slow or absent UI only costs dropped
// messages.
type Hub struct {
	clients map[*Client]bool
	mu      sync.RWMutex

	Register   chan *Client
	unregister chan *Client
	broadcast  chan *event.Event

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *event.Event, 256),
		logger:     logger,
	}
}

// Publish implements event.Notifier. Fire-and-forget: when the
// broadcast buffer is full the event is dropped and logged.
func (h *Hub) Publish(e *event.Event) {
	select {
	case h.broadcast <- e:
	default:
		h.logger.Warn("notifier buffer full, dropping event",
			zap.String("type", string(e.Type)),
			zap.String("id", e.ID),
		)
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case e := <-h.broadcast:
			h.broadcastEvent(e)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true
	h.logger.Info("notifier client connected",
		zap.String("operator", client.operator),
		zap.Int("total", len(h.clients)),
	)

	client.Send(event.New(event.TypeConnected, map[string]interface{}{
		"operator": client.operator,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.Close()
		h.logger.Info("notifier client disconnected",
			zap.String("operator", client.operator),
			zap.Int("total", len(h.clients)),
		)
	}
}

func (h *Hub) broadcastEvent(e *event.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		client.Send(e)
	}
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.Close()
	}
	h.clients = make(map[*Client]bool)
}
