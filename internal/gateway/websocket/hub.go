// Package websocket carries the terminal protocol between browsers and the session registry.
package websocket

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/common/metrics"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal"
)

// Broker is the part of *terminal.Registry the gateway drives.
type Broker interface {
	HandleFrame(ctx context.Context, t terminal.Transport, raw []byte)
	Reconnect(t terminal.Transport) []terminal.ReconnectInfo
	KillSessionsForTransport(t terminal.Transport)
}

// Hub manages all WebSocket client connections
type Hub struct {
	// All registered clients
	clients map[*Client]bool

	// Channels for client management
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	broker  Broker
	metrics *metrics.Metrics

	mu     sync.RWMutex
	logger *logger.Logger
}

// NewHub creates a new WebSocket hub. m may be nil.
func NewHub(broker Broker, m *metrics.Metrics, log *logger.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		broker:     broker,
		metrics:    m,
		logger:     log.WithFields(zap.String("component", "ws_hub")),
	}
}

// Run starts the hub's main processing loop
func (h *Hub) Run(ctx context.Context) {
	h.logger.Info("WebSocket hub started")
	defer h.logger.Info("WebSocket hub stopped")
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.closeAllClients()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			if h.metrics != nil {
				h.metrics.WSConnections.Inc()
			}
			h.logger.Debug("Client registered", zap.String("client_id", client.ID()))

		case client := <-h.unregister:
			h.removeClient(client)
		}
	}
}

// closeAllClients closes all client connections
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		client.close()
		delete(h.clients, client)
	}
	if h.metrics != nil {
		h.metrics.WSConnections.Set(0)
	}
}

// removeClient closes the client and detaches its sessions. Running
// sessions stay registered for a later reconnect.
func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client]
	if ok {
		delete(h.clients, client)
		client.close()
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.metrics != nil {
		h.metrics.WSConnections.Dec()
	}
	h.broker.KillSessionsForTransport(client)
	h.logger.Debug("Client unregistered", zap.String("client_id", client.ID()))
}

// Register adds a client to the hub. It returns false once the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Attach hands every live session to client and replays its scrollback.
func (h *Hub) Attach(client *Client) int {
	return len(h.broker.Reconnect(client))
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) countFrame(direction, frameType string) {
	if h.metrics != nil {
		h.metrics.WSFrames.WithLabelValues(direction, frameType).Inc()
	}
}

func (h *Hub) countDropped() {
	if h.metrics != nil {
		h.metrics.WSDropped.Inc()
	}
}
