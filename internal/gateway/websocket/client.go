package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/TechnicallyShaun/camelot-sub000/internal/common/logger"
	"github.com/TechnicallyShaun/camelot-sub000/internal/terminal"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 512 * 1024 // 512KB

	defaultSendBuffer = 256
)

// Client is one browser connection. It is the terminal.Transport that
// sessions are bound to.
type Client struct {
	id     string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte
	logger *logger.Logger

	mu     sync.RWMutex
	closed bool
}

var _ terminal.Transport = (*Client)(nil)

// NewClient creates a new WebSocket client
func NewClient(id string, conn *websocket.Conn, hub *Hub, sendBuffer int, log *logger.Logger) *Client {
	if sendBuffer <= 0 {
		sendBuffer = defaultSendBuffer
	}
	return &Client{
		id:     id,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, sendBuffer),
		logger: log.WithFields(zap.String("client_id", id)),
	}
}

func (c *Client) ID() string {
	return c.id
}

// IsOpen reports whether the hub still holds this client.
func (c *Client) IsOpen() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return !c.closed
}

// Send queues msg for the write pump. It never blocks: when the buffer is
// full the frame is dropped.
func (c *Client) Send(msg terminal.OutboundMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.logger.Error("Failed to marshal message", zap.String("type", msg.Type), zap.Error(err))
		return
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
		c.hub.countFrame("out", msg.Type)
	default:
		c.hub.countDropped()
		c.logger.Warn("Client send buffer full, dropping frame",
			zap.String("type", msg.Type),
			zap.String("session_id", msg.SessionID))
	}
}

// close stops delivery and ends the write pump. Safe to call more than once.
func (c *Client) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}

// ReadPump pumps frames from the WebSocket connection to the broker
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Error("WebSocket read error", zap.Error(err))
			}
			return
		}
		c.hub.countFrame("in", "frame")
		c.handleFrame(ctx, message)
	}
}

// handleFrame passes one frame to the broker. A panic is contained to the frame.
func (c *Client) handleFrame(ctx context.Context, message []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("Panic while handling frame", zap.String("panic", fmt.Sprint(r)))
			c.Send(terminal.ErrorMessage("internal error"))
		}
	}()
	c.hub.broker.HandleFrame(ctx, c, message)
}

// WritePump pumps frames from the send queue to the WebSocket connection.
// Each frame is its own text message.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.logger.Debug("WebSocket write failed", zap.Error(err))
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
