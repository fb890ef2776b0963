// internal/websocket/client.go
package websocket

import (
	"encoding/json"
	"time"

	"timesoffice-service/internal/domain/event"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4 * 1024
)

// Client is one connected presentation window. The UI only consumes
// events; inbound frames are read solely to service pings and detect
// close.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	operator string
	logger   *zap.Logger
}

func NewClient(hub *Hub, conn *websocket.Conn, operator string, logger *zap.Logger) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, 256),
		operator: operator,
		logger:   logger,
	}
}

// Send queues a serialized event for delivery; drops when the client's
// buffer is full.
func (c *Client) Send(e *event.Event) {
	payload, err := json.Marshal(e)
	if err != nil {
		c.logger.Error("failed to marshal event", zap.Error(err))
		return
	}

	select {
	case c.send <- payload:
	default:
		c.logger.Warn("client send buffer full, dropping event",
			zap.String("operator", c.operator),
			zap.String("type", string(e.Type)),
		)
	}
}

func (c *Client) Close() {
	close(c.send)
}

// WritePump pushes queued events and keeps the connection alive with
// pings. Runs in its own goroutine per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump drains inbound frames until the peer goes away, then
// unregisters the client.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error",
					zap.String("operator", c.operator),
					zap.Error(err),
				)
			}
			return
		}
	}
}
