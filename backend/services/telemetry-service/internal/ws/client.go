package ws

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetconsole/backend/libs/identity"
)

const (
	pongWait     = 60 * time.Second
	pingInterval = 30 * time.Second
	readLimit    = 4096
)

// Client is one console connection following live alerts.
type Client struct {
	id           string
	viewer       identity.Identity
	ws           *websocket.Conn
	send         chan []byte
	logger       *zap.Logger
	writeTimeout time.Duration
	onClose      func(id string)

	mu       sync.Mutex
	vehicles map[string]bool
	closed   bool
}

// NewClient wraps an upgraded connection.
func NewClient(id string, viewer identity.Identity, vehicles map[string]bool, conn *websocket.Conn, writeTimeout time.Duration, logger *zap.Logger, onClose func(string)) *Client {
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}
	return &Client{
		id:           id,
		viewer:       viewer,
		ws:           conn,
		send:         make(chan []byte, 32),
		logger:       logger,
		writeTimeout: writeTimeout,
		onClose:      onClose,
		vehicles:     vehicles,
	}
}

// ID returns identifier.
func (c *Client) ID() string {
	return c.id
}

// Viewer returns the authenticated identity.
func (c *Client) Viewer() identity.Identity {
	return c.viewer
}

// Follows reports whether the client may see the vehicle.
func (c *Client) Follows(vehicleID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.vehicles[vehicleID]
}

// SetVehicles replaces the visible vehicle set.
func (c *Client) SetVehicles(vehicles map[string]bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vehicles = vehicles
}

// Start launches the write pump and blocks in the read pump.
func (c *Client) Start() {
	go c.writePump()
	c.readPump()
}

// readPump only watches for the peer going away; clients do not send commands.
func (c *Client) readPump() {
	defer c.Close()
	c.ws.SetReadLimit(readLimit)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.ws.ReadMessage(); err != nil {
			c.logger.Debug("live client read closed", zap.String("client_id", c.id), zap.Error(err))
			return
		}
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	defer c.ws.Close()

	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				_ = c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.write(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Send enqueues a message; it reports false when the client is gone or lagging.
func (c *Client) Send(msg []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("dropping live alert, buffer full", zap.String("client_id", c.id))
		return false
	}
}

// Close stops the pumps once. The write pump closes the socket after flushing.
func (c *Client) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	c.mu.Unlock()

	if c.onClose != nil {
		c.onClose(c.id)
	}
}

func (c *Client) write(messageType int, data []byte) error {
	_ = c.ws.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	return c.ws.WriteMessage(messageType, data)
}
