package broadcast

import (
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pingPeriod = 50 * time.Second
)

// Conn is the write side of a duplex client channel. *websocket.Conn
// satisfies it.
type Conn interface {
	WriteMessage(messageType int, data []byte) error
	Close() error
}

type deadlineSetter interface {
	SetWriteDeadline(t time.Time) error
}

// Client is a registered connection with its own outbound queue
type Client struct {
	playerID  string
	conn      Conn
	send      chan []byte
	done      chan struct{}
	closeOnce sync.Once
	logger    *slog.Logger
}

func newClient(playerID string, conn Conn, queueSize int, logger *slog.Logger) *Client {
	c := &Client{
		playerID: playerID,
		conn:     conn,
		send:     make(chan []byte, queueSize),
		done:     make(chan struct{}),
		logger:   logger,
	}
	go c.writePump()
	return c
}

// PlayerID returns the identity the client was registered under
func (c *Client) PlayerID() string {
	return c.playerID
}

// enqueue never blocks; a full or closed client drops the message
func (c *Client) enqueue(msg []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.logger.Warn("client queue full, dropping message", "player_id", c.playerID)
		return false
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case msg := <-c.send:
			if err := c.write(websocket.TextMessage, msg); err != nil {
				c.logger.Debug("write failed, closing client", "player_id", c.playerID, "error", err)
				c.Close()
				return
			}
		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *Client) write(messageType int, data []byte) error {
	if d, ok := c.conn.(deadlineSetter); ok {
		d.SetWriteDeadline(time.Now().Add(writeWait))
	}
	return c.conn.WriteMessage(messageType, data)
}

// Close stops the writer and closes the underlying connection
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// Closed reports whether the client has been closed
func (c *Client) Closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}
