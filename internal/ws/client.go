package ws

import (
	"log"
	"sync"
)

// Conn is the subset of *websocket.Conn the hub needs; tests substitute a
// recording implementation.
type Conn interface {
	WriteJSON(v interface{}) error
	Close() error
}

type Client struct {
	UserID string

	hub  *Hub
	conn Conn
	send chan Envelope
	once sync.Once
}

func newClient(h *Hub, userID string, conn Conn) *Client {
	return &Client{
		UserID: userID,
		hub:    h,
		conn:   conn,
		send:   make(chan Envelope, 64),
	}
}

func (c *Client) writeLoop() {
	for env := range c.send {
		if err := c.conn.WriteJSON(env); err != nil {
			log.Printf("Error sending event to user %s: %v", c.UserID, err)
			c.hub.RemoveClient(c)
			return
		}
	}
}

func (c *Client) close() {
	c.once.Do(func() {
		close(c.send)
		c.conn.Close()
	})
}
