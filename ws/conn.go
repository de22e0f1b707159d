package ws

import (
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Conn is a WebSocket surface. Writes come from both the hub and the
// connection's own read loop, so they are serialised here.
type Conn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func NewConn(c *websocket.Conn) *Conn {
	return &Conn{c: c}
}

func (c *Conn) Send(msg Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.c.WriteJSON(msg)
}

// HandleConnection serves one surface until it disconnects. initial is
// sent first; every message read after that is dispatched in order, each
// finished before the next is read.
func (b *Bridge) HandleConnection(c *websocket.Conn, initial ...Message) {
	conn := NewConn(c)
	b.hub.Register(conn)
	defer b.hub.Unregister(conn)

	for _, msg := range initial {
		if err := conn.Send(msg); err != nil {
			return
		}
	}

	for {
		_, raw, err := c.ReadMessage()
		if err != nil {
			b.log.Debug().Err(err).Msg("surface disconnected")
			return
		}
		if err := b.Dispatch(conn, raw); err != nil {
			b.log.Warn().Err(err).Msg("failed to answer surface")
			return
		}
	}
}
