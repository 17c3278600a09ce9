package websocket

import (
	"sync"
	"time"

	"undercover-be/internal/service/game"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Client is one connected socket. It is the game.Conn handed to the session
// layer: sends are serialized behind the mutex because gorilla allows only
// one concurrent writer per connection.
type Client struct {
	id   string
	conn *websocket.Conn

	mu sync.Mutex
}

func NewClient(conn *websocket.Conn) *Client {
	return &Client{
		id:   uuid.NewString(),
		conn: conn,
	}
}

func (c *Client) ID() string {
	return c.id
}

func (c *Client) Send(msg game.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(WRITE_TIMEOUT))

	return c.conn.WriteJSON(msg)
}
