package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 10 * time.Second

// envelope is the wire frame for pushed events.
type envelope struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data,omitempty"`
}

// Client wraps a websocket connection with a write mutex. conn.WriteJSON is
// not safe for concurrent use, so every write goes through the lock.
type Client struct {
	email string
	conn  *websocket.Conn
	mu    sync.Mutex
}

func NewClient(email string, conn *websocket.Conn) *Client {
	return &Client{email: email, conn: conn}
}

// Email is the case-folded identity email this connection belongs to.
func (c *Client) Email() string {
	return c.email
}

// WriteEvent delivers one event frame under the write lock.
func (c *Client) WriteEvent(event string, payload interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteJSON(envelope{Event: event, Data: payload})
}

func (c *Client) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.PingMessage, nil)
}

func (c *Client) Close() error {
	return c.conn.Close()
}
