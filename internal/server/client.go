package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// wsClient adapts one websocket connection to the session.Conn /
// match.Client interface. Sends are funneled through a buffered channel and a
// single writer goroutine, so match loops never block on a slow client.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func newWSClient(conn *websocket.Conn, buffer int) *wsClient {
	if buffer < 1 {
		buffer = 64
	}
	return &wsClient{
		conn: conn,
		send: make(chan []byte, buffer),
		done: make(chan struct{}),
	}
}

// Send encodes a frame and queues it for the writer. A full buffer drops the
// frame rather than stalling the caller; the next state broadcast supersedes
// it anyway.
func (c *wsClient) Send(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("server: encoding frame: %w", err)
	}

	select {
	case <-c.done:
		return fmt.Errorf("server: connection closed")
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return fmt.Errorf("server: send buffer full, frame dropped")
	}
}

// writePump drains the send queue onto the wire. Runs in its own goroutine
// until the client closes.
func (c *wsClient) writePump() {
	for {
		select {
		case data := <-c.send:
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.Close()
				return
			}
		case <-c.done:
			return
		}
	}
}

// Close shuts the connection down. Safe to call multiple times.
func (c *wsClient) Close() error {
	c.once.Do(func() {
		close(c.done)
	})
	return c.conn.Close()
}
