package server

import (
	"encoding/json"
	"fmt"
	"sync"

	"golang.org/x/net/websocket"

	"github.com/akashicode/pdfworker/internal/rpc"
)

// wsConn is an rpc.Conn carrying one JSON message per websocket frame.
type wsConn struct {
	ws *websocket.Conn

	mu        sync.Mutex
	closeOnce sync.Once
}

func newWSConn(ws *websocket.Conn) *wsConn {
	ws.MaxPayloadBytes = 512 << 20
	return &wsConn{ws: ws}
}

// ReadMessage reads the next frame. A frame that is not a message yields
// rpc.ErrMalformedMessage and leaves the connection usable.
func (c *wsConn) ReadMessage() (rpc.Message, error) {
	var frame []byte
	if err := websocket.Message.Receive(c.ws, &frame); err != nil {
		return rpc.Message{}, err
	}
	var msg rpc.Message
	if err := json.Unmarshal(frame, &msg); err != nil {
		return rpc.Message{}, fmt.Errorf("%w: %w", rpc.ErrMalformedMessage, err)
	}
	return msg, nil
}

// WriteMessage sends msg as one text frame. Safe for concurrent use.
func (c *wsConn) WriteMessage(msg rpc.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return websocket.Message.Send(c.ws, string(data))
}

// Close closes the underlying connection once.
func (c *wsConn) Close() error {
	var err error
	c.closeOnce.Do(func() { err = c.ws.Close() })
	return err
}
