package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/coder/websocket"
)

// wsConn adapts a websocket connection to the Conn interface, one JSON
// message per frame.
type wsConn struct {
	c *websocket.Conn
}

// NewWebsocketConn wraps an already-accepted or dialed websocket.
func NewWebsocketConn(c *websocket.Conn) Conn {
	return &wsConn{c: c}
}

// DialPeer opens a direct channel to the peer's rendezvous URL.
func DialPeer(ctx context.Context, url string) (Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial peer: %w", err)
	}
	return &wsConn{c: c}, nil
}

func (w *wsConn) Send(ctx context.Context, m Message) error {
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return w.c.Write(ctx, websocket.MessageText, payload)
}

func (w *wsConn) Recv(ctx context.Context) (Message, error) {
	_, data, err := w.c.Read(ctx)
	if err != nil {
		return Message{}, err
	}
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, fmt.Errorf("bad peer message: %w", err)
	}
	return m, nil
}

func (w *wsConn) Close() error {
	return w.c.Close(websocket.StatusNormalClosure, "bye")
}
