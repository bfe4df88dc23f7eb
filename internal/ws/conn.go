package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"nhooyr.io/websocket"
)

// Conn wraps one websocket connection with a buffered outbound queue.
// It implements collab.Sender: Send never blocks, frames are dropped when
// the peer cannot keep up.
type Conn struct {
	id  string
	ws  *websocket.Conn
	out chan []byte
}

// Accept upgrades HTTP to websocket (allow all origins)
func Accept(w http.ResponseWriter, r *http.Request) (*websocket.Conn, error) {
	return websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  []string{"*"},
		CompressionMode: websocket.CompressionDisabled,
	})
}

// NewConn wraps an accepted websocket with a fresh connection id.
func NewConn(ws *websocket.Conn) *Conn {
	return &Conn{
		id:  uuid.NewString(),
		ws:  ws,
		out: make(chan []byte, 256),
	}
}

// ID is the ephemeral connection id, unique per accept.
func (c *Conn) ID() string { return c.id }

// Send enqueues an outbound frame without blocking. A slow or gone peer
// loses the frame; there is no delivery guarantee mid-fanout.
func (c *Conn) Send(frame []byte) {
	select {
	case c.out <- frame:
	default:
	}
}

// Read blocks until it receives a text/binary message.
// Returns false if the connection is closed.
func (c *Conn) Read(ctx context.Context) ([]byte, bool) {
	for {
		typ, data, err := c.ws.Read(ctx)
		if err != nil {
			return nil, false
		}
		if typ == websocket.MessageText || typ == websocket.MessageBinary {
			return data, true
		}
	}
}

// WriteLoop sends outbound frames + periodic pings.
// Exits when ctx is cancelled.
func (c *Conn) WriteLoop(ctx context.Context) {
	t := time.NewTicker(20 * time.Second)
	defer t.Stop()

	for {
		select {
		case b := <-c.out:
			_ = c.ws.Write(ctx, websocket.MessageText, b)
		case <-t.C:
			_ = c.ws.Ping(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// Close closes the WS connection normally
func (c *Conn) Close() error { return c.ws.Close(websocket.StatusNormalClosure, "bye") }
