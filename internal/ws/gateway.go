package ws

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/tanmaysrivastava45/Code-Sense/internal/collab"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/auth"
	"github.com/tanmaysrivastava45/Code-Sense/pkg/metrics"
)

// Gateway accepts websocket connections and feeds their events into the
// broker. It owns nothing but transport plumbing; all room logic lives in
// the broker.
type Gateway struct {
	log    *slog.Logger
	broker *collab.Broker
	jwt    *auth.JWT
}

func NewGateway(log *slog.Logger, broker *collab.Broker, jwt *auth.JWT) *Gateway {
	return &Gateway{log: log, broker: broker, jwt: jwt}
}

// ServeWS handles a new /ws connection. Identity arrives resolved: the
// token query parameter is verified here and the resulting userId rides
// along with every join the client sends.
func (g *Gateway) ServeWS(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if _, _, err := g.jwt.Verify(r.URL.Query().Get("token")); err != nil {
		http.Error(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := Accept(w, r)
	if err != nil {
		g.log.Error("ws.accept", "err", err)
		return
	}

	c := NewConn(conn)
	sess := g.broker.Connect(c)
	metrics.ConnectedClients.Inc()
	g.log.Debug("ws.connected", "conn", c.ID())

	// Outbound writer
	go c.WriteLoop(ctx)

	// Inbound reader: every frame is an event envelope for the broker.
	for {
		frame, ok := c.Read(ctx)
		if !ok {
			break
		}
		var env collab.Envelope
		if err := json.Unmarshal(frame, &env); err != nil || env.Type == "" {
			g.log.Debug("ws.frame.invalid", "conn", c.ID())
			continue
		}
		g.broker.Dispatch(sess, env)
	}

	g.broker.Disconnect(sess)
	metrics.ConnectedClients.Dec()
	g.log.Debug("ws.disconnected", "conn", c.ID())
	_ = c.Close()
}
