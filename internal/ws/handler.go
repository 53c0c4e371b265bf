package ws

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"

	"github.com/raviakbar97/eluno/internal/broker"
	"github.com/raviakbar97/eluno/internal/types"
)

// Handler bridges one signaling websocket to the broker: connecting joins
// the queue, the connection's lifetime is the subscription, and closing
// it (or an explicit Leave message) removes the participant.
func Handler(b *broker.Broker, log *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := r.URL.Query().Get("id")
		if identity == "" {
			identity = randID(8)
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		out := make(chan broker.Event, 8)
		b.Inbox() <- broker.Join{Identity: identity, Outbox: out}
		// idempotent: harmless when the broker already retired the identity
		defer func() { b.Inbox() <- broker.Leave{Identity: identity} }()

		log.Debug("signaling connected", zap.String("identity", identity))

		// Writer goroutine: drains the broker outbox until the broker
		// closes it (matched, timed out, dropped, or shutdown).
		writeCtx, writeCancel := context.WithCancel(r.Context())
		defer writeCancel()
		go func() {
			for ev := range out {
				payload, _ := json.Marshal(toServerMessage(ev))
				ctx, cancel := context.WithTimeout(writeCtx, 3*time.Second)
				_ = conn.Write(ctx, websocket.MessageText, payload)
				cancel()
			}
		}()

		// Reader loop
		for {
			ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
			_, data, err := conn.Read(ctx)
			cancel()
			if err != nil {
				switch websocket.CloseStatus(err) {
				case websocket.StatusNormalClosure, websocket.StatusGoingAway:
					return
				}
				// Otherwise, just exit (broker.Leave in defer):
				return
			}

			var cm types.ClientMessage
			if err := json.Unmarshal(data, &cm); err != nil {
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"bad json"}`))
				continue
			}

			switch cm.Type {
			case "Leave":
				b.Inbox() <- broker.Leave{Identity: identity}
				return
			case "Heartbeat":
				b.Inbox() <- broker.Heartbeat{Identity: identity}
			default:
				_ = conn.Write(r.Context(), websocket.MessageText,
					[]byte(`{"type":"Error","error":"unknown type"}`))
			}
		}
	}
}

func toServerMessage(ev broker.Event) types.ServerMessage {
	switch ev.Kind {
	case broker.EventPositionUpdate:
		return types.ServerMessage{Type: "PositionUpdate", Position: ev.Position}
	case broker.EventMatched:
		return types.ServerMessage{
			Type:        "Matched",
			SessionID:   ev.Match.SessionID,
			Role:        string(ev.Match.Role),
			PeerAddress: ev.Match.PeerAddress,
		}
	case broker.EventTimedOut:
		return types.ServerMessage{Type: "TimedOut"}
	default:
		return types.ServerMessage{Type: "Error", Error: "unknown event"}
	}
}

func randID(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}
