package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/raviakbar97/eluno/internal/broker"
)

// queryTimeout bounds how long the health probe may wait on the broker.
// It stays under the broker's sweep interval so the probe answers even
// while a sweep is running.
const queryTimeout = time.Second

type healthResponse struct {
	QueueDepth int       `json:"queue_depth"`
	UpSince    time.Time `json:"up_since"`
}

// Healthz answers the liveness probe. It degrades to 503 instead of
// blocking when the broker cannot answer in time.
func Healthz(b *broker.Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply := make(chan broker.HealthView, 1)

		select {
		case b.Inbox() <- broker.Health{Reply: reply}:
		case <-time.After(queryTimeout):
			http.Error(w, "broker unavailable", http.StatusServiceUnavailable)
			return
		}

		select {
		case h := <-reply:
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(healthResponse{
				QueueDepth: h.QueueDepth,
				UpSince:    h.UpSince,
			})
		case <-time.After(queryTimeout):
			http.Error(w, "broker unavailable", http.StatusServiceUnavailable)
		}
	}
}
