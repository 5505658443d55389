package gateway

import (
	"encoding/json"
	"net/http"
	"time"
)

// StatusResponse is the JSON response for GET /status.
type StatusResponse struct {
	UptimeSeconds    float64  `json:"uptime_seconds"`
	ActiveDeliveries int      `json:"active_deliveries"`
	TrackedChannels  int      `json:"tracked_channels"`
	MessagesLastHour int      `json:"messages_last_hour"`
	Channels         []string `json:"channels,omitempty"`
}

// handleStatus returns an http.HandlerFunc for GET /status.
func (g *Gateway) handleStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := StatusResponse{
			UptimeSeconds: time.Since(g.startedAt).Truncate(time.Second).Seconds(),
		}
		if g.status != nil {
			resp.ActiveDeliveries = g.status.ActiveChannels()
			resp.TrackedChannels = g.status.TrackedChannels()
		}
		if g.store != nil {
			if n, err := g.store.CountSince(r.Context(), time.Now().Add(-time.Hour)); err == nil {
				resp.MessagesLastHour = n
			} else {
				g.logger.Warn("status: traffic count failed", "error", err)
			}
		}
		if g.channels != nil {
			resp.Channels = g.channels()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
