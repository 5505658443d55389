package gateway

import (
	"encoding/json"
	"net/http"
)

// HealthResponse is the JSON response for GET /health.
type HealthResponse struct {
	Status           string `json:"status"`
	ActiveDeliveries int    `json:"active_deliveries"`
}

// handleHealth returns an http.HandlerFunc for GET /health. The probe
// is always 200 while the process serves; delivery backpressure shows
// up in /status and /metrics, not here.
func (g *Gateway) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		resp := HealthResponse{Status: "ok"}
		if g.status != nil {
			resp.ActiveDeliveries = g.status.ActiveChannels()
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}
}
