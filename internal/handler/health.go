package handler

import (
	"encoding/json"
	"net/http"
	"time"
)

// HealthHandler reports liveness with the service name and uptime.
func HealthHandler(service string, started time.Time) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{
			"status":  "ok",
			"service": service,
			"uptime":  time.Since(started).Round(time.Second).String(),
		})
	}
}
