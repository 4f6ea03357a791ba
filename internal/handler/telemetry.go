package handler

import (
	"encoding/json"
	"html/template"
	"net/http"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

// DashboardHandler renders the live telemetry page.
func DashboardHandler(store *telemetry.Store, tmpl *template.Template, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		render(w, tmpl, "dashboard.html", store.Get(), logger)
	}
}

// ReceiveDataHandler replaces the snapshot with a complete JSON reading.
// Incomplete or malformed readings are rejected and leave the snapshot as is.
func ReceiveDataHandler(store *telemetry.Store, m *metrics.Metrics, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap, err := telemetry.Decode(http.MaxBytesReader(w, r.Body, 1<<20))
		if err != nil {
			m.Ingest("rejected")
			logger.Warning("Rejected telemetry reading: %v", err)
			http.Error(w, "Invalid reading: "+err.Error(), http.StatusBadRequest)
			return
		}

		store.Set(snap)
		m.Ingest("ok")
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Data received"))
	}
}

// SnapshotAPIHandler returns the current snapshot as JSON.
func SnapshotAPIHandler(store *telemetry.Store, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(store.Get()); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// EventsHandler streams snapshots as server-sent events: the current one right
// away, then every frame the hub broadcasts, until the client disconnects.
func EventsHandler(store *telemetry.Store, hub *stream.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
			return
		}

		sub := hub.Subscribe()
		if sub == nil {
			http.Error(w, "Service shutting down", http.StatusServiceUnavailable)
			return
		}
		defer hub.Unsubscribe(sub)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.WriteHeader(http.StatusOK)

		first, err := telemetry.Frame(store.Get())
		if err != nil {
			logger.Error("Error encoding snapshot: %v", err)
			return
		}
		if err := writeEvent(w, first); err != nil {
			return
		}
		flusher.Flush()

		for {
			select {
			case <-r.Context().Done():
				return
			case frame, ok := <-sub.C:
				if !ok {
					return
				}
				if err := writeEvent(w, frame); err != nil {
					return
				}
				flusher.Flush()
			}
		}
	}
}

func writeEvent(w http.ResponseWriter, frame []byte) error {
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(frame); err != nil {
		return err
	}
	_, err := w.Write([]byte("\n\n"))
	return err
}
