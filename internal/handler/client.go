package handler

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

const writeWait = 10 * time.Second

// Upgrader upgrades HTTP connections to WebSocket; CheckOrigin allows all origins.
var Upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// TelemetryWebsocketHandler pushes the same frames as EventsHandler over a
// WebSocket. Messages sent by the viewer are read and discarded.
func TelemetryWebsocketHandler(store *telemetry.Store, hub *stream.Hub, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		connection, err := Upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("WebSocket upgrade error: %v", err)
			return
		}
		defer connection.Close()

		sub := hub.Subscribe()
		if sub == nil {
			return
		}
		defer hub.Unsubscribe(sub)

		logger.Info("Viewer connected")

		closed := make(chan struct{})
		go func() {
			defer close(closed)
			for {
				_, _, err := connection.ReadMessage()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
						logger.Info("Viewer disconnected normally")
					} else {
						logger.Error("Viewer disconnected with error: %v", err)
					}
					return
				}
			}
		}()

		if first, err := telemetry.Frame(store.Get()); err == nil {
			if !send(connection, first, logger) {
				return
			}
		}

		for {
			select {
			case <-closed:
				return
			case frame, ok := <-sub.C:
				if !ok {
					connection.WriteControl(websocket.CloseMessage,
						websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
						time.Now().Add(writeWait))
					return
				}
				if !send(connection, frame, logger) {
					return
				}
			}
		}
	}
}

func send(connection *websocket.Conn, frame []byte, logger *logger.Logger) bool {
	connection.SetWriteDeadline(time.Now().Add(writeWait))
	if err := connection.WriteMessage(websocket.TextMessage, frame); err != nil {
		logger.Error("Error sending message: %v", err)
		return false
	}
	return true
}
