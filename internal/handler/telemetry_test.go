package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

const completeReading = `{"dhtTemp":35.1,"dhtHumidity":58,"dsTemp":34.2,"weight":18.4,"sound":41,"ir1":"DETECTED","ir2":"CLEAR"}`

func startTestHub(t *testing.T) *stream.Hub {
	t.Helper()
	hub := stream.NewHub(metrics.New(), logger.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)
	return hub
}

// readEvent reads one "data: ...\n\n" frame.
func readEvent(t *testing.T, reader *bufio.Reader) telemetry.Snapshot {
	t.Helper()

	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("Failed to read event: %v", err)
	}
	if !strings.HasPrefix(line, "data: ") {
		t.Fatalf("Expected data line, got %q", line)
	}
	if blank, err := reader.ReadString('\n'); err != nil || blank != "\n" {
		t.Fatalf("Expected blank line after event, got %q (err %v)", blank, err)
	}

	var snap telemetry.Snapshot
	if err := json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSuffix(line, "\n"), "data: ")), &snap); err != nil {
		t.Fatalf("Event is not JSON: %v", err)
	}
	return snap
}

func TestReceiveDataHandler(t *testing.T) {
	store := telemetry.NewStore()
	h := ReceiveDataHandler(store, metrics.New(), logger.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/receive_data", strings.NewReader(completeReading)))

	if rec.Code != http.StatusOK || rec.Body.String() != "Data received" {
		t.Fatalf("Expected 200 'Data received', got %d %q", rec.Code, rec.Body.String())
	}

	want := telemetry.Snapshot{DHTTemp: 35.1, DHTHumidity: 58, DSTemp: 34.2, Weight: 18.4, Sound: 41, IR1: "DETECTED", IR2: "CLEAR"}
	if got := store.Get(); got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
}

func TestReceiveDataHandler_RejectsIncomplete(t *testing.T) {
	store := telemetry.NewStore()
	store.Set(telemetry.Snapshot{Weight: 5, IR1: "A", IR2: "B"})
	h := ReceiveDataHandler(store, metrics.New(), logger.NewNop())

	for _, body := range []string{
		`{"dhtTemp": 40}`,
		`not json`,
		`{"dhtTemp":"NaN","dhtHumidity":58,"dsTemp":34.2,"weight":"Inf","sound":41,"ir1":"DETECTED","ir2":"CLEAR"}`,
		completeReading + ` trailing`,
	} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/receive_data", strings.NewReader(body)))

		if rec.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %q, got %d", body, rec.Code)
		}
	}

	if got := store.Get(); got.Weight != 5 || got.DHTTemp != 0 || got.IR1 != "A" {
		t.Errorf("Snapshot must be untouched, got %+v", got)
	}
	if _, err := telemetry.Frame(store.Get()); err != nil {
		t.Errorf("Stored snapshot must stay streamable: %v", err)
	}
}

func TestEventsHandler_StreamsSnapshots(t *testing.T) {
	store := telemetry.NewStore()
	hub := startTestHub(t)

	server := httptest.NewServer(EventsHandler(store, hub, logger.NewNop()))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Expected text/event-stream, got %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	first := readEvent(t, reader)
	if first != telemetry.Initial() {
		t.Errorf("Expected initial snapshot first, got %+v", first)
	}

	updated := telemetry.Snapshot{DHTTemp: 36, DHTHumidity: 60, DSTemp: 35, Weight: 20, Sound: 50, IR1: "X", IR2: "Y"}
	store.Set(updated)
	frame, _ := telemetry.Frame(store.Get())
	hub.Broadcast(frame)

	if got := readEvent(t, reader); got != updated {
		t.Errorf("Expected %+v, got %+v", updated, got)
	}

	cancel()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Count() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if hub.Count() != 0 {
		t.Errorf("Expected subscriber to be removed after disconnect, %d left", hub.Count())
	}
}

func TestTelemetryWebsocketHandler(t *testing.T) {
	store := telemetry.NewStore()
	hub := startTestHub(t)

	server := httptest.NewServer(TelemetryWebsocketHandler(store, hub, logger.NewNop()))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap telemetry.Snapshot
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("Failed to read first frame: %v", err)
	}
	if snap.IR1 != telemetry.IRNone {
		t.Errorf("Expected initial snapshot, got %+v", snap)
	}

	hub.Broadcast([]byte(`{"dhtTemp":1,"dhtHumidity":2,"dsTemp":3,"weight":4,"sound":5,"ir1":"A","ir2":"B"}`))
	if err := conn.ReadJSON(&snap); err != nil {
		t.Fatalf("Failed to read broadcast frame: %v", err)
	}
	if snap.Weight != 4 || snap.IR2 != "B" {
		t.Errorf("Unexpected frame: %+v", snap)
	}
}

func TestSnapshotAPIHandler(t *testing.T) {
	store := telemetry.NewStore()
	rec := httptest.NewRecorder()
	SnapshotAPIHandler(store, logger.NewNop()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/snapshot", nil))

	var snap map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &snap); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	for _, key := range []string{"dhtTemp", "dhtHumidity", "dsTemp", "weight", "sound", "ir1", "ir2"} {
		if _, ok := snap[key]; !ok {
			t.Errorf("Missing key %s", key)
		}
	}
}
