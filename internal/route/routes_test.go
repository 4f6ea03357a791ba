package route

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/handler"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository/sqlite"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/ai"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

func setupDetectorRouter(t *testing.T) http.Handler {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		UploadDirectory: filepath.Join(dir, "uploads"),
		DetectedDir:     filepath.Join(dir, "detected"),
		MaxUploadBytes:  1 << 20,
		DetectTimeout:   time.Second,
		Workers:         1,
		ThumbnailSize:   64,
	}
	log := logger.NewLogger(filepath.Join(dir, "logs"), "detector")
	m := metrics.New()

	store, err := storage.NewImageStore(cfg.UploadDirectory, cfg.DetectedDir)
	if err != nil {
		t.Fatal(err)
	}
	db, err := sqlite.New(filepath.Join(dir, "images.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	imageRepo := sqlite.NewImageRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)

	noop := ai.DetectorFunc(func(ctx context.Context, req ai.Request) (*ai.Result, error) {
		return &ai.Result{}, nil
	})
	manager := service.NewManager(store, noop, storage.NewIndexer(imageRepo, detectionRepo, log), cfg, m, log)
	thumbs := storage.NewThumbnailService(store, cfg.ThumbnailSize, m)
	t.Cleanup(thumbs.Close)

	tmpl, err := handler.LoadTemplates("")
	if err != nil {
		t.Fatal(err)
	}

	return SetupDetectorRoutes(manager, thumbs, tmpl, cfg, m, log, imageRepo, detectionRepo)
}

func TestDetectorRoutes(t *testing.T) {
	router := setupDetectorRouter(t)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"landing page", http.MethodGet, "/", "", http.StatusOK},
		{"gallery", http.MethodGet, "/gallery", "", http.StatusOK},
		{"upload", http.MethodPost, "/upload", "jpeg", http.StatusOK},
		{"upload wrong method", http.MethodGet, "/upload", "", http.StatusMethodNotAllowed},
		{"missing file", http.MethodGet, "/uploads/nope.jpg", "", http.StatusNotFound},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"metrics", http.MethodGet, "/metrics", "", http.StatusOK},
		{"images api", http.MethodGet, "/api/images", "", http.StatusOK},
		{"classes api", http.MethodGet, "/api/classes", "", http.StatusOK},
		{"info log", http.MethodGet, "/logs/info", "", http.StatusOK},
		{"unknown log", http.MethodGet, "/logs/debug", "", http.StatusNotFound},
		{"clear log", http.MethodPost, "/logs/warning/clear", "", http.StatusNoContent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("%s %s: expected %d, got %d", tt.method, tt.path, tt.status, rec.Code)
			}
		})
	}
}

func TestDetectorRoutes_MetricsCountRequests(t *testing.T) {
	router := setupDetectorRouter(t)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/gallery", nil))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), `http_requests_total{route="/gallery",status="200"} 1`) {
		t.Errorf("Expected gallery request in metrics output")
	}
}

func TestTelemetryRoutes(t *testing.T) {
	log := logger.NewNop()
	m := metrics.New()
	store := telemetry.NewStore()
	hub := stream.NewHub(m, log)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	tmpl, err := handler.LoadTemplates("")
	if err != nil {
		t.Fatal(err)
	}
	router := SetupTelemetryRoutes(store, hub, tmpl, m, log)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "EventSource") {
		t.Errorf("Expected dashboard page, got %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	body := `{"dhtTemp":1,"dhtHumidity":2,"dsTemp":3,"weight":4,"sound":5,"ir1":"A","ir2":"B"}`
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/receive_data", strings.NewReader(body)))
	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200 from /receive_data, got %d", rec.Code)
	}
	if store.Get().Weight != 4 {
		t.Errorf("Snapshot not updated: %+v", store.Get())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/receive_data", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}
