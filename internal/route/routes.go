package route

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/handler"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

// recoveryLogger sends recovered panics to the error log.
type recoveryLogger struct {
	logger *logger.Logger
}

func (l recoveryLogger) Println(v ...interface{}) {
	l.logger.Error("Recovered from panic: %s", fmt.Sprint(v...))
}

type router struct {
	*mux.Router
	metrics *metrics.Metrics
}

// handle registers h under path, instrumented with the path as route label.
func (r router) handle(path string, h http.Handler, methods ...string) {
	r.Handle(path, r.metrics.WrapHandler(path, h)).Methods(methods...)
}

func newRouter(m *metrics.Metrics, logger *logger.Logger, service string) router {
	r := router{Router: mux.NewRouter(), metrics: m}

	r.handle("/health", handler.HealthHandler(service, time.Now()), http.MethodGet)
	r.Handle("/metrics", m.Handler()).Methods(http.MethodGet)

	// Log endpoints
	r.handle("/logs/{level}", handler.ShowLogsHandler(logger), http.MethodGet)
	r.handle("/logs/{level}/clear", handler.ClearLogsHandler(logger), http.MethodPost)

	return r
}

// wrap applies panic recovery and access logging.
func wrap(r http.Handler, logger *logger.Logger) http.Handler {
	recovered := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{logger}),
		handlers.PrintRecoveryStack(true),
	)(r)
	return handlers.LoggingHandler(logger.AccessWriter(), recovered)
}

// SetupDetectorRoutes registers the image ingestion and gallery endpoints.
func SetupDetectorRoutes(manager *service.Manager, thumbs *storage.ThumbnailService, tmpl *template.Template,
	cfg *config.Config, m *metrics.Metrics, logger *logger.Logger,
	imageRepo repository.ImageRepository, detectionRepo repository.DetectionRepository) http.Handler {
	r := newRouter(m, logger, "detector")
	images := manager.Images()

	r.handle("/", handler.IndexHandler(images, tmpl, cfg, logger), http.MethodGet)
	r.handle("/upload", handler.UploadHandler(manager, cfg, logger), http.MethodPost)
	r.handle("/gallery", handler.GalleryHandler(images, tmpl, logger), http.MethodGet)
	r.handle("/uploads/{filename}", handler.UploadedFileHandler(images, logger), http.MethodGet, http.MethodHead)
	r.handle("/thumbnails/{filename}", handler.ThumbnailHandler(images, thumbs, logger), http.MethodGet)

	// API endpoints
	r.handle("/api/images", handler.ImagesAPIHandler(cfg, logger, imageRepo, detectionRepo), http.MethodGet)
	r.handle("/api/classes", handler.ClassesAPIHandler(cfg, logger, detectionRepo), http.MethodGet)

	return wrap(r, logger)
}

// SetupTelemetryRoutes registers the sensor ingest and live stream endpoints.
func SetupTelemetryRoutes(store *telemetry.Store, hub *stream.Hub, tmpl *template.Template,
	m *metrics.Metrics, logger *logger.Logger) http.Handler {
	r := newRouter(m, logger, "telemetry")

	r.handle("/", handler.DashboardHandler(store, tmpl, logger), http.MethodGet)
	r.handle("/receive_data", handler.ReceiveDataHandler(store, m, logger), http.MethodPost)
	r.handle("/events", handler.EventsHandler(store, hub, logger), http.MethodGet)
	r.handle("/ws", handler.TelemetryWebsocketHandler(store, hub, logger), http.MethodGet)

	// API endpoints
	r.handle("/api/snapshot", handler.SnapshotAPIHandler(store, logger), http.MethodGet)

	return wrap(r, logger)
}
