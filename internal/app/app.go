package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/handler"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository/sqlite"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/route"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/ai"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/ai/dnn"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/stream"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/telemetry"
)

const shutdownTimeout = 10 * time.Second

// App is one runnable service: an HTTP server plus its background workers.
type App struct {
	name    string
	server  *http.Server
	workers []func(ctx context.Context)
	closers []func() error
	logger  *logger.Logger
}

// NewDetectorApp wires the image ingestion and detection service.
func NewDetectorApp(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg.LogDirectory, "detector")
	m := metrics.New()
	a := &App{name: "detector", logger: log}

	images, err := storage.NewImageStore(cfg.UploadDirectory, cfg.DetectedDir)
	if err != nil {
		return nil, err
	}

	db, err := sqlite.New(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open image index: %w", err)
	}
	a.closers = append(a.closers, db.Close)
	imageRepo := sqlite.NewImageRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)
	indexer := storage.NewIndexer(imageRepo, detectionRepo, log)

	detector, err := newDetector(cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	if c, ok := detector.(interface{ Close() error }); ok {
		a.closers = append(a.closers, c.Close)
	}

	thumbs := storage.NewThumbnailService(images, cfg.ThumbnailSize, m)
	a.closers = append(a.closers, func() error { thumbs.Close(); return nil })

	tmpl, err := handler.LoadTemplates(cfg.TemplateDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	manager := service.NewManager(images, detector, indexer, cfg, m, log)
	router := route.SetupDetectorRoutes(manager, thumbs, tmpl, cfg, m, log, imageRepo, detectionRepo)
	a.server = newServer(cfg.DetectorPort, router)

	log.Info("Detector service: backend=%s uploads=%s detected=%s", cfg.DetectorBackend, cfg.UploadDirectory, cfg.DetectedDir)
	return a, nil
}

func newDetector(cfg *config.Config, log *logger.Logger) (ai.Detector, error) {
	params := ai.DefaultParams()
	params.ImageSize = cfg.ImageSize
	params.Confidence = cfg.Confidence

	switch cfg.DetectorBackend {
	case "command":
		return ai.NewCommandDetector(cfg.DetectorCommand, cfg.DetectorScript, cfg.ModelWeights, params, log), nil
	case "dnn":
		return dnn.NewDetector(cfg.ModelONNX, params, cfg.ClassNames, log)
	default:
		return nil, fmt.Errorf("unknown detector backend %q", cfg.DetectorBackend)
	}
}

// NewTelemetryApp wires the sensor relay service.
func NewTelemetryApp(cfg *config.Config) (*App, error) {
	log := logger.NewLogger(cfg.LogDirectory, "telemetry")
	m := metrics.New()

	tmpl, err := handler.LoadTemplates(cfg.TemplateDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	store := telemetry.NewStore()
	hub := stream.NewHub(m, log)
	publisher := telemetry.NewPublisher(store, hub, cfg.StreamInterval, log)

	router := route.SetupTelemetryRoutes(store, hub, tmpl, m, log)

	log.Info("Telemetry service: streaming every %v", cfg.StreamInterval)
	return &App{
		name:    "telemetry",
		server:  newServer(cfg.TelemetryPort, router),
		workers: []func(ctx context.Context){hub.Run, publisher.Run},
		logger:  log,
	}, nil
}

func newServer(port int, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Handler exposes the routed handler, mainly for tests.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run serves until ctx is cancelled, then shuts the server down gracefully.
func (a *App) Run(ctx context.Context) error {
	defer a.close()

	g, ctx := errgroup.WithContext(ctx)

	for _, worker := range a.workers {
		worker := worker
		g.Go(func() error {
			worker(ctx)
			return nil
		})
	}

	g.Go(func() error {
		a.logger.Info("%s service listening on %s", a.name, a.server.Addr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		a.logger.Info("Shutting down %s service", a.name)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("Error releasing resource: %v", err)
		}
	}
	a.closers = nil
}
