package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/ai"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
)

var (
	ErrEmptyUpload = errors.New("empty upload")
	ErrDetection   = errors.New("detection failed")
)

// Upload is the outcome of one processed image.
type Upload struct {
	RunID  string
	Name   string
	Path   string
	Labels []labels.Label
}

// Manager runs the upload pipeline: save, detect, finalize, index.
type Manager struct {
	images   *storage.ImageStore
	detector ai.Detector
	indexer  *storage.Indexer
	metrics  *metrics.Metrics
	logger   *logger.Logger

	timeout time.Duration
	workers *semaphore.Weighted
	now     func() time.Time
}

// NewManager wires the pipeline. indexer may be nil when no index is kept.
func NewManager(images *storage.ImageStore, detector ai.Detector, indexer *storage.Indexer, config *config.Config, m *metrics.Metrics, logger *logger.Logger) *Manager {
	workers := config.Workers
	if workers < 1 {
		workers = 1
	}

	manager := &Manager{
		images:   images,
		detector: detector,
		indexer:  indexer,
		metrics:  m,
		logger:   logger,
		timeout:  config.DetectTimeout,
		workers:  semaphore.NewWeighted(int64(workers)),
		now:      time.Now,
	}

	manager.logger.Info("Manager started - %d concurrent detector run(s)", workers)
	return manager
}

// Images returns the store the manager writes to.
func (m *Manager) Images() *storage.ImageStore {
	return m.images
}

// ProcessUpload stores data under a fresh capture-time name and runs the
// detector on it synchronously. On detector failure the upload stays in the
// upload directory.
func (m *Manager) ProcessUpload(ctx context.Context, data []byte) (*Upload, error) {
	if len(data) == 0 {
		m.metrics.Upload("rejected")
		return nil, ErrEmptyUpload
	}

	runID := uuid.NewString()
	name, path, err := m.images.SaveUpload(data, m.now())
	if err != nil {
		m.metrics.Upload("store_error")
		return nil, err
	}
	m.logger.Info("Run %s: saved %s (%d bytes)", runID, name, len(data))

	result, err := m.detect(ctx, path)
	if err != nil {
		m.metrics.Upload("detector_error")
		m.logger.Error("Run %s: detector failed for %s: %v", runID, name, err)
		return nil, fmt.Errorf("%w: %v", ErrDetection, err)
	}

	final, err := m.images.Finalize(name)
	if err != nil {
		m.metrics.Upload("store_error")
		return nil, err
	}

	// the label file on disk is authoritative, whatever the backend returned
	found, _, err := m.images.ReadLabels(name)
	if err != nil {
		m.logger.Warning("Run %s: could not read labels of %s: %v", runID, name, err)
		found = result.Labels
	}

	if m.indexer != nil {
		if _, err := m.indexer.Index(name, final, runID, found); err != nil {
			m.logger.Warning("Run %s: could not index %s: %v", runID, name, err)
		}
	}

	m.metrics.Upload("ok")
	m.logger.Info("Run %s: %s processed, %d objects", runID, name, len(found))
	return &Upload{
		RunID:  runID,
		Name:   name,
		Path:   final,
		Labels: found,
	}, nil
}

func (m *Manager) detect(ctx context.Context, path string) (*ai.Result, error) {
	if err := m.workers.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer m.workers.Release(1)

	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	result, err := m.detector.Detect(ctx, ai.Request{
		ImagePath: path,
		OutputDir: m.images.DetectedDir(),
	})
	m.metrics.Detection(time.Since(start))
	return result, err
}
