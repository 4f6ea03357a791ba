package storage

import (
	"fmt"
	"os"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/model"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

// Indexer records detected images and their label lines in the image index.
type Indexer struct {
	imageRepo     repository.ImageRepository
	detectionRepo repository.DetectionRepository
	logger        *logger.Logger
}

// NewIndexer creates an Indexer over the given repositories.
func NewIndexer(imageRepo repository.ImageRepository, detectionRepo repository.DetectionRepository, logger *logger.Logger) *Indexer {
	return &Indexer{
		imageRepo:     imageRepo,
		detectionRepo: detectionRepo,
		logger:        logger,
	}
}

// Index inserts one detected image. Already indexed names are skipped and
// reported with added=false.
func (s *Indexer) Index(name, path, runID string, found []labels.Label) (bool, error) {
	exists, err := s.imageRepo.Exists(name)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return false, fmt.Errorf("failed to stat %s: %w", name, err)
	}

	ts, err := ParseImageTime(name)
	if err != nil {
		ts = info.ModTime()
	}

	imageID, err := s.imageRepo.Insert(&model.Image{
		Filename:  name,
		RunID:     runID,
		Timestamp: ts,
		FilePath:  path,
		FileSize:  info.Size(),
	})
	if err != nil {
		return false, err
	}

	if len(found) > 0 {
		detections := make([]model.Detection, 0, len(found))
		for _, l := range found {
			detections = append(detections, model.Detection{
				ImageID:    imageID,
				ClassID:    l.Class,
				X:          l.CenterX,
				Y:          l.CenterY,
				Width:      l.Width,
				Height:     l.Height,
				Confidence: l.Confidence,
			})
		}
		if err := s.detectionRepo.InsertBatch(detections); err != nil {
			// drop the row so a later pass retries the image with its labels
			if derr := s.imageRepo.DeleteByFilename(name); derr != nil {
				s.logger.Error("Error removing partial index entry %s: %v", name, derr)
			}
			return false, fmt.Errorf("failed to save detections for %s: %w", name, err)
		}
	}

	return true, nil
}

// IndexDirectory indexes every detected image of store that is not yet known.
// Per-file failures are logged and counted, not returned.
func (s *Indexer) IndexDirectory(store *ImageStore, runID string) (added, failed int, err error) {
	names, err := store.ListDetected()
	if err != nil {
		return 0, 0, err
	}

	start := time.Now()
	for _, name := range names {
		path, err := store.DetectedPath(name)
		if err != nil {
			failed++
			continue
		}

		found, _, err := store.ReadLabels(name)
		if err != nil {
			s.logger.Warning("Skipping labels of %s: %v", name, err)
		}

		ok, err := s.Index(name, path, runID, found)
		if err != nil {
			s.logger.Error("Error indexing image %s: %v", name, err)
			failed++
			continue
		}
		if ok {
			added++
		}
	}

	s.logger.Info("Indexed %d of %d images in %v (%d failed)", added, len(names), time.Since(start), failed)
	return added, failed, nil
}
