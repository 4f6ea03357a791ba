package storage

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/disintegration/imaging"
	"github.com/jellydator/ttlcache/v3"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/metrics"
)

const (
	thumbnailTTL      = 10 * time.Minute
	thumbnailCapacity = 512
)

// ThumbnailService renders gallery-sized JPEG previews of detected images.
type ThumbnailService struct {
	store   *ImageStore
	size    int
	cache   *ttlcache.Cache[string, []byte]
	metrics *metrics.Metrics
}

func NewThumbnailService(store *ImageStore, size int, m *metrics.Metrics) *ThumbnailService {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, []byte](thumbnailTTL),
		ttlcache.WithCapacity[string, []byte](thumbnailCapacity),
	)
	go cache.Start()

	return &ThumbnailService{
		store:   store,
		size:    size,
		cache:   cache,
		metrics: m,
	}
}

// Get returns the thumbnail of a detected image. Entries are keyed by name and
// modification time, so a replaced image gets a fresh thumbnail.
func (t *ThumbnailService) Get(name string) ([]byte, error) {
	path, err := t.store.DetectedPath(name)
	if err != nil {
		return nil, err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat image: %w", err)
	}

	key := fmt.Sprintf("%s@%d", name, info.ModTime().UnixNano())
	if item := t.cache.Get(key); item != nil {
		t.metrics.ThumbnailCache(true)
		return item.Value(), nil
	}
	t.metrics.ThumbnailCache(false)

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}
	thumb := imaging.Fit(img, t.size, t.size, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	data := buf.Bytes()
	t.cache.Set(key, data, ttlcache.DefaultTTL)
	return data, nil
}

// Close stops the cache janitor.
func (t *ThumbnailService) Close() {
	t.cache.Stop()
}
