package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

const (
	// TimestampLayout is the capture time part of stored image names.
	TimestampLayout = "20060102_150405"
	// maxNameAttempts bounds the O_EXCL retry loop in SaveUpload.
	maxNameAttempts = 1000

	LatestByName  = "name"
	LatestByMtime = "mtime"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotFound    = errors.New("file not found")
)

// ImageStore owns the upload staging directory and the detected output directory.
type ImageStore struct {
	uploadDir   string
	detectedDir string
	seq         atomic.Uint64
}

// NewImageStore creates both directories when missing.
func NewImageStore(uploadDir, detectedDir string) (*ImageStore, error) {
	for _, dir := range []string{uploadDir, detectedDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return &ImageStore{uploadDir: uploadDir, detectedDir: detectedDir}, nil
}

func (s *ImageStore) UploadDir() string   { return s.uploadDir }
func (s *ImageStore) DetectedDir() string { return s.detectedDir }

// ImageName builds image_<timestamp>_<seq>.jpg. The zero padded sequence keeps
// names of the same second in upload order when sorted.
func ImageName(t time.Time, seq uint64) string {
	return fmt.Sprintf("image_%s_%06d.jpg", t.Format(TimestampLayout), seq)
}

// ParseImageTime extracts the capture time from a stored image name.
func ParseImageTime(name string) (time.Time, error) {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	if !strings.HasPrefix(base, "image_") || len(base) < len("image_")+len(TimestampLayout) {
		return time.Time{}, fmt.Errorf("%w: %s", ErrInvalidName, name)
	}
	stamp := base[len("image_") : len("image_")+len(TimestampLayout)]
	return time.ParseInLocation(TimestampLayout, stamp, time.Local)
}

// SaveUpload writes data to a fresh file in the upload directory. The file is
// created with O_EXCL so concurrent or restarted uploads never overwrite each other.
func (s *ImageStore) SaveUpload(data []byte, now time.Time) (string, string, error) {
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := ImageName(now, s.seq.Add(1))
		if _, err := os.Stat(filepath.Join(s.detectedDir, name)); err == nil {
			continue
		}

		path := filepath.Join(s.uploadDir, name)
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", "", fmt.Errorf("failed to create upload file: %w", err)
		}

		if _, err := file.Write(data); err != nil {
			file.Close()
			return "", "", fmt.Errorf("failed to write upload file: %w", err)
		}
		if err := file.Close(); err != nil {
			return "", "", fmt.Errorf("failed to close upload file: %w", err)
		}
		return name, path, nil
	}
	return "", "", fmt.Errorf("no free image name after %d attempts", maxNameAttempts)
}

// Finalize moves an upload into the detected directory unless the detector
// already placed an image of the same name there.
func (s *ImageStore) Finalize(name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	detected := filepath.Join(s.detectedDir, name)
	if _, err := os.Stat(detected); err == nil {
		return detected, nil
	}
	if err := os.Rename(filepath.Join(s.uploadDir, name), detected); err != nil {
		return "", fmt.Errorf("failed to move %s to detected directory: %w", name, err)
	}
	return detected, nil
}

// ListDetected returns the .jpg/.png names in the detected directory, reverse sorted.
func (s *ImageStore) ListDetected() ([]string, error) {
	entries, err := os.ReadDir(s.detectedDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read detected directory: %w", err)
	}

	var images []string
	for _, entry := range entries {
		if entry.IsDir() || !isImage(entry.Name()) {
			continue
		}
		images = append(images, entry.Name())
	}
	sort.Sort(sort.Reverse(sort.StringSlice(images)))
	return images, nil
}

// Latest picks the most recent detected image by name order or modification time.
// ok is false when the directory holds no images.
func (s *ImageStore) Latest(order string) (string, bool, error) {
	images, err := s.ListDetected()
	if err != nil || len(images) == 0 {
		return "", false, err
	}
	if order != LatestByMtime {
		return images[0], true, nil
	}

	latest := ""
	var latestTime time.Time
	for _, name := range images {
		info, err := os.Stat(filepath.Join(s.detectedDir, name))
		if err != nil {
			continue
		}
		// images is reverse sorted, so on equal mtimes the larger name wins
		if latest == "" || info.ModTime().After(latestTime) {
			latest, latestTime = name, info.ModTime()
		}
	}
	return latest, latest != "", nil
}

// LabelPath returns the sidecar path of a detected image.
func (s *ImageStore) LabelPath(name string) string {
	return filepath.Join(s.detectedDir, LabelName(name))
}

// LabelName swaps the image extension for .txt.
func LabelName(name string) string {
	return strings.TrimSuffix(name, filepath.Ext(name)) + ".txt"
}

// ReadLabels parses the sidecar of a detected image; found is false when none exists.
func (s *ImageStore) ReadLabels(name string) ([]labels.Label, bool, error) {
	if !validName(name) {
		return nil, false, ErrInvalidName
	}
	return labels.ReadFile(s.LabelPath(name))
}

// DetectedPath resolves a file inside the detected directory.
func (s *ImageStore) DetectedPath(name string) (string, error) {
	if !validName(name) {
		return "", ErrInvalidName
	}
	path := filepath.Join(s.detectedDir, name)
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("failed to stat file: %w", err)
	}
	if info.IsDir() {
		return "", ErrNotFound
	}
	return path, nil
}

// validName rejects anything that could leave the directory it is joined to.
func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return false
	}
	return filepath.Base(name) == name
}

// isImage matches the lowercase .jpg and .png extensions only.
func isImage(name string) bool {
	switch filepath.Ext(name) {
	case ".jpg", ".png":
		return true
	}
	return false
}
