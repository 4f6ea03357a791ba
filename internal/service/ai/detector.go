// Package ai models the object detector as a swappable capability: an image
// path goes in, an annotated image plus a label sidecar file come out.
package ai

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

const (
	// DefaultImageSize is the square inference size in pixels.
	DefaultImageSize = 640
	// DefaultConfidence is the minimum confidence for a detection to be kept.
	DefaultConfidence = 0.4
)

// Params are the fixed inference settings passed to every backend.
type Params struct {
	ImageSize      int
	Confidence     float64
	SaveLabels     bool
	SaveConfidence bool
}

// DefaultParams returns 640x640 inference at 0.4 confidence with label files
// and confidences saved.
func DefaultParams() Params {
	return Params{
		ImageSize:      DefaultImageSize,
		Confidence:     DefaultConfidence,
		SaveLabels:     true,
		SaveConfidence: true,
	}
}

// Request names the input image and the directory outputs must be written to.
type Request struct {
	ImagePath string
	OutputDir string
}

// Result describes what a backend produced for one image.
type Result struct {
	// ImagePath is the annotated image; it may not exist if the backend only
	// writes labels.
	ImagePath string
	// LabelPath is OutputDir/<stem>.txt; LabelsFound is false when the backend
	// detected nothing and wrote no file.
	LabelPath   string
	LabelsFound bool
	Labels      []labels.Label
}

type Detector interface {
	Detect(ctx context.Context, req Request) (*Result, error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(ctx context.Context, req Request) (*Result, error)

func (f DetectorFunc) Detect(ctx context.Context, req Request) (*Result, error) {
	return f(ctx, req)
}

// OutputPaths returns where a backend writes the annotated image and label file.
func OutputPaths(req Request) (imagePath, labelPath string) {
	name := filepath.Base(req.ImagePath)
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return filepath.Join(req.OutputDir, name), filepath.Join(req.OutputDir, stem+".txt")
}

// collectResult reads back the label file written for req.
func collectResult(req Request) (*Result, error) {
	imagePath, labelPath := OutputPaths(req)
	parsed, found, err := labels.ReadFile(labelPath)
	if err != nil {
		return nil, err
	}
	return &Result{
		ImagePath:   imagePath,
		LabelPath:   labelPath,
		LabelsFound: found,
		Labels:      parsed,
	}, nil
}
