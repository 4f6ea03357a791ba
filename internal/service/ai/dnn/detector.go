// Package dnn runs a YOLOv5 ONNX export in-process through OpenCV.
package dnn

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/ai"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

const nmsThreshold = 0.45

// Detector implements ai.Detector on a gocv.Net. Forward passes are serialized.
type Detector struct {
	net        gocv.Net
	params     ai.Params
	classNames []string
	logger     *logger.Logger
	mu         sync.Mutex
}

// NewDetector loads the ONNX model at modelPath.
func NewDetector(modelPath string, params ai.Params, classNames []string, logger *logger.Logger) (*Detector, error) {
	if _, err := os.Stat(modelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", modelPath)
	}

	net := gocv.ReadNet(modelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("failed to load network")
	}

	errBackend := net.SetPreferableBackend(gocv.NetBackendDefault)
	errTarget := net.SetPreferableTarget(gocv.NetTargetCPU)
	if errBackend != nil || errTarget != nil {
		net.Close()
		return nil, fmt.Errorf("failed to set preferable backend or target")
	}

	logger.Info("Detection network initialized from %s", modelPath)
	return &Detector{
		net:        net,
		params:     params,
		classNames: classNames,
		logger:     logger,
	}, nil
}

// Close releases the network.
func (d *Detector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// Detect writes an annotated copy of the image and, when anything is found,
// a label file into req.OutputDir.
func (d *Detector) Detect(ctx context.Context, req ai.Request) (*ai.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	raw, err := os.ReadFile(req.ImagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}

	mat, err := gocv.IMDecode(raw, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return nil, fmt.Errorf("decoded image is empty")
	}

	candidates, err := d.forward(mat)
	if err != nil {
		return nil, err
	}
	kept := d.suppress(candidates)

	found := make([]labels.Label, 0, len(kept))
	for _, c := range kept {
		found = append(found, c.Label())
	}

	if err := d.draw(&mat, kept); err != nil {
		return nil, err
	}

	imagePath, labelPath := ai.OutputPaths(req)
	buf, err := gocv.IMEncode(".jpg", mat)
	if err != nil {
		d.logger.Error("Failed to encode image: %v", err)
		return nil, err
	}
	defer buf.Close()
	if err := os.WriteFile(imagePath, buf.GetBytes(), 0644); err != nil {
		return nil, fmt.Errorf("failed to write annotated image: %w", err)
	}

	result := &ai.Result{ImagePath: imagePath, LabelPath: labelPath, Labels: found}
	if len(found) > 0 {
		var out bytes.Buffer
		if err := labels.Format(&out, found); err != nil {
			return nil, err
		}
		if err := os.WriteFile(labelPath, out.Bytes(), 0644); err != nil {
			return nil, fmt.Errorf("failed to write label file: %w", err)
		}
		result.LabelsFound = true
	}

	d.logger.Info("Detected %d objects in %s", len(found), req.ImagePath)
	return result, nil
}

func (d *Detector) forward(mat gocv.Mat) ([]ai.Candidate, error) {
	size := d.params.ImageSize
	blob := gocv.BlobFromImage(mat, 1.0/255.0, image.Pt(size, size), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.mu.Lock()
	defer d.mu.Unlock()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	dims := output.Size()
	if len(dims) != 3 {
		return nil, fmt.Errorf("unexpected output shape %v", dims)
	}
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("failed to read network output: %v", err)
	}

	return ai.DecodeYOLO(data, dims[2], size, d.params.Confidence)
}

// suppress applies non-maximum suppression per image.
func (d *Detector) suppress(candidates []ai.Candidate) []ai.Candidate {
	if len(candidates) == 0 {
		return nil
	}

	size := float64(d.params.ImageSize)
	boxes := make([]image.Rectangle, len(candidates))
	scores := make([]float32, len(candidates))
	for i, c := range candidates {
		boxes[i] = pixelRect(c, size, size)
		scores[i] = float32(c.Confidence)
	}

	indices := gocv.NMSBoxes(boxes, scores, float32(d.params.Confidence), nmsThreshold)
	kept := make([]ai.Candidate, 0, len(indices))
	for _, idx := range indices {
		kept = append(kept, candidates[idx])
	}
	return kept
}

func (d *Detector) draw(mat *gocv.Mat, kept []ai.Candidate) error {
	yellow := color.RGBA{R: 255, G: 200, B: 0, A: 0}
	width, height := float64(mat.Cols()), float64(mat.Rows())

	for _, c := range kept {
		rect := pixelRect(c, width, height)
		if err := gocv.Rectangle(mat, rect, yellow, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %v", err)
		}

		text := fmt.Sprintf("%s %.2f", labels.DisplayName(c.Label().Class, d.classNames), c.Confidence)
		pt := image.Pt(rect.Min.X, rect.Min.Y-5)
		if err := gocv.PutText(mat, text, pt, gocv.FontHersheySimplex, 0.5, yellow, 1); err != nil {
			return fmt.Errorf("failed to draw text: %v", err)
		}
	}
	return nil
}

func pixelRect(c ai.Candidate, width, height float64) image.Rectangle {
	x0 := int((c.CenterX - c.Width/2) * width)
	y0 := int((c.CenterY - c.Height/2) * height)
	x1 := int((c.CenterX + c.Width/2) * width)
	y1 := int((c.CenterY + c.Height/2) * height)
	return image.Rect(x0, y0, x1, y1)
}
