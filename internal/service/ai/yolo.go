package ai

import (
	"fmt"
	"strconv"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

// Candidate is one raw YOLOv5 prediction, box normalized to the input size.
type Candidate struct {
	ClassID    int
	Confidence float64
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
}

// DecodeYOLO reads a flattened [rows x (5+classes)] YOLOv5 output tensor.
// Each row is cx, cy, w, h in input pixels, objectness, then per-class scores.
// Rows below minConfidence (objectness * best class score) are dropped.
func DecodeYOLO(data []float32, dims int, inputSize int, minConfidence float64) ([]Candidate, error) {
	if dims < 6 {
		return nil, fmt.Errorf("unexpected output width %d", dims)
	}
	if len(data)%dims != 0 {
		return nil, fmt.Errorf("output length %d is not a multiple of %d", len(data), dims)
	}

	size := float64(inputSize)
	var out []Candidate
	for off := 0; off < len(data); off += dims {
		row := data[off : off+dims]
		objectness := float64(row[4])
		if objectness < minConfidence {
			continue
		}

		best, bestScore := 0, float32(0)
		for c, score := range row[5:] {
			if score > bestScore {
				best, bestScore = c, score
			}
		}
		confidence := objectness * float64(bestScore)
		if confidence < minConfidence {
			continue
		}

		out = append(out, Candidate{
			ClassID:    best,
			Confidence: confidence,
			CenterX:    float64(row[0]) / size,
			CenterY:    float64(row[1]) / size,
			Width:      float64(row[2]) / size,
			Height:     float64(row[3]) / size,
		})
	}
	return out, nil
}

// Label converts a candidate to a label file entry.
func (c Candidate) Label() labels.Label {
	return labels.Label{
		Class:      strconv.Itoa(c.ClassID),
		CenterX:    c.CenterX,
		CenterY:    c.CenterY,
		Width:      c.Width,
		Height:     c.Height,
		Confidence: c.Confidence,
		HasBox:     true,
	}
}
