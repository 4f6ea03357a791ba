// Package labels reads the plain-text sidecar files written next to detected
// images: one object per line, class identifier first.
package labels

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Label is one detected object. Box and Confidence are only set when the line
// carries them (YOLO "class cx cy w h [conf]" with normalized coordinates).
type Label struct {
	Class      string
	CenterX    float64
	CenterY    float64
	Width      float64
	Height     float64
	Confidence float64
	HasBox     bool
}

// Parse reads every non-blank line of r.
func Parse(r io.Reader) ([]Label, error) {
	var out []Label
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		label := Label{Class: fields[0]}
		if len(fields) >= 5 {
			box, err := parseFloats(fields[1:5])
			if err == nil {
				label.CenterX, label.CenterY, label.Width, label.Height = box[0], box[1], box[2], box[3]
				label.HasBox = true
			}
		}
		if len(fields) >= 6 {
			if conf, err := strconv.ParseFloat(fields[5], 64); err == nil {
				label.Confidence = conf
			}
		}
		out = append(out, label)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return out, nil
}

// ReadFile parses the label file at path. A missing file is reported with found=false.
func ReadFile(path string) (labels []Label, found bool, err error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to open label file: %w", err)
	}
	defer file.Close()

	labels, err = Parse(file)
	if err != nil {
		return nil, true, err
	}
	return labels, true, nil
}

// Format writes labels back in the sidecar format, confidences included.
func Format(w io.Writer, labels []Label) error {
	for _, l := range labels {
		var err error
		if l.HasBox {
			_, err = fmt.Fprintf(w, "%s %.6f %.6f %.6f %.6f %.4f\n", l.Class, l.CenterX, l.CenterY, l.Width, l.Height, l.Confidence)
		} else {
			_, err = fmt.Fprintf(w, "%s\n", l.Class)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// DistinctClasses returns each class identifier once, in first-seen order.
func DistinctClasses(labels []Label) []string {
	seen := make(map[string]bool, len(labels))
	var out []string
	for _, l := range labels {
		if seen[l.Class] {
			continue
		}
		seen[l.Class] = true
		out = append(out, l.Class)
	}
	return out
}

// DisplayName maps a numeric class id to names[id] when available.
func DisplayName(class string, names []string) string {
	id, err := strconv.Atoi(class)
	if err != nil || id < 0 || id >= len(names) {
		return class
	}
	return names[id]
}

// Summary builds the landing page message for a set of distinct classes.
func Summary(classes []string, names []string) string {
	if len(classes) == 0 {
		return "No bee detected."
	}
	display := make([]string, len(classes))
	for i, c := range classes {
		display[i] = DisplayName(c, names)
	}
	return "Detected bee types: " + strings.Join(display, ", ")
}

func parseFloats(fields []string) ([]float64, error) {
	out := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
