package ai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
)

// maxOutputTail bounds how much detector output ends up in an error message.
const maxOutputTail = 2048

// waitDelay caps how long Wait blocks on output pipes after the process is killed.
const waitDelay = 2 * time.Second

// CommandDetector runs the YOLOv5 detect.py script as a child process.
type CommandDetector struct {
	command string
	script  string
	weights string
	params  Params
	logger  *logger.Logger
}

// NewCommandDetector creates a detector invoking `command script --weights weights ...`.
func NewCommandDetector(command, script, weights string, params Params, logger *logger.Logger) *CommandDetector {
	return &CommandDetector{
		command: command,
		script:  script,
		weights: weights,
		params:  params,
		logger:  logger,
	}
}

// Args builds the detect.py argument list for req.
func (d *CommandDetector) Args(req Request) []string {
	args := []string{
		d.script,
		"--weights", d.weights,
		"--source", req.ImagePath,
		"--img", strconv.Itoa(d.params.ImageSize),
		"--conf-thres", strconv.FormatFloat(d.params.Confidence, 'f', -1, 64),
	}
	if d.params.SaveLabels {
		args = append(args, "--save-txt")
	}
	if d.params.SaveConfidence {
		args = append(args, "--save-conf")
	}
	// --name . keeps outputs directly in the project directory
	return append(args, "--project", req.OutputDir, "--name", ".", "--exist-ok")
}

// Detect blocks until the script exits or ctx is done.
func (d *CommandDetector) Detect(ctx context.Context, req Request) (*Result, error) {
	cmd := exec.CommandContext(ctx, d.command, d.Args(req)...)
	var output bytes.Buffer
	cmd.Stdout = &output
	cmd.Stderr = &output
	cmd.WaitDelay = waitDelay

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("detector interrupted: %w", ctxErr)
		}
		return nil, fmt.Errorf("detector failed: %w: %s", err, tail(output.String()))
	}

	if err := d.liftLabelFile(req); err != nil {
		return nil, err
	}

	result, err := collectResult(req)
	if err != nil {
		return nil, err
	}
	d.logger.Info("Detector finished for %s: %d objects", filepath.Base(req.ImagePath), len(result.Labels))
	return result, nil
}

// liftLabelFile moves labels/<stem>.txt, where detect.py writes it, next to the image.
func (d *CommandDetector) liftLabelFile(req Request) error {
	_, labelPath := OutputPaths(req)
	written := filepath.Join(req.OutputDir, "labels", filepath.Base(labelPath))

	if _, err := os.Stat(written); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to stat label file: %w", err)
	}
	if err := os.Rename(written, labelPath); err != nil {
		return fmt.Errorf("failed to move label file: %w", err)
	}
	return nil
}

func tail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > maxOutputTail {
		return "..." + s[len(s)-maxOutputTail:]
	}
	return s
}
