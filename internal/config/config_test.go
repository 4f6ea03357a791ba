package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DETECTOR_PORT", "TELEMETRY_PORT", "CONFIDENCE", "IMAGE_SIZE", "LATEST_BY", "CLASS_NAMES", "STREAM_INTERVAL_MS", "MAX_UPLOAD_MB", "DETECTOR_WORKERS"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.DetectorPort != 8000 {
		t.Errorf("Expected detector port 8000, got %d", cfg.DetectorPort)
	}
	if cfg.TelemetryPort != 5000 {
		t.Errorf("Expected telemetry port 5000, got %d", cfg.TelemetryPort)
	}
	if cfg.ImageSize != 640 {
		t.Errorf("Expected image size 640, got %d", cfg.ImageSize)
	}
	if cfg.Confidence != 0.4 {
		t.Errorf("Expected confidence 0.4, got %v", cfg.Confidence)
	}
	if cfg.LatestBy != "name" {
		t.Errorf("Expected latest-by 'name', got %q", cfg.LatestBy)
	}
	if cfg.StreamInterval != time.Second {
		t.Errorf("Expected 1s stream interval, got %v", cfg.StreamInterval)
	}
	if cfg.MaxUploadBytes != 20<<20 {
		t.Errorf("Expected 20MB upload limit, got %d", cfg.MaxUploadBytes)
	}
	if cfg.Workers != 1 {
		t.Errorf("Expected 1 detector worker, got %d", cfg.Workers)
	}
	if cfg.ClassNames != nil {
		t.Errorf("Expected no class names, got %v", cfg.ClassNames)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DETECTOR_PORT", "9000")
	t.Setenv("CONFIDENCE", "0.55")
	t.Setenv("IMAGE_SIZE", "416")
	t.Setenv("CLASS_NAMES", "honeybee, bumblebee,,wasp")
	t.Setenv("STREAM_INTERVAL_MS", "250")

	cfg := Load()

	if cfg.DetectorPort != 9000 {
		t.Errorf("Expected detector port 9000, got %d", cfg.DetectorPort)
	}
	if cfg.Confidence != 0.55 {
		t.Errorf("Expected confidence 0.55, got %v", cfg.Confidence)
	}
	if cfg.ImageSize != 416 {
		t.Errorf("Expected image size 416, got %d", cfg.ImageSize)
	}
	if cfg.StreamInterval != 250*time.Millisecond {
		t.Errorf("Expected 250ms interval, got %v", cfg.StreamInterval)
	}

	want := []string{"honeybee", "bumblebee", "wasp"}
	if len(cfg.ClassNames) != len(want) {
		t.Fatalf("Expected %d class names, got %v", len(want), cfg.ClassNames)
	}
	for i := range want {
		if cfg.ClassNames[i] != want[i] {
			t.Errorf("Class %d: expected %q, got %q", i, want[i], cfg.ClassNames[i])
		}
	}
}

func TestGetEnvAsInt_Invalid(t *testing.T) {
	t.Setenv("SOME_INT", "abc")
	if got := getEnvAsInt("SOME_INT", 7); got != 7 {
		t.Errorf("Expected default 7 for invalid value, got %d", got)
	}
}
