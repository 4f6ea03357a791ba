package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Detector service
	DetectorPort    int
	UploadDirectory string
	DetectedDir     string
	DatabasePath    string
	DetectorBackend string // "command" runs detect.py, "dnn" runs the model in-process
	DetectorCommand string
	DetectorScript  string
	ModelWeights    string
	ModelONNX       string
	ImageSize       int
	Confidence      float64
	DetectTimeout   time.Duration
	ClassNames      []string // index = class id from the label file
	LatestBy        string   // "name" or "mtime"
	MaxUploadBytes  int64
	ThumbnailSize   int
	Workers         int // concurrent detector runs

	// Telemetry service
	TelemetryPort  int
	StreamInterval time.Duration

	LogDirectory string
	TemplateDir  string
}

// Load reads .env (if present) and then the process environment.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		DetectorPort:    getEnvAsInt("DETECTOR_PORT", 8000),
		UploadDirectory: getEnv("UPLOAD_DIR", filepath.Join("static", "uploads")),
		DetectedDir:     getEnv("DETECTED_DIR", filepath.Join("static", "detected")),
		DatabasePath:    getEnv("DB_PATH", filepath.Join("data", "images.db")),
		DetectorBackend: getEnv("DETECTOR_BACKEND", "command"),
		DetectorCommand: getEnv("DETECTOR_COMMAND", "python3"),
		DetectorScript:  getEnv("DETECTOR_SCRIPT", filepath.Join("yolov5", "detect.py")),
		ModelWeights:    getEnv("MODEL_WEIGHTS", filepath.Join("yolov5", "best.pt")),
		ModelONNX:       getEnv("MODEL_ONNX", filepath.Join("yolov5", "best.onnx")),
		ImageSize:       getEnvAsInt("IMAGE_SIZE", 640),
		Confidence:      getEnvAsFloat("CONFIDENCE", 0.4),
		DetectTimeout:   time.Duration(getEnvAsInt("DETECT_TIMEOUT", 120)) * time.Second,
		ClassNames:      getEnvAsList("CLASS_NAMES"),
		LatestBy:        getEnv("LATEST_BY", "name"),
		MaxUploadBytes:  getEnvAsInt64("MAX_UPLOAD_MB", 20) << 20,
		ThumbnailSize:   getEnvAsInt("THUMBNAIL_SIZE", 320),
		Workers:         getEnvAsInt("DETECTOR_WORKERS", 1),

		TelemetryPort:  getEnvAsInt("TELEMETRY_PORT", 5000),
		StreamInterval: time.Duration(getEnvAsInt("STREAM_INTERVAL_MS", 1000)) * time.Millisecond,

		LogDirectory: getEnv("LOG_DIR", "logs"),
		TemplateDir:  getEnv("TEMPLATE_DIR", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

// getEnvAsList splits a comma separated value, dropping empty entries.
func getEnvAsList(key string) []string {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
