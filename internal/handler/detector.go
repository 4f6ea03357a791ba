package handler

import (
	"context"
	"errors"
	"html/template"
	"io"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
)

// UploadHandler stores the raw request body as a new image and runs the
// detector on it before answering.
func UploadHandler(manager *service.Manager, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := http.MaxBytesReader(w, r.Body, cfg.MaxUploadBytes)
		data, err := io.ReadAll(body)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "Image too large", http.StatusRequestEntityTooLarge)
				return
			}
			logger.Error("Error reading upload: %v", err)
			http.Error(w, "Unable to read request body", http.StatusBadRequest)
			return
		}

		// detection runs to completion even if the client goes away
		upload, err := manager.ProcessUpload(context.WithoutCancel(r.Context()), data)
		switch {
		case errors.Is(err, service.ErrEmptyUpload):
			http.Error(w, "Empty image body", http.StatusBadRequest)
			return
		case errors.Is(err, service.ErrDetection):
			http.Error(w, "Detection failed", http.StatusInternalServerError)
			return
		case err != nil:
			logger.Error("Error processing upload: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		logger.Info("Upload %s stored as %s", upload.RunID, upload.Name)
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte("Image received and processed"))
	}
}

// indexPage is the data of the landing page.
type indexPage struct {
	Image   string
	Message string
}

// IndexHandler renders the latest detected image with a summary of its labels.
func IndexHandler(images *storage.ImageStore, tmpl *template.Template, cfg *config.Config, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		latest, ok, err := images.Latest(cfg.LatestBy)
		if err != nil {
			logger.Error("Error listing detected images: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		page := indexPage{}
		if ok {
			page.Image = latest
			page.Message = labelSummary(images, latest, cfg.ClassNames, logger)
		}
		render(w, tmpl, "index.html", page, logger)
	}
}

func labelSummary(images *storage.ImageStore, name string, names []string, logger *logger.Logger) string {
	found, _, err := images.ReadLabels(name)
	if err != nil {
		logger.Warning("Error reading labels of %s: %v", name, err)
	}
	return labels.Summary(labels.DistinctClasses(found), names)
}

// GalleryHandler renders every detected image, newest name first.
func GalleryHandler(images *storage.ImageStore, tmpl *template.Template, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		names, err := images.ListDetected()
		if err != nil {
			logger.Error("Error listing detected images: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}
		render(w, tmpl, "gallery.html", struct{ Images []string }{names}, logger)
	}
}

// UploadedFileHandler serves a file from the detected directory.
func UploadedFileHandler(images *storage.ImageStore, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		path, ok := resolveDetected(w, images, mux.Vars(r)["filename"], logger)
		if !ok {
			return
		}
		http.ServeFile(w, r, path)
	}
}

// ThumbnailHandler serves a downscaled JPEG of a detected image.
func ThumbnailHandler(images *storage.ImageStore, thumbs *storage.ThumbnailService, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["filename"]
		if _, ok := resolveDetected(w, images, name, logger); !ok {
			return
		}

		data, err := thumbs.Get(name)
		if err != nil {
			logger.Error("Error rendering thumbnail of %s: %v", name, err)
			http.Error(w, "Unable to render thumbnail", http.StatusUnprocessableEntity)
			return
		}

		w.Header().Set("Content-Type", "image/jpeg")
		w.Header().Set("Cache-Control", "max-age=600")
		w.Write(data)
	}
}

// resolveDetected writes a 404 for unknown or unsafe names.
func resolveDetected(w http.ResponseWriter, images *storage.ImageStore, name string, logger *logger.Logger) (string, bool) {
	path, err := images.DetectedPath(name)
	switch {
	case errors.Is(err, storage.ErrInvalidName), errors.Is(err, storage.ErrNotFound):
		http.Error(w, "File not found", http.StatusNotFound)
		return "", false
	case err != nil:
		logger.Error("Error resolving %s: %v", name, err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return "", false
	}
	return path, true
}
