package handler

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/dto"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/labels"
)

const (
	defaultPageSize = 24
	maxPageSize     = 200
)

// ImagesAPIHandler returns a filtered, paginated list of indexed images.
// Query parameters: page, limit, class, dateAfter, dateBefore (2006-01-02).
func ImagesAPIHandler(cfg *config.Config, logger *logger.Logger,
	imageRepo repository.ImageRepository, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		q := r.URL.Query()
		page := atoiDefault(q.Get("page"), 1)
		limit := atoiDefault(q.Get("limit"), defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}

		filter := &dto.ImageFilters{
			Class:      q.Get("class"),
			DateAfter:  parseDate(q.Get("dateAfter")),
			DateBefore: parseDate(q.Get("dateBefore")),
			Limit:      limit,
			Offset:     (page - 1) * limit,
		}

		images, err := imageRepo.GetAll(filter)
		if err != nil {
			logger.Error("Error querying images from database: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		totalSize, err := imageRepo.GetTotalSize()
		if err != nil {
			logger.Error("Error getting total image size: %v", err)
			totalSize = 0
		}

		totalCount, err := imageRepo.GetTotalCount(filter)
		if err != nil {
			logger.Error("Error counting images: %v", err)
			totalCount = len(images)
		}

		// Convert to ImageInfo format for response
		pictures := make([]dto.ImageInfo, 0, len(images))
		for _, img := range images {
			classes, err := detectionRepo.GetClassesByImageID(img.ID)
			if err != nil {
				logger.Error("Error getting classes for image %d: %v", img.ID, err)
				classes = []string{}
			}
			if classes == nil {
				classes = []string{}
			}

			local := img.Timestamp.Local()
			pictures = append(pictures, dto.ImageInfo{
				Name:      img.Filename,
				Date:      local,
				TimeOfDay: local,
				Classes:   classes,
				Summary:   labels.Summary(classes, cfg.ClassNames),
				URL:       "/uploads/" + url.PathEscape(img.Filename),
				Thumbnail: "/thumbnails/" + url.PathEscape(img.Filename),
			})
		}

		data := dto.ImagesData{
			Images:      pictures,
			Size:        totalSize,
			Length:      totalCount,
			TotalPages:  (totalCount + limit - 1) / limit,
			CurrentPage: page,
			Limit:       limit,
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(data); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// ClassesAPIHandler lists every class id present in the index.
func ClassesAPIHandler(cfg *config.Config, logger *logger.Logger, detectionRepo repository.DetectionRepository) http.HandlerFunc {
	type class struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ids, err := detectionRepo.GetAllClasses()
		if err != nil {
			logger.Error("Error querying classes: %v", err)
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			return
		}

		out := make([]class, 0, len(ids))
		for _, id := range ids {
			out = append(out, class{ID: id, Name: labels.DisplayName(id, cfg.ClassNames)})
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(out); err != nil {
			logger.Error("Error encoding JSON response: %v", err)
		}
	}
}

// atoiDefault converts string to int or returns a default when conversion fails or value <= 0.
func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}

// parseDate parses a date string in the format "2006-01-02" from the request (HTML input format).
func parseDate(v string) time.Time {
	if v == "" {
		return time.Time{}
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}
	}
	return t
}
