package repository

import (
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/dto"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/model"
)

// ImageRepository defines the interface for image index operations.
type ImageRepository interface {
	// Create operations
	Insert(img *model.Image) (int64, error)

	// Read operations
	GetByFilename(filename string) (*model.Image, error)
	GetAll(filter *dto.ImageFilters) ([]model.Image, error)
	GetTotalCount(filter *dto.ImageFilters) (int, error)
	GetTotalSize() (int64, error)
	Exists(filename string) (bool, error)

	// Delete operations
	DeleteByFilename(filename string) error
}

// DetectionRepository defines the interface for detection data operations.
type DetectionRepository interface {
	// Create operations
	InsertBatch(detections []model.Detection) error

	// Read operations
	GetByImageID(imageID int64) ([]model.Detection, error)
	GetClassesByImageID(imageID int64) ([]string, error)
	GetAllClasses() ([]string, error)
}
