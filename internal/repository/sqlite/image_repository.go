package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/dto"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/model"
)

const dateLayout = "2006-01-02"

// ImageRepository implements repository.ImageRepository for SQLite.
type ImageRepository struct {
	db *DB
}

// NewImageRepository creates a new SQLite image repository.
func NewImageRepository(db *DB) *ImageRepository {
	return &ImageRepository{db: db}
}

// Insert adds a new image record to the database. Timestamps are stored in UTC.
func (r *ImageRepository) Insert(img *model.Image) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO images (filename, run_id, timestamp, filepath, filesize)
		VALUES (?, ?, ?, ?, ?)
	`, img.Filename, img.RunID, img.Timestamp.UTC(), img.FilePath, img.FileSize)
	if err != nil {
		return 0, fmt.Errorf("failed to insert image: %w", err)
	}

	return result.LastInsertId()
}

// GetByFilename retrieves an image by its filename; nil when absent.
func (r *ImageRepository) GetByFilename(filename string) (*model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var img model.Image
	err := r.db.Conn().QueryRow(`
		SELECT id, filename, run_id, timestamp, filepath, filesize
		FROM images WHERE filename = ?
	`, filename).Scan(&img.ID, &img.Filename, &img.RunID, &img.Timestamp, &img.FilePath, &img.FileSize)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get image: %w", err)
	}
	return &img, nil
}

// filterClause appends WHERE conditions for filter. Dates are compared as UTC days.
func filterClause(filter *dto.ImageFilters) (string, []interface{}) {
	query := ""
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Class != "" {
		query += " AND EXISTS (SELECT 1 FROM detections d WHERE d.image_id = i.id AND d.class_id = ?)"
		args = append(args, filter.Class)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND DATE(i.timestamp) >= DATE(?)"
		args = append(args, filter.DateAfter.Format(dateLayout))
	}

	if !filter.DateBefore.IsZero() {
		query += " AND DATE(i.timestamp) <= DATE(?)"
		args = append(args, filter.DateBefore.Format(dateLayout))
	}

	return query, args
}

// GetAll retrieves images matching filter, newest first.
func (r *ImageRepository) GetAll(filter *dto.ImageFilters) ([]model.Image, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `
		SELECT i.id, i.filename, i.run_id, i.timestamp, i.filepath, i.filesize
		FROM images i
		WHERE 1=1` + where + `
		ORDER BY i.timestamp DESC, i.filename DESC`

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query images: %w", err)
	}
	defer rows.Close()

	var images []model.Image
	for rows.Next() {
		var img model.Image
		if err := rows.Scan(&img.ID, &img.Filename, &img.RunID, &img.Timestamp, &img.FilePath, &img.FileSize); err != nil {
			return nil, fmt.Errorf("failed to scan image: %w", err)
		}
		images = append(images, img)
	}

	return images, rows.Err()
}

// GetTotalCount returns the total count of images matching the filter.
func (r *ImageRepository) GetTotalCount(filter *dto.ImageFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	where, args := filterClause(filter)
	query := `SELECT COUNT(*) FROM images i WHERE 1=1` + where

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count images: %w", err)
	}

	return count, nil
}

// GetTotalSize returns the summed size of all indexed images in bytes.
func (r *ImageRepository) GetTotalSize() (int64, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var size int64
	if err := r.db.Conn().QueryRow(`SELECT COALESCE(SUM(filesize), 0) FROM images`).Scan(&size); err != nil {
		return 0, fmt.Errorf("failed to sum image sizes: %w", err)
	}
	return size, nil
}

// Exists checks if an image with the given filename exists.
func (r *ImageRepository) Exists(filename string) (bool, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM images WHERE filename = ?`, filename).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check image existence: %w", err)
	}
	return count > 0, nil
}

// DeleteByFilename removes an image and, through the foreign key, its detections.
func (r *ImageRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	if _, err := r.db.Conn().Exec(`DELETE FROM images WHERE filename = ?`, filename); err != nil {
		return fmt.Errorf("failed to delete image: %w", err)
	}
	return nil
}
