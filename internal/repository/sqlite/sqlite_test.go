package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/dto"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/model"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "test.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func insertTestImage(t *testing.T, repo *ImageRepository, filename string, ts time.Time) int64 {
	t.Helper()

	id, err := repo.Insert(&model.Image{
		Filename:  filename,
		RunID:     "run-" + filename,
		Timestamp: ts,
		FilePath:  "/detected/" + filename,
		FileSize:  1024,
	})
	if err != nil {
		t.Fatalf("Insert %s failed: %v", filename, err)
	}
	return id
}

// ========================================
// Database Tests
// ========================================

func TestDatabase_CreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "images.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrateIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	if err := db.migrate(); err != nil {
		t.Fatalf("Second migrate failed: %v", err)
	}
}

// ========================================
// Image Repository Tests
// ========================================

func TestImageRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepository(db)

	ts := time.Date(2025, 6, 15, 14, 30, 5, 0, time.UTC)
	id := insertTestImage(t, repo, "image_20250615_143005_000001.jpg", ts)
	if id <= 0 {
		t.Errorf("Expected positive ID, got %d", id)
	}

	got, err := repo.GetByFilename("image_20250615_143005_000001.jpg")
	if err != nil {
		t.Fatalf("GetByFilename failed: %v", err)
	}
	if got == nil {
		t.Fatal("Expected image, got nil")
	}
	if got.ID != id || got.RunID != "run-image_20250615_143005_000001.jpg" || got.FileSize != 1024 {
		t.Errorf("Unexpected image: %+v", got)
	}
	if !got.Timestamp.Equal(ts) {
		t.Errorf("Timestamp mismatch: expected %v, got %v", ts, got.Timestamp)
	}
}

func TestImageRepository_Insert_DuplicateFilename(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepository(db)

	insertTestImage(t, repo, "duplicate.jpg", time.Now())

	_, err := repo.Insert(&model.Image{Filename: "duplicate.jpg", Timestamp: time.Now(), FilePath: "x"})
	if err == nil {
		t.Error("Expected error for duplicate filename, got nil")
	}
}

func TestImageRepository_GetByFilename_NotFound(t *testing.T) {
	db := setupTestDB(t)
	repo := NewImageRepository(db)

	got, err := repo.GetByFilename("nope.jpg")
	if err != nil {
		t.Fatalf("GetByFilename should not error for missing image: %v", err)
	}
	if got != nil {
		t.Error("Expected nil for missing image")
	}

	exists, err := repo.Exists("nope.jpg")
	if err != nil || exists {
		t.Errorf("Expected exists=false, got %v (err %v)", exists, err)
	}
}

func TestImageRepository_GetAll_Filters(t *testing.T) {
	db := setupTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	day1 := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)
	day3 := time.Date(2025, 6, 3, 12, 0, 0, 0, time.UTC)

	id1 := insertTestImage(t, images, "a.jpg", day1)
	id2 := insertTestImage(t, images, "b.jpg", day2)
	insertTestImage(t, images, "c.jpg", day3)

	if err := detections.InsertBatch([]model.Detection{
		{ImageID: id1, ClassID: "0"},
		{ImageID: id1, ClassID: "0"},
		{ImageID: id2, ClassID: "1"},
	}); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	tests := []struct {
		name     string
		filter   *dto.ImageFilters
		expected []string
	}{
		{"no filter newest first", &dto.ImageFilters{}, []string{"c.jpg", "b.jpg", "a.jpg"}},
		{"nil filter", nil, []string{"c.jpg", "b.jpg", "a.jpg"}},
		{"by class", &dto.ImageFilters{Class: "0"}, []string{"a.jpg"}},
		{"date after", &dto.ImageFilters{DateAfter: day2}, []string{"c.jpg", "b.jpg"}},
		{"date range", &dto.ImageFilters{DateAfter: day2, DateBefore: day2}, []string{"b.jpg"}},
		{"paged", &dto.ImageFilters{Limit: 1, Offset: 1}, []string{"b.jpg"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := images.GetAll(tt.filter)
			if err != nil {
				t.Fatalf("GetAll failed: %v", err)
			}
			if len(got) != len(tt.expected) {
				t.Fatalf("Expected %d images, got %d", len(tt.expected), len(got))
			}
			for i, name := range tt.expected {
				if got[i].Filename != name {
					t.Errorf("Position %d: expected %s, got %s", i, name, got[i].Filename)
				}
			}
		})
	}

	count, err := images.GetTotalCount(&dto.ImageFilters{Class: "0", Limit: 1})
	if err != nil || count != 1 {
		t.Errorf("Expected count 1 for class 0, got %d (err %v)", count, err)
	}
	size, err := images.GetTotalSize()
	if err != nil || size != 3*1024 {
		t.Errorf("Expected total size %d, got %d (err %v)", 3*1024, size, err)
	}
}

func TestImageRepository_DeleteByFilename_Cascades(t *testing.T) {
	db := setupTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	id := insertTestImage(t, images, "gone.jpg", time.Now())
	if err := detections.InsertBatch([]model.Detection{{ImageID: id, ClassID: "2"}}); err != nil {
		t.Fatal(err)
	}

	if err := images.DeleteByFilename("gone.jpg"); err != nil {
		t.Fatalf("DeleteByFilename failed: %v", err)
	}

	left, err := detections.GetByImageID(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 0 {
		t.Errorf("Expected detections to be deleted with the image, got %d", len(left))
	}
}

// ========================================
// Detection Repository Tests
// ========================================

func TestDetectionRepository_Classes(t *testing.T) {
	db := setupTestDB(t)
	images := NewImageRepository(db)
	detections := NewDetectionRepository(db)

	id := insertTestImage(t, images, "bees.jpg", time.Now())
	other := insertTestImage(t, images, "other.jpg", time.Now())

	err := detections.InsertBatch([]model.Detection{
		{ImageID: id, ClassID: "3", X: 0.5, Y: 0.5, Width: 0.1, Height: 0.1, Confidence: 0.9},
		{ImageID: id, ClassID: "1", Confidence: 0.8},
		{ImageID: id, ClassID: "3", Confidence: 0.7},
		{ImageID: other, ClassID: "2"},
	})
	if err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}

	classes, err := detections.GetClassesByImageID(id)
	if err != nil {
		t.Fatalf("GetClassesByImageID failed: %v", err)
	}
	if len(classes) != 2 || classes[0] != "3" || classes[1] != "1" {
		t.Errorf("Expected [3 1], got %v", classes)
	}

	all, err := detections.GetAllClasses()
	if err != nil {
		t.Fatalf("GetAllClasses failed: %v", err)
	}
	if len(all) != 3 || all[0] != "1" || all[2] != "3" {
		t.Errorf("Expected [1 2 3], got %v", all)
	}

	rows, err := detections.GetByImageID(id)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 || rows[0].Confidence != 0.9 || rows[0].X != 0.5 {
		t.Errorf("Unexpected detections: %+v", rows)
	}
}

func TestDetectionRepository_InsertBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	if err := NewDetectionRepository(db).InsertBatch(nil); err != nil {
		t.Errorf("Empty batch should be a no-op, got %v", err)
	}
}
