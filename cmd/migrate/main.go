package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/repository/sqlite"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/service/storage"
)

func main() {
	cfg := config.Load()
	detectedDir := flag.String("detected", cfg.DetectedDir, "Directory containing detected images and label files")
	dbPath := flag.String("db", cfg.DatabasePath, "Database path")
	flag.Parse()

	fmt.Printf("Indexing images from %s into database %s\n", *detectedDir, *dbPath)

	// Initialize database
	db, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	store, err := storage.NewImageStore(cfg.UploadDirectory, *detectedDir)
	if err != nil {
		log.Fatalf("Failed to open image directories: %v", err)
	}

	imageRepo := sqlite.NewImageRepository(db)
	detectionRepo := sqlite.NewDetectionRepository(db)
	indexer := storage.NewIndexer(imageRepo, detectionRepo, logger.NewLogger(cfg.LogDirectory, "migrate"))

	runID := uuid.NewString()
	added, failed, err := indexer.IndexDirectory(store, runID)
	if err != nil {
		log.Fatalf("Failed to index images: %v", err)
	}

	fmt.Printf("Indexed %d new images (run %s)\n", added, runID)
	if failed > 0 {
		fmt.Printf("Skipped %d files (invalid name or errors)\n", failed)
	}

	// Show stats
	total, err := imageRepo.GetTotalCount(nil)
	if err != nil {
		return
	}
	size, _ := imageRepo.GetTotalSize()
	classes, _ := detectionRepo.GetAllClasses()

	fmt.Printf("\nDatabase Statistics:\n")
	fmt.Printf("   Total images: %d\n", total)
	fmt.Printf("   Total size: %d bytes\n", size)
	fmt.Printf("   Classes: %v\n", classes)
}
