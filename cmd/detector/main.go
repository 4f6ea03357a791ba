package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/app"
	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/config"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.NewDetectorApp(config.Load())
	if err != nil {
		log.Fatalf("Failed to initialize detector service: %v", err)
	}

	if err := application.Run(ctx); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
