package telemetry

import (
	"context"
	"encoding/json"
	"time"

	"github.com/Thabesvara/Real-Time-Bee-Hive-Monitoring-Bee-Classifications-Model/internal/logger"
)

// Broadcaster is the part of the stream hub the publisher needs.
type Broadcaster interface {
	Broadcast(message []byte)
}

// Publisher pushes the current snapshot to the hub at a fixed interval.
type Publisher struct {
	store    *Store
	hub      Broadcaster
	interval time.Duration
	logger   *logger.Logger
}

func NewPublisher(store *Store, hub Broadcaster, interval time.Duration, logger *logger.Logger) *Publisher {
	if interval <= 0 {
		interval = time.Second
	}
	return &Publisher{
		store:    store,
		hub:      hub,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is done.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			frame, err := Frame(p.store.Get())
			if err != nil {
				p.logger.Error("Error encoding snapshot: %v", err)
				continue
			}
			p.hub.Broadcast(frame)
		}
	}
}

// Frame serializes a snapshot as sent on the stream.
func Frame(snap Snapshot) ([]byte, error) {
	return json.Marshal(snap)
}
