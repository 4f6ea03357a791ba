package model

import "time"

// Image represents a detected image record.
type Image struct {
	ID        int64     `json:"id"`
	Filename  string    `json:"filename"`
	RunID     string    `json:"run_id"`
	Timestamp time.Time `json:"timestamp"`
	FilePath  string    `json:"filepath"`
	FileSize  int64     `json:"filesize"`
}
