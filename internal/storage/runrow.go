package storage

import "time"

// RunRow is a lightweight listing row for the history command.
type RunRow struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	Total     int       `json:"total"`
	Entries   int       `json:"entries"`
}
