package ir

import "time"

const Version = "1.0"

type Run struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"started_at"`
	Input     string    `json:"input,omitempty"`
	Output    string    `json:"output,omitempty"`
	IRVersion string    `json:"ir_version,omitempty"`

	Total   int     `json:"total"`
	Skipped int     `json:"skipped"` // N/A and zero-count lines
	Entries []Entry `json:"entries,omitempty"`
}

// Entry is one nonzero Occurrences line attributed to its object.
type Entry struct {
	Object      string `json:"object"`
	Path        string `json:"path"` // Object with the strip prefix removed
	Occurrences int    `json:"occurrences"`
	Line        int    `json:"line"`
}
