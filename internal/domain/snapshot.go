package domain

import "time"

// SnapshotVersion is the only document version written and accepted.
const SnapshotVersion = "1.0"

// Snapshot is the portable backup document holding every row of the store.
// Data is a pointer so that a document without a "data" key can be told apart
// from one with empty collections.
type Snapshot struct {
	Version    string        `json:"version"`
	ExportDate time.Time     `json:"exportDate"`
	Data       *SnapshotData `json:"data"`
}

// SnapshotData carries the four entity collections with their original ids.
type SnapshotData struct {
	Welders []Welder       `json:"welders"`
	Records []Record       `json:"records"`
	Norms   []Norm         `json:"norms"`
	History []HistoryEntry `json:"history"`
}
