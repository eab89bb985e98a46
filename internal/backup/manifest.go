package backup

import "time"

// FormatVersion is the backup format version. Increment major on breaking changes.
const FormatVersion = "1.0"

// Manifest describes backup contents and metadata.
type Manifest struct {
	Version   string    `json:"version"`
	BackupID  string    `json:"backup_id"`
	CreatedAt time.Time `json:"created_at"`

	// Server identity
	ServerName      string `json:"server_name"`
	EspressoVersion string `json:"espresso_version"`

	// Checkpoint is the newest UpdatedAt across the exported reports.
	// A restore target already past the checkpoint holds everything
	// this backup holds.
	Checkpoint time.Time `json:"checkpoint"`

	// Content summary
	Counts EntityCounts `json:"counts"`
}

// EntityCounts tracks entity counts for validation and progress reporting.
type EntityCounts struct {
	Reports int `json:"reports"`
	Tags    int `json:"tags"`
}
