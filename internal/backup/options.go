package backup

import "time"

// BackupOptions configures backup creation.
type BackupOptions struct {
	OutputPath string // Where to write the backup file; empty picks a timestamped name
}

// RestoreOptions configures restoration.
type RestoreOptions struct {
	Mode          RestoreMode
	MergeStrategy MergeStrategy
	DryRun        bool // Validate without writing
}

// RestoreMode determines how to handle existing data.
type RestoreMode string

const (
	// RestoreModeFull writes every report from the backup,
	// overwriting local versions regardless of timestamps.
	RestoreModeFull RestoreMode = "full"

	// RestoreModeMerge adds backup data to existing data,
	// resolving conflicts per the merge strategy.
	RestoreModeMerge RestoreMode = "merge"
)

// Valid returns true if the restore mode is recognized.
func (m RestoreMode) Valid() bool {
	switch m {
	case RestoreModeFull, RestoreModeMerge:
		return true
	default:
		return false
	}
}

// MergeStrategy determines conflict resolution in merge mode.
type MergeStrategy string

const (
	// MergeKeepLocal keeps local version on conflict.
	MergeKeepLocal MergeStrategy = "keep_local"

	// MergeKeepBackup uses backup version on conflict.
	MergeKeepBackup MergeStrategy = "keep_backup"

	// MergeNewest uses whichever has newer UpdatedAt.
	MergeNewest MergeStrategy = "newest"
)

// Valid returns true if the merge strategy is recognized.
func (s MergeStrategy) Valid() bool {
	switch s {
	case MergeKeepLocal, MergeKeepBackup, MergeNewest:
		return true
	case "": // Empty is valid (not needed for non-merge modes)
		return true
	default:
		return false
	}
}

// BackupResult contains the outcome of a backup operation.
// Durations travel as milliseconds so the JSON shape is explicit.
type BackupResult struct {
	Path       string       `json:"path"`
	Size       int64        `json:"size"`
	Counts     EntityCounts `json:"counts"`
	DurationMS int64        `json:"duration_ms"`
	Checksum   string       `json:"checksum"`
}

// BackupInfo describes an existing backup.
type BackupInfo struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"created_at"`
}

// RestoreResult contains the outcome of a restore operation.
type RestoreResult struct {
	Imported   int            `json:"imported"`
	Skipped    int            `json:"skipped"`
	Errors     []RestoreError `json:"errors,omitempty"`
	DurationMS int64          `json:"duration_ms"`
}

// RestoreError describes a non-fatal error during restore.
type RestoreError struct {
	ReportID string `json:"report_id,omitempty"`
	Error    string `json:"error"`
}

// ValidationResult describes backup validity.
type ValidationResult struct {
	Valid          bool         `json:"valid"`
	Manifest       *Manifest    `json:"manifest,omitempty"`
	ExpectedCounts EntityCounts `json:"expected_counts"`
	Errors         []string     `json:"errors,omitempty"`
	Warnings       []string     `json:"warnings,omitempty"`
}
