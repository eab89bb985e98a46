package domain

import "time"

// Tag represents a named label in the remote store's tag table.
// Name carries the display form, marker included ("#golang").
// Tag rows are append-only: removing a tag from every report leaves
// the row in place so the label keeps its identity if it comes back.
type Tag struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// ReportTag represents the many-to-many relationship between reports and tags.
type ReportTag struct {
	ReportID  string    `json:"report_id"`
	TagID     string    `json:"tag_id"`
	CreatedAt time.Time `json:"created_at"`
}
