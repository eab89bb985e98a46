// Package search provides full-text report search using Bleve.
// The index covers title, summary, body text, category, and tags, and
// is kept in sync by the stores through the SearchIndexer interface.
package search

import (
	"github.com/espressoapp/espresso-server/internal/domain"
)

// SearchDocument is the Bleve document for a report.
type SearchDocument struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Summary  string   `json:"summary,omitempty"`
	Content  string   `json:"content,omitempty"`
	Category string   `json:"category"`
	Author   string   `json:"author"`
	Tags     []string `json:"tags,omitempty"`

	// Timestamps for sorting, Unix millis.
	CreatedAt int64 `json:"created_at"`
	UpdatedAt int64 `json:"updated_at"`
}

// ToMap converts the document to a map with lowercase field names.
// Bleve by default uses Go struct field names (capitalized), but the
// mapping uses lowercase names, so we convert explicitly.
func (d *SearchDocument) ToMap() map[string]interface{} {
	m := map[string]interface{}{
		"id":         d.ID,
		"title":      d.Title,
		"category":   d.Category,
		"author":     d.Author,
		"created_at": d.CreatedAt,
		"updated_at": d.UpdatedAt,
	}
	if d.Summary != "" {
		m["summary"] = d.Summary
	}
	if d.Content != "" {
		m["content"] = d.Content
	}
	if len(d.Tags) > 0 {
		m["tags"] = d.Tags
	}
	return m
}

// DocumentFromReport builds the search document for a report.
func DocumentFromReport(report *domain.Report) *SearchDocument {
	return &SearchDocument{
		ID:        report.ID,
		Title:     report.Title,
		Summary:   report.Summary,
		Content:   report.Content,
		Category:  report.Category,
		Author:    report.Author,
		Tags:      report.Tags,
		CreatedAt: report.CreatedAt.UnixMilli(),
		UpdatedAt: report.UpdatedAt.UnixMilli(),
	}
}
