package state

import (
	"context"
	"slices"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/id"
	"github.com/espressoapp/espresso-server/internal/normalize"
	"github.com/espressoapp/espresso-server/internal/store"
)

// ReportDraft is the payload for creating a report. Tags may be raw
// user input; they are canonicalized and deduplicated on the way in.
type ReportDraft struct {
	Title       string
	Content     string
	Summary     string
	Category    string
	Author      string
	PublishDate string
	Tags        []string
}

// ReportPatch is a partial update. Nil fields are left untouched.
// A non-nil Tags replaces the report's tag associations in full.
type ReportPatch struct {
	Title       *string
	Content     *string
	Summary     *string
	Category    *string
	PublishDate *string
	Tags        []string
}

// AddReport assigns an id, canonicalizes tags, persists the report,
// prepends it to the in-memory collection, and navigates to the
// listing. Persistence failure is a logged no-op: nil is returned,
// nothing mutates, no navigation fires.
func (m *Manager) AddReport(ctx context.Context, draft ReportDraft) *domain.Report {
	reportID, err := id.Generate("rpt")
	if err != nil {
		if m.logger != nil {
			m.logger.Error("failed to generate report id", "error", err)
		}
		return nil
	}

	author := draft.Author
	if author == "" {
		if u := m.CurrentUser(); u != nil {
			author = u.Name()
		}
	}

	report := &domain.Report{
		Title:       draft.Title,
		Content:     draft.Content,
		Summary:     draft.Summary,
		Category:    draft.Category,
		Author:      author,
		PublishDate: draft.PublishDate,
		Tags:        normalize.Dedupe(draft.Tags),
	}
	report.ID = reportID
	report.InitTimestamps()

	if err := m.store.CreateReport(ctx, report); err != nil {
		if m.logger != nil {
			m.logger.Error("failed to add report", "report_id", report.ID, "error", err)
		}
		return nil
	}

	m.mu.Lock()
	m.reports = append([]*domain.Report{report}, m.reports...)
	m.mu.Unlock()

	m.refreshTags(ctx)
	m.enterListing()
	return report
}

// UpdateReport merges the patch into the report identified by id,
// persists, updates in-memory state, and navigates to the detail
// view. An unknown id is a no-op that still navigates. Persistence
// failure is a logged no-op with no navigation.
func (m *Manager) UpdateReport(ctx context.Context, reportID string, patch ReportPatch) *domain.Report {
	m.mu.RLock()
	var existing *domain.Report
	for _, r := range m.reports {
		if r.ID == reportID {
			existing = r
			break
		}
	}
	m.mu.RUnlock()

	if existing == nil {
		if m.logger != nil {
			m.logger.Warn("update of unknown report", "report_id", reportID)
		}
		m.nav.ToDetail(reportID)
		return nil
	}

	updated := *existing
	updated.Tags = slices.Clone(existing.Tags)
	if patch.Title != nil {
		updated.Title = *patch.Title
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	if patch.Summary != nil {
		updated.Summary = *patch.Summary
	}
	if patch.Category != nil {
		updated.Category = *patch.Category
	}
	if patch.PublishDate != nil {
		updated.PublishDate = *patch.PublishDate
	}
	if patch.Tags != nil {
		updated.Tags = normalize.Dedupe(patch.Tags)
	}
	updated.Touch()

	if err := m.store.UpdateReport(ctx, &updated); err != nil {
		if m.logger != nil {
			m.logger.Error("failed to update report", "report_id", reportID, "error", err)
		}
		return nil
	}

	m.mu.Lock()
	for i, r := range m.reports {
		if r.ID == reportID {
			m.reports[i] = &updated
			break
		}
	}
	m.mu.Unlock()

	m.refreshTags(ctx)
	m.nav.ToDetail(reportID)
	return &updated
}

// DeleteReport removes the report from persistence and memory, then
// navigates to the listing. An unknown id is a benign no-op that
// still navigates.
func (m *Manager) DeleteReport(ctx context.Context, reportID string) {
	if err := m.store.DeleteReport(ctx, reportID); err != nil && !store.IsNotFound(err) {
		if m.logger != nil {
			m.logger.Error("failed to delete report", "report_id", reportID, "error", err)
		}
		return
	}

	m.mu.Lock()
	for i, r := range m.reports {
		if r.ID == reportID {
			m.reports = append(m.reports[:i], m.reports[i+1:]...)
			break
		}
	}
	m.mu.Unlock()

	m.refreshTags(ctx)
	m.enterListing()
}
