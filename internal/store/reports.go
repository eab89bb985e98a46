package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/normalize"
	"github.com/espressoapp/espresso-server/internal/sse"
)

// Report Operations

// CreateReport creates a new report.
// Tags on the report are expected to be normalized display forms already.
func (s *BadgerStore) CreateReport(ctx context.Context, report *domain.Report) error {
	if err := s.Reports.Create(ctx, report.ID, report); err != nil {
		return fmt.Errorf("create report: %w", err)
	}

	s.eventEmitter.Emit(sse.NewReportCreatedEvent(report))
	s.emitTagsChanged(ctx)

	// Index for search asynchronously
	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.IndexReport(context.Background(), report); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to index report for search", "report_id", report.ID, "error", err)
				}
			}
		}()
	}

	return nil
}

// GetReport retrieves a report by ID.
func (s *BadgerStore) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	report, err := s.Reports.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.IsDeleted() {
		return nil, ErrNotFound
	}
	return report, nil
}

// UpdateReport updates an existing report.
func (s *BadgerStore) UpdateReport(ctx context.Context, report *domain.Report) error {
	report.Touch()

	if err := s.Reports.Update(ctx, report.ID, report); err != nil {
		return fmt.Errorf("update report: %w", err)
	}

	s.eventEmitter.Emit(sse.NewReportUpdatedEvent(report))
	s.emitTagsChanged(ctx)

	// Reindex for search asynchronously
	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.IndexReport(context.Background(), report); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to reindex report for search", "report_id", report.ID, "error", err)
				}
			}
		}()
	}

	return nil
}

// DeleteReport removes a report. The delete is a hard delete, the record
// and its search index entry are both dropped.
func (s *BadgerStore) DeleteReport(ctx context.Context, id string) error {
	if err := s.Reports.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.eventEmitter.Emit(sse.NewReportDeletedEvent(id, time.Now()))
	s.emitTagsChanged(ctx)

	if s.searchIndexer != nil {
		go func() {
			if err := s.searchIndexer.DeleteReport(context.Background(), id); err != nil {
				if s.logger != nil {
					s.logger.Warn("failed to remove report from search index", "report_id", id, "error", err)
				}
			}
		}()
	}

	return nil
}

// ListReports returns all reports, newest first.
func (s *BadgerStore) ListReports(ctx context.Context) ([]*domain.Report, error) {
	var reports []*domain.Report

	for report, err := range s.Reports.List(ctx) {
		if err != nil {
			return nil, fmt.Errorf("list reports: %w", err)
		}
		if report.IsDeleted() {
			continue
		}
		reports = append(reports, report)
	}

	sort.Slice(reports, func(i, j int) bool {
		if reports[i].CreatedAt.Equal(reports[j].CreatedAt) {
			return reports[i].ID > reports[j].ID
		}
		return reports[i].CreatedAt.After(reports[j].CreatedAt)
	})

	return reports, nil
}

// CountReports returns the number of reports.
func (s *BadgerStore) CountReports(ctx context.Context) (int, error) {
	count := 0
	for report, err := range s.Reports.List(ctx) {
		if err != nil {
			return 0, fmt.Errorf("count reports: %w", err)
		}
		if report.IsDeleted() {
			continue
		}
		count++
	}
	return count, nil
}

// ListTagNames returns the tag vocabulary derived from all reports.
// First occurrence wins on conflicting spellings, matching the order
// reports were stored in.
func (s *BadgerStore) ListTagNames(ctx context.Context) ([]string, error) {
	reports, err := s.ListReports(ctx)
	if err != nil {
		return nil, err
	}

	tagSets := make([][]string, 0, len(reports))
	for _, report := range reports {
		tagSets = append(tagSets, report.Tags)
	}

	return normalize.DeriveVocabulary(tagSets...), nil
}

// emitTagsChanged broadcasts the current tag vocabulary.
// Report mutations are the only way the vocabulary changes.
func (s *BadgerStore) emitTagsChanged(ctx context.Context) {
	tags, err := s.ListTagNames(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to derive tag vocabulary", "error", err)
		}
		return
	}
	s.eventEmitter.Emit(sse.NewTagsChangedEvent(tags))
}
