package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/sse"
	"github.com/espressoapp/espresso-server/internal/store"
)

// reportColumns is the ordered list of columns selected in report queries.
// Must match the scan order in scanReport.
const reportColumns = `id, created_at, updated_at, deleted_at, title, content,
	summary, category, author, publish_date`

// scanReport scans a sql.Row (or sql.Rows via its Scan method) into a domain.Report.
// Tags are not populated here; callers attach them separately.
func scanReport(scanner interface{ Scan(dest ...any) error }) (*domain.Report, error) {
	var r domain.Report

	var (
		createdAt string
		updatedAt string
		deletedAt sql.NullString
	)

	err := scanner.Scan(
		&r.ID,
		&createdAt,
		&updatedAt,
		&deletedAt,
		&r.Title,
		&r.Content,
		&r.Summary,
		&r.Category,
		&r.Author,
		&r.PublishDate,
	)
	if err != nil {
		return nil, err
	}

	r.CreatedAt, err = parseTime(createdAt)
	if err != nil {
		return nil, err
	}
	r.UpdatedAt, err = parseTime(updatedAt)
	if err != nil {
		return nil, err
	}
	r.DeletedAt, err = parseNullableTime(deletedAt)
	if err != nil {
		return nil, err
	}

	return &r, nil
}

// CreateReport inserts a new report along with its tag associations.
// Returns store.ErrAlreadyExists if the report ID already exists.
func (s *Store) CreateReport(ctx context.Context, report *domain.Report) error {
	tagIDs, err := s.resolveTags(ctx, report.Tags)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO reports (
			id, created_at, updated_at, deleted_at, title, content,
			summary, category, author, publish_date
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		formatTime(report.CreatedAt),
		formatTime(report.UpdatedAt),
		nullTimeString(report.DeletedAt),
		report.Title,
		report.Content,
		report.Summary,
		report.Category,
		report.Author,
		report.PublishDate,
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return store.ErrAlreadyExists
		}
		return err
	}

	if err := insertReportTags(ctx, tx, report.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.emitter.Emit(sse.NewReportCreatedEvent(report))
	s.emitTagsChanged(ctx)
	s.indexAsync(report)

	return nil
}

// GetReport retrieves a report by ID with its tags attached.
// Returns store.ErrNotFound if the report does not exist.
func (s *Store) GetReport(ctx context.Context, id string) (*domain.Report, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE id = ? AND deleted_at IS NULL`, id)

	r, err := scanReport(row)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := s.attachTags(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// UpdateReport performs a full row update and replaces the tag set.
// Returns store.ErrNotFound if the report does not exist.
func (s *Store) UpdateReport(ctx context.Context, report *domain.Report) error {
	report.Touch()

	tagIDs, err := s.resolveTags(ctx, report.Tags)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		UPDATE reports SET
			updated_at = ?, title = ?, content = ?, summary = ?,
			category = ?, author = ?, publish_date = ?
		WHERE id = ? AND deleted_at IS NULL`,
		formatTime(report.UpdatedAt),
		report.Title,
		report.Content,
		report.Summary,
		report.Category,
		report.Author,
		report.PublishDate,
		report.ID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}

	// Replace tag associations; tag rows themselves are never removed.
	if _, err := tx.ExecContext(ctx, `DELETE FROM report_tags WHERE report_id = ?`, report.ID); err != nil {
		return fmt.Errorf("delete report_tags: %w", err)
	}
	if err := insertReportTags(ctx, tx, report.ID, tagIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}

	s.emitter.Emit(sse.NewReportUpdatedEvent(report))
	s.emitTagsChanged(ctx)
	s.indexAsync(report)

	return nil
}

// DeleteReport removes a report. Associations cascade; tag rows stay.
func (s *Store) DeleteReport(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM reports WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete report: %w", err)
	}

	s.emitter.Emit(sse.NewReportDeletedEvent(id, time.Now()))
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

// ListReports returns all reports with tags attached, newest first.
func (s *Store) ListReports(ctx context.Context) ([]*domain.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reportColumns+` FROM reports WHERE deleted_at IS NULL
		 ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reports []*domain.Report
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, r := range reports {
		if err := s.attachTags(ctx, r); err != nil {
			return nil, err
		}
	}

	return reports, nil
}

// CountReports returns the number of reports.
func (s *Store) CountReports(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM reports WHERE deleted_at IS NULL`).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// attachTags loads the tag display names for a report, in stored order.
func (s *Store) attachTags(ctx context.Context, report *domain.Report) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT t.name FROM report_tags rt
		JOIN tags t ON t.id = rt.tag_id
		WHERE rt.report_id = ?
		ORDER BY rt.position ASC`, report.ID)
	if err != nil {
		return fmt.Errorf("query report tags: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return err
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	report.Tags = names
	return nil
}

// resolveTags maps tag display names to tag IDs, creating rows as needed.
func (s *Store) resolveTags(ctx context.Context, names []string) ([]string, error) {
	tagIDs := make([]string, 0, len(names))
	for _, name := range names {
		tag, _, err := s.FindOrCreateTagByName(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("resolve tag %q: %w", name, err)
		}
		tagIDs = append(tagIDs, tag.ID)
	}
	return tagIDs, nil
}

// insertReportTags inserts report_tags rows preserving tag order.
func insertReportTags(ctx context.Context, tx *sql.Tx, reportID string, tagIDs []string) error {
	now := formatTime(time.Now().UTC())
	for i, tagID := range tagIDs {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO report_tags (report_id, tag_id, position, created_at)
			VALUES (?, ?, ?, ?)`,
			reportID,
			tagID,
			i,
			now,
		)
		if err != nil {
			return fmt.Errorf("insert report_tag: %w", err)
		}
	}
	return nil
}

// emitTagsChanged broadcasts the current tag vocabulary.
func (s *Store) emitTagsChanged(ctx context.Context) {
	tags, err := s.ListTagNames(ctx)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to list tag vocabulary", "error", err)
		}
		return
	}
	s.emitter.Emit(sse.NewTagsChangedEvent(tags))
}

// indexAsync reindexes a report for search without blocking the caller.
func (s *Store) indexAsync(report *domain.Report) {
	if s.searchIndexer == nil {
		return
	}
	go func() {
		if err := s.searchIndexer.IndexReport(context.Background(), report); err != nil {
			if s.logger != nil {
				s.logger.Warn("failed to index report for search", "report_id", report.ID, "error", err)
			}
		}
	}()
}
