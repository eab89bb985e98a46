package backup

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"time"

	"encoding/json/v2"

	"github.com/espressoapp/espresso-server/internal/backup/stream"
	"github.com/espressoapp/espresso-server/internal/domain"
	"github.com/espressoapp/espresso-server/internal/store"
)

// RestoreService restores report data from backup archives.
type RestoreService struct {
	store  store.Store
	logger *slog.Logger
}

// NewRestoreService creates a RestoreService.
func NewRestoreService(s store.Store, logger *slog.Logger) *RestoreService {
	return &RestoreService{
		store:  s,
		logger: logger,
	}
}

// Restore restores reports from a backup file.
//
// Full mode writes every backup report over the local set. Merge mode
// resolves per-report conflicts with the configured strategy. Restored
// reports keep their backup identity; timestamps on updated records are
// refreshed by the store.
func (s *RestoreService) Restore(ctx context.Context, path string, opts RestoreOptions) (*RestoreResult, error) {
	start := time.Now()

	if !opts.Mode.Valid() {
		return nil, fmt.Errorf("invalid restore mode %q", opts.Mode)
	}
	if !opts.MergeStrategy.Valid() {
		return nil, fmt.Errorf("invalid merge strategy %q", opts.MergeStrategy)
	}

	s.logger.Info("starting restore",
		"path", path,
		"mode", opts.Mode,
		"merge_strategy", opts.MergeStrategy,
		"dry_run", opts.DryRun)

	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open backup: %w", err)
	}
	defer zr.Close()

	manifest, err := readManifest(zr)
	if err != nil {
		return nil, err
	}
	if manifest.Version != FormatVersion {
		return nil, fmt.Errorf("%w: version %s (want %s)", ErrVersionMismatch, manifest.Version, FormatVersion)
	}

	rc, err := stream.OpenFile(zr, "entities/reports.jsonl")
	if err != nil {
		return nil, fmt.Errorf("%w: missing entities/reports.jsonl", ErrCorruptedBackup)
	}

	result := &RestoreResult{}
	reader := stream.NewReader[domain.Report](rc)
	for report, err := range reader.All() {
		if err != nil {
			result.Errors = append(result.Errors, RestoreError{Error: err.Error()})
			continue
		}
		if report.ID == "" {
			result.Errors = append(result.Errors, RestoreError{Error: "report with empty id"})
			continue
		}

		if err := s.restoreReport(ctx, &report, opts, result); err != nil {
			result.Errors = append(result.Errors, RestoreError{
				ReportID: report.ID,
				Error:    err.Error(),
			})
		}
	}

	if processed := result.Imported + result.Skipped; processed != manifest.Counts.Reports {
		s.logger.Warn("restore count differs from manifest",
			"processed", processed,
			"manifest", manifest.Counts.Reports)
	}

	duration := time.Since(start)
	result.DurationMS = duration.Milliseconds()

	s.logger.Info("restore complete",
		"imported", result.Imported,
		"skipped", result.Skipped,
		"errors", len(result.Errors),
		"duration", duration)

	return result, nil
}

// restoreReport applies one backup report against the local store,
// honoring mode and merge strategy.
func (s *RestoreService) restoreReport(ctx context.Context, report *domain.Report, opts RestoreOptions, result *RestoreResult) error {
	local, err := s.store.GetReport(ctx, report.ID)
	if err != nil && !store.IsNotFound(err) {
		return fmt.Errorf("lookup report: %w", err)
	}
	exists := err == nil

	write := true
	if exists && opts.Mode == RestoreModeMerge {
		switch opts.MergeStrategy {
		case MergeKeepLocal:
			write = false
		case MergeKeepBackup:
			write = true
		case MergeNewest, "":
			write = report.UpdatedAt.After(local.UpdatedAt)
		}
	}

	if !write {
		result.Skipped++
		return nil
	}

	result.Imported++
	if opts.DryRun {
		return nil
	}

	if exists {
		return s.store.UpdateReport(ctx, report)
	}
	return s.store.CreateReport(ctx, report)
}

// Validate checks a backup without importing.
func (s *RestoreService) Validate(ctx context.Context, path string) (*ValidationResult, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return &ValidationResult{
			Valid:  false,
			Errors: []string{fmt.Sprintf("failed to open backup: %v", err)},
		}, nil
	}
	defer zr.Close()

	result := &ValidationResult{
		Valid: true,
	}

	manifest, err := readManifest(zr)
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, err.Error())
		return result, nil
	}

	result.Manifest = manifest
	result.ExpectedCounts = manifest.Counts

	if manifest.Version != FormatVersion {
		result.Valid = false
		result.Errors = append(result.Errors,
			fmt.Sprintf("unsupported version %s (want %s)", manifest.Version, FormatVersion))
	}

	rc, err := stream.OpenFile(zr, "entities/reports.jsonl")
	if err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, "missing entities/reports.jsonl")
		return result, nil
	}

	count := 0
	reader := stream.NewReader[domain.Report](rc)
	for _, err := range reader.All() {
		if err != nil {
			result.Warnings = append(result.Warnings, fmt.Sprintf("unreadable report line: %v", err))
			continue
		}
		count++
	}

	if count != manifest.Counts.Reports {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("report count %d differs from manifest %d", count, manifest.Counts.Reports))
	}

	return result, nil
}

// readManifest reads and decodes manifest.json from an open archive.
func readManifest(zr *zip.ReadCloser) (*Manifest, error) {
	rc, err := stream.OpenFile(zr, "manifest.json")
	if err != nil {
		return nil, fmt.Errorf("%w: missing manifest.json", ErrInvalidManifest)
	}
	defer rc.Close()

	var manifest Manifest
	if err := json.UnmarshalRead(rc, &manifest); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidManifest, err)
	}
	return &manifest, nil
}
