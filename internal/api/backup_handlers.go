package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/espressoapp/espresso-server/internal/backup"
	domainerrors "github.com/espressoapp/espresso-server/internal/errors"
)

func (s *Server) registerBackupRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "createBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/backups",
		Summary:     "Create backup",
		Description: "Export all reports into a downloadable archive",
		Tags:        []string{"Backups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleCreateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBackups",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups",
		Summary:     "List backups",
		Tags:        []string{"Backups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListBackups)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBackup",
		Method:      http.MethodDelete,
		Path:        "/api/v1/backups/{id}",
		Summary:     "Delete backup",
		Tags:        []string{"Backups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "validateBackup",
		Method:      http.MethodGet,
		Path:        "/api/v1/backups/{id}/validate",
		Summary:     "Validate backup",
		Description: "Check archive integrity without importing anything",
		Tags:        []string{"Backups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleValidateBackup)

	huma.Register(s.api, huma.Operation{
		OperationID: "restoreBackup",
		Method:      http.MethodPost,
		Path:        "/api/v1/backups/{id}/restore",
		Summary:     "Restore backup",
		Description: "Import reports from an archive, full overwrite or per-report merge",
		Tags:        []string{"Backups"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleRestoreBackup)
}

// CreateBackupOutput wraps the backup result for Huma.
type CreateBackupOutput struct {
	Body backup.BackupResult
}

func (s *Server) handleCreateBackup(ctx context.Context, _ *struct{}) (*CreateBackupOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	result, err := s.backups.Create(ctx, backup.BackupOptions{})
	if err != nil {
		s.logger.Error("backup failed", "error", err)
		return nil, domainerrors.Internal("backup failed")
	}

	return &CreateBackupOutput{Body: *result}, nil
}

// ListBackupsOutput wraps the backup listing for Huma.
type ListBackupsOutput struct {
	Body struct {
		Backups []backup.BackupInfo `json:"backups"`
		Total   int                 `json:"total"`
	}
}

func (s *Server) handleListBackups(ctx context.Context, _ *struct{}) (*ListBackupsOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	backups, err := s.backups.List(ctx)
	if err != nil {
		s.logger.Error("list backups failed", "error", err)
		return nil, domainerrors.Internal("list backups failed")
	}

	out := &ListBackupsOutput{}
	out.Body.Backups = backups
	out.Body.Total = len(backups)
	return out, nil
}

// BackupIDInput identifies a backup archive.
type BackupIDInput struct {
	ID string `path:"id" maxLength:"128" doc:"Backup ID (archive file name without extension)"`
}

func (s *Server) handleDeleteBackup(ctx context.Context, input *BackupIDInput) (*struct{}, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	if err := s.backups.Delete(ctx, input.ID); err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, domainerrors.NotFound("backup not found")
		}
		s.logger.Error("delete backup failed", "backup_id", input.ID, "error", err)
		return nil, domainerrors.Internal("delete backup failed")
	}

	return nil, nil
}

// ValidateBackupOutput wraps the validation result for Huma.
type ValidateBackupOutput struct {
	Body backup.ValidationResult
}

func (s *Server) handleValidateBackup(ctx context.Context, input *BackupIDInput) (*ValidateBackupOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	info, err := s.backups.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, domainerrors.NotFound("backup not found")
		}
		return nil, domainerrors.Internal("validate backup failed")
	}

	result, err := s.restorer.Validate(ctx, info.Path)
	if err != nil {
		s.logger.Error("validate backup failed", "backup_id", input.ID, "error", err)
		return nil, domainerrors.Internal("validate backup failed")
	}

	return &ValidateBackupOutput{Body: *result}, nil
}

// RestoreBackupInput carries restore parameters.
type RestoreBackupInput struct {
	ID   string `path:"id" maxLength:"128" doc:"Backup ID"`
	Body struct {
		Mode          string `json:"mode" enum:"full,merge" doc:"Restore mode"`
		MergeStrategy string `json:"merge_strategy,omitempty" enum:",keep_local,keep_backup,newest" doc:"Conflict resolution for merge mode"`
		DryRun        bool   `json:"dry_run,omitempty" doc:"Validate and count without writing"`
	}
}

// RestoreBackupOutput wraps the restore result for Huma.
type RestoreBackupOutput struct {
	Body backup.RestoreResult
}

func (s *Server) handleRestoreBackup(ctx context.Context, input *RestoreBackupInput) (*RestoreBackupOutput, error) {
	if _, err := s.RequireUser(ctx); err != nil {
		return nil, err
	}

	opts := backup.RestoreOptions{
		Mode:          backup.RestoreMode(input.Body.Mode),
		MergeStrategy: backup.MergeStrategy(input.Body.MergeStrategy),
		DryRun:        input.Body.DryRun,
	}
	if !opts.Mode.Valid() {
		return nil, domainerrors.Validation("invalid restore mode")
	}
	if !opts.MergeStrategy.Valid() {
		return nil, domainerrors.Validation("invalid merge strategy")
	}

	info, err := s.backups.Get(ctx, input.ID)
	if err != nil {
		if errors.Is(err, backup.ErrBackupNotFound) {
			return nil, domainerrors.NotFound("backup not found")
		}
		return nil, domainerrors.Internal("restore failed")
	}

	result, err := s.restorer.Restore(ctx, info.Path, opts)
	if err != nil {
		s.logger.Error("restore failed", "backup_id", input.ID, "error", err)
		return nil, domainerrors.Internal("restore failed")
	}

	return &RestoreBackupOutput{Body: *result}, nil
}
