package backup

import (
	"archive/zip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"encoding/json/v2"

	"github.com/google/uuid"

	"github.com/espressoapp/espresso-server/internal/backup/stream"
	"github.com/espressoapp/espresso-server/internal/store"
)

// backupExt is the file suffix every Espresso backup archive carries.
const backupExt = ".espresso.zip"

// BackupService manages backup creation and listing.
type BackupService struct {
	store      store.Store
	backupDir  string
	serverName string
	version    string
	logger     *slog.Logger
}

// NewBackupService creates a BackupService.
func NewBackupService(s store.Store, backupDir, serverName, version string, logger *slog.Logger) *BackupService {
	return &BackupService{
		store:      s,
		backupDir:  backupDir,
		serverName: serverName,
		version:    version,
		logger:     logger,
	}
}

// Create creates a new backup archive containing a manifest and the
// full live report set as JSONL.
func (s *BackupService) Create(ctx context.Context, opts BackupOptions) (*BackupResult, error) {
	start := time.Now()

	if err := os.MkdirAll(s.backupDir, 0o755); err != nil {
		return nil, fmt.Errorf("create backup dir: %w", err)
	}

	outputPath := opts.OutputPath
	if outputPath == "" {
		timestamp := time.Now().Format("2006-01-02-150405")
		outputPath = filepath.Join(s.backupDir, fmt.Sprintf("backup-%s%s", timestamp, backupExt))
	}

	s.logger.Info("creating backup", "output", outputPath)

	reports, err := s.store.ListReports(ctx)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	tags, err := s.store.ListTagNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}

	f, err := os.Create(outputPath)
	if err != nil {
		return nil, fmt.Errorf("create backup file: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	zw := zip.NewWriter(io.MultiWriter(f, hasher))

	rw, err := stream.NewWriter(zw, "entities/reports.jsonl")
	if err != nil {
		return nil, fmt.Errorf("create reports stream: %w", err)
	}

	var checkpoint time.Time
	for _, report := range reports {
		if err := rw.Write(report); err != nil {
			return nil, fmt.Errorf("write report %s: %w", report.ID, err)
		}
		if report.UpdatedAt.After(checkpoint) {
			checkpoint = report.UpdatedAt
		}
	}

	manifest := Manifest{
		Version:         FormatVersion,
		BackupID:        uuid.New().String(),
		CreatedAt:       time.Now(),
		ServerName:      s.serverName,
		EspressoVersion: s.version,
		Checkpoint:      checkpoint,
		Counts: EntityCounts{
			Reports: rw.Count(),
			Tags:    len(tags),
		},
	}

	mw, err := zw.Create("manifest.json")
	if err != nil {
		return nil, fmt.Errorf("create manifest entry: %w", err)
	}
	if err := json.MarshalWrite(mw, manifest); err != nil {
		return nil, fmt.Errorf("write manifest: %w", err)
	}

	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("finalize archive: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("close backup file: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return nil, fmt.Errorf("stat backup file: %w", err)
	}

	duration := time.Since(start)
	result := &BackupResult{
		Path:       outputPath,
		Size:       info.Size(),
		Counts:     manifest.Counts,
		DurationMS: duration.Milliseconds(),
		Checksum:   hex.EncodeToString(hasher.Sum(nil)),
	}

	s.logger.Info("backup complete",
		"path", result.Path,
		"size", result.Size,
		"reports", result.Counts.Reports,
		"duration", duration,
		"checksum", result.Checksum)

	return result, nil
}

// List returns all available backups, newest first.
func (s *BackupService) List(ctx context.Context) ([]BackupInfo, error) {
	entries, err := os.ReadDir(s.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var backups []BackupInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !strings.HasSuffix(entry.Name(), backupExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		backups = append(backups, BackupInfo{
			ID:        strings.TrimSuffix(entry.Name(), backupExt),
			Path:      filepath.Join(s.backupDir, entry.Name()),
			Size:      info.Size(),
			CreatedAt: info.ModTime(),
		})
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})

	return backups, nil
}

// Get returns a backup by ID.
func (s *BackupService) Get(ctx context.Context, id string) (*BackupInfo, error) {
	path := s.GetPath(id)

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBackupNotFound
		}
		return nil, err
	}

	return &BackupInfo{
		ID:        id,
		Path:      path,
		Size:      info.Size(),
		CreatedAt: info.ModTime(),
	}, nil
}

// Delete removes a backup.
func (s *BackupService) Delete(ctx context.Context, id string) error {
	path := s.GetPath(id)

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return ErrBackupNotFound
		}
		return err
	}

	return os.Remove(path)
}

// GetPath returns the file path for a backup ID.
func (s *BackupService) GetPath(id string) string {
	return filepath.Join(s.backupDir, id+backupExt)
}
