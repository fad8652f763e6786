package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"
)

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9\-_.]`)

// ExportRecord is one entry of the export log
type ExportRecord struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Rows      int       `json:"rows"`
	CreatedAt time.Time `json:"created_at"`
}

// ExportStorage writes exported files under a base directory and logs them
type ExportStorage struct {
	baseDir string
	store   *LocalStore
	logger  *zap.Logger
}

// NewExportStorage creates an export storage rooted at baseDir. store may be nil to skip logging.
func NewExportStorage(baseDir string, store *LocalStore, logger *zap.Logger) *ExportStorage {
	return &ExportStorage{
		baseDir: baseDir,
		store:   store,
		logger:  logger,
	}
}

// BaseDir returns the export root
func (s *ExportStorage) BaseDir() string {
	return s.baseDir
}

// Save writes content to baseDir/name and records it in the export log.
// name is sanitized so it can never leave the base directory.
func (s *ExportStorage) Save(ctx context.Context, kind, name string, content []byte, rows int) (string, error) {
	fullPath := filepath.Join(s.baseDir, SanitizeFileName(name))
	if err := s.ValidatePath(fullPath); err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		s.logger.Error("Failed to create export directory",
			zap.String("path", s.baseDir),
			zap.Error(err))
		return "", fmt.Errorf("failed to create directories: %w", err)
	}

	if err := os.WriteFile(fullPath, content, 0o644); err != nil {
		s.logger.Error("Failed to write export",
			zap.String("path", fullPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to write file: %w", err)
	}

	if s.store != nil {
		if _, err := s.store.DB().ExecContext(ctx,
			`INSERT INTO export_log (kind, path, rows) VALUES (?, ?, ?)`, kind, fullPath, rows); err != nil {
			return "", fmt.Errorf("failed to record export: %w", err)
		}
	}

	s.logger.Info("Export written",
		zap.String("kind", kind),
		zap.String("path", fullPath),
		zap.Int("rows", rows),
		zap.Int("size", len(content)))
	return fullPath, nil
}

// Recent lists the most recent exports, newest first
func (s *ExportStorage) Recent(ctx context.Context, limit int) ([]ExportRecord, error) {
	if s.store == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.store.DB().QueryContext(ctx,
		`SELECT id, kind, path, rows, created_at FROM export_log ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list exports: %w", err)
	}
	defer rows.Close()

	var out []ExportRecord
	for rows.Next() {
		var r ExportRecord
		if err := rows.Scan(&r.ID, &r.Kind, &r.Path, &r.Rows, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ValidatePath checks that the path is safe and within baseDir
func (s *ExportStorage) ValidatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}
	return nil
}

// SanitizeFileName returns a filesystem-safe version of name.
// Path separators and parent references are removed; an empty result becomes "export".
func SanitizeFileName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = strings.TrimLeft(name, ".")
	if name == "" {
		return "export"
	}
	return name
}
