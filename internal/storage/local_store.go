package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/garyjia/payroll-console/internal/domain/entity"
	"github.com/garyjia/payroll-console/pkg/database"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// Keys used in the local store
const (
	KeyToken = "token"
	KeyUser  = "user"
)

// ErrNotFound is returned when a key is absent
var ErrNotFound = errors.New("key not found")

// LocalStore is a small persistent key/value store backed by SQLite
type LocalStore struct {
	db     *database.DB
	logger *zap.Logger
}

// Open opens (and migrates) the local store database
func Open(cfg database.Config, logger *zap.Logger) (*LocalStore, error) {
	db, err := database.New(cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}
	return NewLocalStore(db, logger), nil
}

// Migrate applies the embedded schema
func Migrate(db *database.DB, logger *zap.Logger) error {
	if err := database.NewMigrator(db, logger).Run(migrationFS, "migrations"); err != nil {
		return fmt.Errorf("failed to migrate local store: %w", err)
	}
	return nil
}

// NewLocalStore wraps an already migrated database
func NewLocalStore(db *database.DB, logger *zap.Logger) *LocalStore {
	return &LocalStore{db: db, logger: logger}
}

// DB exposes the underlying database
func (s *LocalStore) DB() *database.DB {
	return s.db
}

// Close closes the database
func (s *LocalStore) Close() error {
	return s.db.Close()
}

// Get returns the value stored under key, or ErrNotFound
func (s *LocalStore) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM local_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}

// Set stores value under key, replacing any previous value
func (s *LocalStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO local_store (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		key, value)
	if err != nil {
		return fmt.Errorf("failed to write %s: %w", key, err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *LocalStore) Delete(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM local_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}

// LoadToken returns the persisted bearer token, or "" when none is stored
func (s *LocalStore) LoadToken(ctx context.Context) (string, error) {
	token, err := s.Get(ctx, KeyToken)
	if errors.Is(err, ErrNotFound) {
		return "", nil
	}
	return token, err
}

// SaveToken persists the bearer token
func (s *LocalStore) SaveToken(ctx context.Context, token string) error {
	return s.Set(ctx, KeyToken, token)
}

// ClearToken removes the token and the cached user together
func (s *LocalStore) ClearToken(ctx context.Context) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM local_store WHERE key IN (?, ?)`, KeyToken, KeyUser); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	})
}

// SaveUser caches the signed-in user record
func (s *LocalStore) SaveUser(ctx context.Context, user *entity.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return s.Set(ctx, KeyUser, string(b))
}

// LoadUser returns the cached user record, or nil when none is stored
func (s *LocalStore) LoadUser(ctx context.Context) (*entity.User, error) {
	raw, err := s.Get(ctx, KeyUser)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var user entity.User
	if err := json.Unmarshal([]byte(raw), &user); err != nil {
		s.logger.Warn("Discarding unreadable cached user", zap.Error(err))
		return nil, nil
	}
	return &user, nil
}
