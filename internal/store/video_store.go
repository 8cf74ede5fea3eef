// Package store persists uploaded video metadata in SQLite and keeps the
// process-scoped fingerprint cache.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/imi6/dandan/internal/structures"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// Video is one uploaded file.
type Video struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Ext       string `json:"ext"`
	Size      int64  `json:"size"`
	Path      string `json:"path"`
	CreatedAt string `json:"createdAt"`
}

type VideoStoreInterface interface {
	Insert(ctx context.Context, v *Video) error
	Get(ctx context.Context, id string) (*Video, error)
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
	Close() error
}

// VideoStore manages video metadata backed by SQLite.
type VideoStore struct {
	db   *sql.DB
	path string
}

// NewVideoStore initializes or connects to the video database.
func NewVideoStore(conf *structures.Config) (VideoStoreInterface, error) {
	if err := os.MkdirAll(filepath.Dir(conf.Database.Path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure database dir: %w", err)
	}

	db, err := sql.Open("sqlite", conf.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	vs := &VideoStore{db: db, path: conf.Database.Path}
	if err := vs.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return vs, nil
}

func (vs *VideoStore) initSchema(ctx context.Context) error {
	if _, err := vs.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	var version int
	err := vs.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version)
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = vs.db.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion)
		return err
	case err != nil:
		return fmt.Errorf("read schema version: %w", err)
	case version != schemaVersion:
		return fmt.Errorf("%w: database has version %d, expected %d", ErrSchemaMismatch, version, schemaVersion)
	}
	return nil
}

func (vs *VideoStore) Insert(ctx context.Context, v *Video) error {
	if v.CreatedAt == "" {
		v.CreatedAt = time.Now().UTC().Format(time.RFC3339Nano)
	}
	_, err := vs.db.ExecContext(
		ctx,
		"INSERT INTO videos (id, name, ext, size, path, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		v.ID, v.Name, v.Ext, v.Size, v.Path, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert video: %w", err)
	}
	return nil
}

// Get returns the video row or nil when no row matches.
func (vs *VideoStore) Get(ctx context.Context, id string) (*Video, error) {
	var v Video
	err := vs.db.QueryRowContext(
		ctx,
		"SELECT id, name, ext, size, path, created_at FROM videos WHERE id = ?",
		id,
	).Scan(&v.ID, &v.Name, &v.Ext, &v.Size, &v.Path, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select video: %w", err)
	}
	return &v, nil
}

func (vs *VideoStore) Delete(ctx context.Context, id string) error {
	_, err := vs.db.ExecContext(ctx, "DELETE FROM videos WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete video: %w", err)
	}
	return nil
}

func (vs *VideoStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := vs.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM videos").Scan(&count); err != nil {
		return 0, fmt.Errorf("count videos: %w", err)
	}
	return count, nil
}

// Close closes the underlying database connection.
func (vs *VideoStore) Close() error {
	if vs == nil || vs.db == nil {
		return nil
	}
	return vs.db.Close()
}
