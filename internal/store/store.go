// Package store is the Local Store: a SQLite-backed key/value table of
// JSON documents keyed by logical document name. Reads and writes are
// synchronous; the store is the durability guarantee, the remote mirror is
// only best-effort replication on top of it.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// document is one row of the key/value table.
type document struct {
	Key       string `gorm:"primaryKey;size:191"`
	Value     []byte
	UpdatedAt time.Time
}

func (document) TableName() string { return "documents" }

// Store wraps the documents table.
type Store struct {
	db *gorm.DB
}

// Open opens the SQLite database, runs migrations and returns the store.
func Open(dsn string) (*Store, error) {
	if dsn == "" {
		dsn = "class_planner.db"
	}

	if err := ensureDirForSQLite(dsn); err != nil {
		return nil, err
	}
	dsn = withBusyTimeout(dsn)

	dbLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  logger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: dbLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := db.AutoMigrate(&document{}); err != nil {
		return nil, fmt.Errorf("migrate db: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Put marshals value as JSON and upserts it under key.
func (s *Store) Put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal document %q: %w", key, err)
	}
	return s.PutRaw(ctx, key, raw)
}

// PutRaw upserts an already-serialized document under key.
func (s *Store) PutRaw(ctx context.Context, key string, raw []byte) error {
	doc := document{Key: key, Value: raw, UpdatedAt: time.Now()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&doc).Error
	if err != nil {
		return fmt.Errorf("put document %q: %w", key, err)
	}
	return nil
}

// Get unmarshals the document under key into out. The second return is false
// when no document exists.
func (s *Store) Get(ctx context.Context, key string, out any) (bool, error) {
	raw, ok, err := s.GetRaw(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("unmarshal document %q: %w", key, err)
	}
	return true, nil
}

// GetRaw returns the serialized document under key, if any.
func (s *Store) GetRaw(ctx context.Context, key string) ([]byte, bool, error) {
	var doc document
	err := s.db.WithContext(ctx).First(&doc, "key = ?", key).Error
	switch {
	case err == nil:
		return doc.Value, true, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, false, nil
	default:
		return nil, false, fmt.Errorf("get document %q: %w", key, err)
	}
}

// Delete removes the document under key; deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&document{}, "key = ?", key).Error; err != nil {
		return fmt.Errorf("delete document %q: %w", key, err)
	}
	return nil
}

// withBusyTimeout makes concurrent writers wait out each other's locks
// instead of failing with "table is locked"; mirror writes and fired
// reminders hit the store from background goroutines.
func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "_busy_timeout") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_busy_timeout=5000"
	}
	return dsn + "?_busy_timeout=5000"
}

// ensureDirForSQLite creates the parent dir for the SQLite file if needed.
func ensureDirForSQLite(dsn string) error {
	if strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory") {
		return nil
	}
	clean := strings.TrimPrefix(dsn, "file:")
	clean = strings.Split(clean, "?")[0]
	dir := filepath.Dir(clean)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create db dir %q: %w", dir, err)
	}
	return nil
}
