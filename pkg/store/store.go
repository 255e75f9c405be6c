// Package store implements the IndexStore: a durable, transactional
// relational store of IndexedObject, PrefixStatus, and BucketInfo rows for
// one profile, with batch upserts, prefix synchronization, statistics, and
// completeness queries.
//
// It connects through gorm + glebarez/sqlite (pure Go, no cgo), with WAL
// journaling and a busy_timeout pragma for safe concurrent access from the
// connection pool.
package store

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
)

// IndexStore is a per-profile embedded relational index.
type IndexStore struct {
	db      *gorm.DB
	profile string
	cfg     Config
}

// Open connects to (creating if absent) the sqlite file at cfg.Path for the
// given profile, applies schema migrations, and returns a ready IndexStore.
func Open(profile string, cfg Config) (*IndexStore, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
			return nil, errs.Wrap(errs.DatabaseError, "create index store directory", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "open index store", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errs.Wrap(errs.DatabaseError, "access underlying sql.DB", err)
	}
	// sqlite only supports one writer; keep the pool small and let
	// busy_timeout absorb brief contention instead of queuing Go-side.
	sqlDB.SetMaxOpenConns(1)

	if err := runMigrations(sqlDB); err != nil {
		return nil, err
	}

	return &IndexStore{db: db, profile: profile, cfg: cfg}, nil
}

// Close releases the underlying database handle.
func (s *IndexStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return errs.Wrap(errs.DatabaseError, "access underlying sql.DB", err)
	}
	if err := sqlDB.Close(); err != nil {
		return errs.Wrap(errs.DatabaseError, "close index store", err)
	}
	return nil
}

// DB exposes the underlying *gorm.DB for advanced queries and tests.
func (s *IndexStore) DB() *gorm.DB { return s.db }

// DefaultStaleHours returns the configured default window for
// PurgeStaleObjects when a caller wants the store's own default.
func (s *IndexStore) DefaultStaleHours() int { return s.cfg.StaleObjectHours }

func isUniqueConstraintErr(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// wrapWriteErr classifies a write failure: constraint violations surface
// as ValidationError, everything else as DatabaseError.
func wrapWriteErr(op string, err error) *errs.Error {
	if isUniqueConstraintErr(err) {
		return errs.Wrap(errs.ValidationError, op, err)
	}
	return errs.Wrap(errs.DatabaseError, op, err)
}
