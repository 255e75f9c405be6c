package store

import (
	"database/sql"
	"fmt"

	"github.com/AccessDevops/S3Explorer/pkg/errs"
	"github.com/AccessDevops/S3Explorer/pkg/store/migrations"
)

// runMigrations applies any embedded migration files not yet recorded in
// schema_version, in order, inside one transaction per file.
func runMigrations(sqlDB *sql.DB) error {
	if _, err := sqlDB.Exec(`CREATE TABLE IF NOT EXISTS schema_version (id INTEGER PRIMARY KEY CHECK (id = 1), version INTEGER NOT NULL)`); err != nil {
		return errs.Wrap(errs.MigrationError, "create schema_version table", err)
	}

	current, err := currentVersion(sqlDB)
	if err != nil {
		return err
	}

	for i, name := range migrations.Files {
		version := i + 1
		if version <= current {
			continue
		}

		sqlBytes, err := migrations.FS.ReadFile(name)
		if err != nil {
			return errs.Wrap(errs.MigrationError, fmt.Sprintf("read migration %s", name), err)
		}

		tx, err := sqlDB.Begin()
		if err != nil {
			return errs.Wrap(errs.MigrationError, "begin migration transaction", err)
		}
		if _, err := tx.Exec(string(sqlBytes)); err != nil {
			tx.Rollback()
			return errs.Wrap(errs.MigrationError, fmt.Sprintf("apply migration %s", name), err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_version (id, version) VALUES (1, ?)
			ON CONFLICT(id) DO UPDATE SET version = excluded.version`, version); err != nil {
			tx.Rollback()
			return errs.Wrap(errs.MigrationError, "record schema version", err)
		}
		if err := tx.Commit(); err != nil {
			return errs.Wrap(errs.MigrationError, fmt.Sprintf("commit migration %s", name), err)
		}
	}

	return nil
}

func currentVersion(sqlDB *sql.DB) (int, error) {
	var version int
	row := sqlDB.QueryRow(`SELECT version FROM schema_version WHERE id = 1`)
	switch err := row.Scan(&version); err {
	case nil:
		return version, nil
	case sql.ErrNoRows:
		return 0, nil
	default:
		return 0, errs.Wrap(errs.MigrationError, "read schema version", err)
	}
}
