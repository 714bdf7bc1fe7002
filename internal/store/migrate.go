package store

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"

	"github.com/pressly/goose/v3"
)

// Migrate brings the audit-trail schema up to date. Safe to run on every
// start; goose skips applied versions.
func Migrate(ctx context.Context, db *sql.DB) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	goose.SetTableName("arogya_schema_migrations")
	if err := goose.UpContext(ctx, db, filepath.Join("internal", "store", "migrations")); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}
