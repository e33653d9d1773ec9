package database

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
)

//go:embed migrations/001_initial.up.sql
var initialMigrationSQL string

//go:embed migrations/002_menu_seed.up.sql
var menuSeedSQL string

var requiredTables = []string{
	"users",
	"sessions",
	"menu_options",
	"user_options",
	"access_log",
	"companies",
	"node_types",
	"operational_states",
	"failure_modes",
	"lists",
	"node_details",
}

func (db *DB) EnsureSchema(ctx context.Context) error {
	if db == nil || db.Pool == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	exists, err := db.hasAllRequiredTables(ctx)
	if err != nil {
		return fmt.Errorf("check existing tables: %w", err)
	}

	if !exists {
		slog.Info("database schema missing tables; applying initial migration")
		if _, err := db.Pool.Exec(ctx, initialMigrationSQL); err != nil {
			return fmt.Errorf("apply initial migration: %w", err)
		}

		exists, err = db.hasAllRequiredTables(ctx)
		if err != nil {
			return fmt.Errorf("re-check tables after migration: %w", err)
		}

		if !exists {
			return fmt.Errorf("schema initialization incomplete: required tables are still missing")
		}
	}

	if err := db.seedMenu(ctx); err != nil {
		return fmt.Errorf("seed menu options: %w", err)
	}

	slog.Info("database schema ensured")
	return nil
}

// seedMenu installs the default navigation tree. Existing options are left
// untouched so edits made by administrators survive restarts.
func (db *DB) seedMenu(ctx context.Context) error {
	var count int
	if err := db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM menu_options`).Scan(&count); err != nil {
		return fmt.Errorf("count menu options: %w", err)
	}

	if count > 0 {
		return nil
	}

	slog.Info("seeding default menu options")
	if _, err := db.Pool.Exec(ctx, menuSeedSQL); err != nil {
		return fmt.Errorf("exec menu seed SQL: %w", err)
	}
	return nil
}

func (db *DB) hasAllRequiredTables(ctx context.Context) (bool, error) {
	var count int
	err := db.Pool.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM information_schema.tables
		WHERE table_schema = current_schema()
		  AND table_name = ANY($1)
	`, requiredTables).Scan(&count)
	if err != nil {
		return false, err
	}

	return count == len(requiredTables), nil
}
