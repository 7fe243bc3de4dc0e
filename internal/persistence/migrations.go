package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const (
	createMigrationsTable = `CREATE TABLE IF NOT EXISTS schema_migrations (
	name TEXT PRIMARY KEY,
	applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`
	migrationApplied = `SELECT EXISTS (SELECT 1 FROM schema_migrations WHERE name = $1)`
	recordMigration  = `INSERT INTO schema_migrations (name) VALUES ($1)`
)

// RunMigrations applies the .sql files in dir in lexical order. Each file
// runs in its own transaction and is recorded in schema_migrations, so a
// restart only applies files added since.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, dir string, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("no postgres pool available; skipping migrations")
		return nil
	}
	return applyMigrations(ctx, pool, dir, logger)
}

func applyMigrations(ctx context.Context, db Conn, dir string, logger *zap.Logger) error {
	filenames, err := migrationFiles(dir)
	if err != nil {
		return err
	}

	if _, err := db.Exec(ctx, createMigrationsTable); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	applied := 0
	for _, name := range filenames {
		var done bool
		if err := db.QueryRow(ctx, migrationApplied, name).Scan(&done); err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if done {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}

		logger.Info("applying migration", zap.String("file", name))
		if err := applyMigration(ctx, db, name, string(content)); err != nil {
			return err
		}
		applied++
	}

	logger.Info("migrations applied", zap.Int("applied", applied), zap.Int("total", len(filenames)))
	return nil
}

func applyMigration(ctx context.Context, db Conn, name, sql string) error {
	tx, err := db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin migration %s: %w", name, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, sql); err != nil {
		return fmt.Errorf("apply migration %s: %w", name, err)
	}
	if _, err := tx.Exec(ctx, recordMigration, name); err != nil {
		return fmt.Errorf("record migration %s: %w", name, err)
	}
	return tx.Commit(ctx)
}

func migrationFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	filenames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		filenames = append(filenames, entry.Name())
	}

	sort.Strings(filenames)
	return filenames, nil
}
