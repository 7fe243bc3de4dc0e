package persistence

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

func TestMigrationFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"0002_sessions.sql", "0001_auth.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("select 1;"), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "0000_dir.sql"), 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	got, err := migrationFiles(dir)
	if err != nil {
		t.Fatalf("migrationFiles() error: %v", err)
	}
	want := []string{"0001_auth.sql", "0002_sessions.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("migrationFiles() = %v, want %v", got, want)
	}
}

func TestMigrationFilesMissingDir(t *testing.T) {
	if _, err := migrationFiles(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}

type boolRow struct{ value bool }

func (r boolRow) Scan(dest ...any) error {
	*(dest[0].(*bool)) = r.value
	return nil
}

// migrationDB records statements; applied lists migrations already recorded.
type migrationDB struct {
	applied    map[string]bool
	statements []string
	commits    int
}

func (db *migrationDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.statements = append(db.statements, sql)
	if sql == recordMigration {
		db.applied[args[0].(string)] = true
	}
	return pgconn.CommandTag{}, nil
}

func (db *migrationDB) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, errors.New("not supported")
}

func (db *migrationDB) QueryRow(_ context.Context, _ string, args ...any) pgx.Row {
	return boolRow{value: db.applied[args[0].(string)]}
}

func (db *migrationDB) Begin(context.Context) (pgx.Tx, error) {
	return &migrationTx{db: db}, nil
}

type migrationTx struct {
	pgx.Tx
	db *migrationDB
}

func (tx *migrationTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return tx.db.Exec(ctx, sql, args...)
}

func (tx *migrationTx) Commit(context.Context) error {
	tx.db.commits++
	return nil
}

func (tx *migrationTx) Rollback(context.Context) error { return nil }

func TestApplyMigrationsSkipsRecorded(t *testing.T) {
	dir := t.TempDir()
	for name, sql := range map[string]string{
		"0001_auth.sql":     "CREATE TABLE usr ()",
		"0002_sessions.sql": "CREATE TABLE usr_session ()",
	} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o600); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	db := &migrationDB{applied: map[string]bool{"0001_auth.sql": true}}
	if err := applyMigrations(context.Background(), db, dir, zap.NewNop()); err != nil {
		t.Fatalf("applyMigrations() error: %v", err)
	}

	want := []string{createMigrationsTable, "CREATE TABLE usr_session ()", recordMigration}
	if !reflect.DeepEqual(db.statements, want) {
		t.Fatalf("statements = %q, want %q", db.statements, want)
	}
	if db.commits != 1 || !db.applied["0002_sessions.sql"] {
		t.Fatalf("commits=%d applied=%v", db.commits, db.applied)
	}
}
