package testutils

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"

	"github.com/pressly/goose/v3"
)

// migrationsRunOnce guards schema setup so migrations run at most once per
// test binary even when several TestMain functions call SetupTestDatabaseSchema.
var migrationsRunOnce sync.Once

// SetupTestDatabaseSchema resets the test database to a clean schema by
// rolling all migrations down and applying them back up.
func SetupTestDatabaseSchema(db *sql.DB) error {
	var setupErr error
	migrationsRunOnce.Do(func() {
		if err := goose.SetDialect("postgres"); err != nil {
			setupErr = fmt.Errorf("failed to set goose dialect: %w", err)
			return
		}

		projectRoot, err := findProjectRoot()
		if err != nil {
			setupErr = fmt.Errorf("failed to find project root: %w", err)
			return
		}

		migrationsDir := filepath.Join(
			projectRoot,
			"internal",
			"platform",
			"postgres",
			"migrations",
		)

		if _, err := os.Stat(migrationsDir); os.IsNotExist(err) {
			setupErr = fmt.Errorf("migrations directory not found at %s: %w", migrationsDir, err)
			return
		}

		// Keep goose quiet during tests
		goose.SetLogger(&testGooseLogger{})

		if err := goose.DownTo(db, migrationsDir, 0); err != nil {
			setupErr = fmt.Errorf("failed to reset database schema: %w", err)
			return
		}

		if err := goose.Up(db, migrationsDir); err != nil {
			setupErr = fmt.Errorf("failed to apply migrations: %w", err)
			return
		}
	})
	return setupErr
}

// WithTx runs fn inside a transaction that is always rolled back, so each
// test observes a clean database regardless of what it writes.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	defer AssertRollbackNoError(t, tx)

	fn(t, tx)
}

// AssertRollbackNoError rolls back tx and fails the test on any rollback
// error other than the transaction already being done.
func AssertRollbackNoError(t *testing.T, tx *sql.Tx) {
	t.Helper()

	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		t.Errorf("Failed to rollback transaction: %v", err)
	}
}

// findProjectRoot locates the module root by searching for go.mod starting
// from this file's directory and walking up.
func findProjectRoot() (string, error) {
	_, currentFile, _, ok := runtime.Caller(0)
	if !ok {
		return "", fmt.Errorf("failed to get current file path")
	}

	dir := filepath.Dir(currentFile)
	for {
		goModPath := filepath.Join(dir, "go.mod")
		if _, err := os.Stat(goModPath); err == nil {
			return dir, nil
		}

		parentDir := filepath.Dir(dir)
		if parentDir == dir {
			return "", fmt.Errorf("could not find project root (go.mod file)")
		}
		dir = parentDir
	}
}

// testGooseLogger silences goose output during test runs.
type testGooseLogger struct{}

func (*testGooseLogger) Fatalf(format string, v ...interface{}) {
	// ALLOW-PANIC: goose logger contract
	panic(fmt.Sprintf(format, v...))
}

func (*testGooseLogger) Printf(format string, v ...interface{}) {}
