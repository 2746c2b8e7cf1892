// Package testutils provides common utilities for testing across the
// application. It centralizes repeated test setup and teardown logic to avoid
// duplication and standardize testing practices.
package testutils

import (
	"os"
	"testing"
)

// IsIntegrationTestEnvironment returns true if the environment is configured
// for running integration tests with a database connection.
// Integration tests should check this and skip if not in an integration test environment.
func IsIntegrationTestEnvironment() bool {
	return os.Getenv("DATABASE_URL") != ""
}

// GetTestDatabaseURL returns the database URL for integration tests.
// It fails the test if DATABASE_URL is not set.
func GetTestDatabaseURL(t *testing.T) string {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL environment variable is required for this test")
	}
	return dbURL
}

// MustGetTestDatabaseURL returns the database URL for integration tests.
// This version is designed for use in TestMain functions where a testing.T is not available.
// It panics if DATABASE_URL is not set.
func MustGetTestDatabaseURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		// ALLOW-PANIC
		panic("DATABASE_URL environment variable is required for integration tests")
	}
	return dbURL
}
