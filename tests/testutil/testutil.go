package testutil

import (
	"fmt"
	"os"
	"strings"
	"testing"
)

// CheckEnvironment returns an error unless GO_ENV is "test". TestMain
// functions call it before any test opens a database, so a stray
// DATABASE_URL never points the suite at real data.
func CheckEnvironment() error {
	if env := os.Getenv("GO_ENV"); env != "test" {
		return fmt.Errorf("SAFETY CHECK FAILED: tests must run with GO_ENV=test (current GO_ENV=%q, %s)", env, describeDatabase())
	}
	return nil
}

// RequireTestEnvironment fails t immediately when GO_ENV is not "test"
func RequireTestEnvironment(t *testing.T) {
	t.Helper()

	if err := CheckEnvironment(); err != nil {
		t.Fatal(err)
	}
}

// UseTestEnvironment forces GO_ENV=test for the duration of t. Suites
// that build their own config call it from SetupSuite.
func UseTestEnvironment(t *testing.T) {
	t.Helper()

	t.Setenv("GO_ENV", "test")
	RequireTestEnvironment(t)
}

// describeDatabase names the configured database without leaking credentials
func describeDatabase() string {
	driver := os.Getenv("DB_DRIVER")
	if driver == "" {
		driver = "postgres"
	}
	url := os.Getenv("DATABASE_URL")
	switch {
	case url == "":
		return "DB_DRIVER=" + driver + ", DATABASE_URL not set"
	case strings.Contains(url, "test"):
		return "DB_DRIVER=" + driver + ", DATABASE_URL looks like a test database"
	default:
		return "DB_DRIVER=" + driver + ", DATABASE_URL may not be a test database"
	}
}
