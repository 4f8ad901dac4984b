// Package testdb provides utilities specifically for database testing.
// It maintains a clean dependency structure by only depending on store
// interfaces and standard database packages, not on specific
// implementations.
package testdb

import (
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/phrazzld/tasktrail/internal/platform/postgres"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
)

// TestTimeout defines a default timeout for test database operations.
const TestTimeout = 5 * time.Second

// IsIntegrationTestEnvironment returns true if the DATABASE_URL environment
// variable is set, indicating that integration tests can be run.
func IsIntegrationTestEnvironment() bool {
	return len(os.Getenv("DATABASE_URL")) > 0
}

// GetTestDatabaseURL returns the database URL for tests.
// It checks DATABASE_URL and TASKTRAIL_TEST_DB_URL environment variables
// in that order, returning the first non-empty value.
func GetTestDatabaseURL() string {
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		dbURL = os.Getenv("TASKTRAIL_TEST_DB_URL")
	}
	return dbURL
}

// MustOpen opens a connection to the test database and applies the embedded
// schema migrations. The test is skipped when no test database is
// configured and fails on any other setup error.
func MustOpen(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := GetTestDatabaseURL()
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping database integration test")
	}

	db, err := sql.Open("pgx", dbURL)
	require.NoError(t, err, "Failed to open test database connection")
	t.Cleanup(func() {
		require.NoError(t, db.Close(), "Failed to close test database connection")
	})

	SetupTestDatabaseSchema(t, db)
	return db
}

// SetupTestDatabaseSchema runs the embedded goose migrations to set up the
// test database.
func SetupTestDatabaseSchema(t *testing.T, db *sql.DB) {
	t.Helper()

	goose.SetLogger(&testGooseLogger{t: t})
	goose.SetBaseFS(postgres.MigrationsFS)
	require.NoError(t, goose.SetDialect("postgres"), "Failed to set goose dialect")
	require.NoError(t, goose.Up(db, postgres.MigrationsDir), "Failed to run migrations")
}

// WithTx executes a test function within a transaction, automatically rolling back
// after the test completes. This ensures test isolation and prevents side effects.
func WithTx(t *testing.T, db *sql.DB, fn func(t *testing.T, tx *sql.Tx)) {
	t.Helper()

	tx, err := db.Begin()
	require.NoError(t, err, "Failed to begin transaction")

	defer func() {
		err := tx.Rollback()
		// sql.ErrTxDone is expected if tx is already committed or rolled back
		if err != nil && !errors.Is(err, sql.ErrTxDone) {
			t.Logf("Warning: failed to rollback transaction: %v", err)
		}
	}()

	fn(t, tx)
}

// testGooseLogger routes goose output through the test log.
type testGooseLogger struct {
	t *testing.T
}

func (l *testGooseLogger) Fatalf(format string, v ...interface{}) {
	l.t.Fatalf(format, v...)
}

func (l *testGooseLogger) Printf(format string, v ...interface{}) {
	l.t.Logf(format, v...)
}
