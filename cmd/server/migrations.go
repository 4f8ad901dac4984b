package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrail/internal/platform/postgres"
	"github.com/pressly/goose/v3"
)

// runMigrations executes the requested goose command (up, down, status)
// against the application database using the embedded migration files.
func (app *application) runMigrations(command string) error {
	// Use a correlation ID for all migration logs to allow tracing the
	// entire operation.
	correlationID := uuid.New().String()
	migrationLogger := app.logger.With(
		"correlation_id", correlationID,
		"component", "migrations",
		"command", command,
	)

	startTime := time.Now()
	migrationLogger.Info("Starting migration operation",
		"operation", fmt.Sprintf("goose %s", command))

	goose.SetLogger(&slogGooseLogger{logger: migrationLogger})
	goose.SetBaseFS(postgres.MigrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	var err error
	switch command {
	case "up":
		err = goose.Up(app.db, postgres.MigrationsDir)
	case "down":
		err = goose.Down(app.db, postgres.MigrationsDir)
	case "status":
		err = goose.Status(app.db, postgres.MigrationsDir)
	default:
		return fmt.Errorf("unknown migration command: %q (expected up, down, or status)", command)
	}
	if err != nil {
		migrationLogger.Error("Migration operation failed",
			"error", err,
			"duration", time.Since(startTime))
		return fmt.Errorf("goose %s failed: %w", command, err)
	}

	migrationLogger.Info("Migration operation completed",
		"duration", time.Since(startTime))
	return nil
}

// slogGooseLogger adapts goose's logger interface to slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}
