package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/tasktrail/internal/config"
	"github.com/phrazzld/tasktrail/internal/platform/logger"
	"github.com/phrazzld/tasktrail/internal/platform/postgres"
	"github.com/phrazzld/tasktrail/internal/service"
	"github.com/phrazzld/tasktrail/internal/store"
)

// application holds the initialized dependencies of the server process.
type application struct {
	config      *config.Config
	logger      *slog.Logger
	db          *sql.DB
	taskStore   store.TaskStore
	taskService service.TaskService
}

// initializeApp loads configuration, sets up logging, connects to the
// database, and wires the store and service layers.
// Returns the assembled application and any initialization error.
func initializeApp() (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(logger.LoggerConfig{Level: cfg.Server.LogLevel})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	appLogger.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel)

	db, err := setupAppDatabase(cfg, appLogger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up database: %w", err)
	}

	taskStore := postgres.NewPostgresTaskStore(db, appLogger)
	taskService := service.NewTaskService(taskStore, appLogger)

	return &application{
		config:      cfg,
		logger:      appLogger,
		db:          db,
		taskStore:   taskStore,
		taskService: taskService,
	}, nil
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Failed to close database connection", "error", err)
		}
	}
}
