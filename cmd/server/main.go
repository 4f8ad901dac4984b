// Package main implements the entry point for the tasktrail API server,
// a task-tracking CRUD service that maintains an append-only audit trail
// of field-level changes per task.
package main

import (
	"context"
	"flag"
	"log"
)

func main() {
	migrateCmd := flag.String("migrate", "", "run database migrations (up, down, status) and exit")
	flag.Parse()

	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if *migrateCmd != "" {
		if err := app.runMigrations(*migrateCmd); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		return
	}

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
