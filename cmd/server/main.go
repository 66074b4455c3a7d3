// Package main implements the entry point for the TaskHub API server,
// a task-management backend with circuit-broken storage access, retried
// writes, degraded reads, and escalating rate limits.
package main

import (
	"context"
	"log"
)

func main() {
	app, err := initializeApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}
	defer app.cleanup()

	if err := app.runMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	app.dispatcher.Start()

	if err := app.startHTTPServer(context.Background(), app.setupRouter()); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
