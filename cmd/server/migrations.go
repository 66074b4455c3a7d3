package main

import (
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
)

// gooseSlogAdapter adapts the goose logger interface to slog.
type gooseSlogAdapter struct {
	logger *slog.Logger
}

func (l *gooseSlogAdapter) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf logs at error level without exiting; main handles termination.
func (l *gooseSlogAdapter) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

//go:embed migrations/*.sql
var migrationsFS embed.FS

// runMigrations applies any pending schema migrations at startup.
func (app *application) runMigrations() error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(&gooseSlogAdapter{logger: app.logger})

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set migration dialect: %w", err)
	}
	if err := goose.Up(app.db, "migrations"); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
