package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"

	"github.com/phrazzld/courses-api/internal/config"
	"github.com/phrazzld/courses-api/internal/platform/postgres"
)

// slogGooseLogger adapts the goose logger interface to use slog.
type slogGooseLogger struct {
	logger *slog.Logger
}

// Printf implements the goose.Logger Printf method by forwarding messages to slog.Info
func (l *slogGooseLogger) Printf(format string, v ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, v...))
}

// Fatalf implements the goose.Logger Fatalf method by forwarding error messages to slog.Error.
// It does not exit; the error is returned to main which handles the exit.
func (l *slogGooseLogger) Fatalf(format string, v ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, v...))
}

// runMigrations opens the configured database and executes a goose command
// against the embedded migrations.
func runMigrations(ctx context.Context, cfg *config.Config, command string, logger *slog.Logger) error {
	if cfg.Database.Driver != config.DriverPostgres {
		return fmt.Errorf("migrations require the %s driver, configured driver is %q",
			config.DriverPostgres, cfg.Database.Driver)
	}

	// A correlation ID ties together every log line of one migration run.
	migrationLogger := logger.With(
		"correlation_id", uuid.NewString(),
		"component", "migrations",
		"command", command,
	)

	db, err := openDatabase(ctx, cfg.Database.URL, migrationLogger)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			migrationLogger.Error("Error closing database connection", "error", err)
		}
	}()

	return migrate(ctx, db, command, migrationLogger)
}

// migrate executes command (up, down, reset, status or version) on db.
func migrate(ctx context.Context, db *sql.DB, command string, logger *slog.Logger) error {
	run, err := migrationCommand(command)
	if err != nil {
		return err
	}

	goose.SetLogger(&slogGooseLogger{logger: logger})
	goose.SetTableName(postgres.MigrationsTable)
	goose.SetBaseFS(postgres.Migrations)
	defer goose.SetBaseFS(nil)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}

	start := time.Now()
	logger.Info("Starting migration command execution")

	if err := run(ctx, db, postgres.MigrationsDir); err != nil {
		logger.Error("Migration command failed",
			"error", err,
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration command '%s' failed: %w", command, err)
	}

	logger.Info("Migration command executed successfully",
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

type migrationFunc func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error

// migrationCommand resolves a command name to its goose function.
func migrationCommand(command string) (migrationFunc, error) {
	switch command {
	case "up":
		return goose.UpContext, nil
	case "down":
		return goose.DownContext, nil
	case "reset":
		return goose.ResetContext, nil
	case "status":
		return goose.StatusContext, nil
	case "version":
		return goose.VersionContext, nil
	default:
		return nil, fmt.Errorf(
			"unknown migration command: %s (expected up, down, reset, status or version)",
			command,
		)
	}
}
