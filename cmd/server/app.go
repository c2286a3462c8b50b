package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/courses-api/internal/config"
	"github.com/phrazzld/courses-api/internal/platform/memory"
	"github.com/phrazzld/courses-api/internal/platform/postgres"
	"github.com/phrazzld/courses-api/internal/platform/redisstore"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/store"
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger

	// Connections; only the one matching the configured driver is set.
	db    *sql.DB
	redis *redis.Client

	courseStore  store.CourseStore
	studentStore store.StudentStore

	courseService  service.CourseService
	studentService service.StudentService
}

// newApplication opens the configured storage backend and wires the services.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	if err := app.setupStores(ctx); err != nil {
		app.cleanup()
		return nil, err
	}

	var err error
	app.courseService, err = service.NewCourseService(
		app.courseStore,
		app.studentStore,
		cfg.Courses.MaxStudents,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create course service: %w", err)
	}

	app.studentService, err = service.NewStudentService(
		app.studentStore,
		app.courseStore,
		cfg.Courses.MaxStudents,
		logger,
	)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create student service: %w", err)
	}

	logger.Info("Application initialized successfully", "driver", cfg.Database.Driver)
	return app, nil
}

// setupStores connects to the backend selected by Database.Driver.
func (app *application) setupStores(ctx context.Context) error {
	cfg := app.config.Database

	switch cfg.Driver {
	case config.DriverMemory:
		s := memory.New(app.logger)
		app.courseStore = s.Courses()
		app.studentStore = s.Students()

	case config.DriverPostgres:
		db, err := openDatabase(ctx, cfg.URL, app.logger)
		if err != nil {
			return err
		}
		app.db = db

		if cfg.AutoMigrate {
			if err := migrate(ctx, db, "up", app.logger.With("component", "migrations")); err != nil {
				return fmt.Errorf("failed to apply migrations: %w", err)
			}
		}

		app.courseStore = postgres.NewPostgresCourseStore(db, app.logger)
		app.studentStore = postgres.NewPostgresStudentStore(db, app.logger)

	case config.DriverRedis:
		client, err := openRedis(ctx, cfg.URL, app.logger)
		if err != nil {
			return err
		}
		app.redis = client

		s := redisstore.New(client, cfg.KeyPrefix, app.logger)
		app.courseStore = s.Courses()
		app.studentStore = s.Students()

	default:
		return fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	return nil
}

// Run starts the application server, handling lifecycle and cleanup.
// It returns an error if the server fails to start or encounters problems.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// cleanup handles graceful shutdown of application resources.
func (app *application) cleanup() {
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("Error closing database connection", "error", err)
		}
	}

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error("Error closing redis connection", "error", err)
		}
	}

	app.logger.Info("Application shutdown completed")
}
