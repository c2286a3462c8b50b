package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/phrazzld/courses-api/internal/api"
	apiMiddleware "github.com/phrazzld/courses-api/internal/api/middleware"
	"github.com/phrazzld/courses-api/internal/api/shared"
)

// setupRouter creates and configures the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)
	r.Use(middleware.RequestSize(shared.MaxBodyBytes))
	r.Use(apiMiddleware.TraceMiddleware(app.logger))

	courseHandler := api.NewCourseHandler(app.courseService, app.logger)
	studentHandler := api.NewStudentHandler(app.studentService, app.logger)
	api.RegisterRoutes(r, courseHandler, studentHandler)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
