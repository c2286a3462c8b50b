package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/courses-api/internal/api/shared"
)

// APIPrefix is the path prefix of every resource route.
const APIPrefix = "/api/v1"

// RegisterRoutes mounts the course and student resources on r under APIPrefix.
// Trailing slashes are expected to be stripped by the router's middleware.
// Unmatched paths and methods get the JSON error body used everywhere else.
func RegisterRoutes(r chi.Router, courses *CourseHandler, students *StudentHandler) {
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/courses", func(r chi.Router) {
			r.Get("/", courses.ListCourses)
			r.Post("/", courses.CreateCourse)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", courses.GetCourse)
				r.Put("/", courses.PutCourse)
				r.Patch("/", courses.PatchCourse)
				r.Delete("/", courses.DeleteCourse)
			})
		})

		r.Route("/students", func(r chi.Router) {
			r.Get("/", students.ListStudents)
			r.Post("/", students.CreateStudent)
			r.Post("/import", students.ImportStudents)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", students.GetStudent)
				r.Put("/", students.PutStudent)
				r.Patch("/", students.PatchStudent)
				r.Delete("/", students.DeleteStudent)
			})
		})
	})
}
