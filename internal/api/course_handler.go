package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/phrazzld/courses-api/internal/api/shared"
	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/store"
)

// CourseHandler handles course-related HTTP requests
type CourseHandler struct {
	courses service.CourseService
	logger  *slog.Logger
}

// NewCourseHandler creates a new CourseHandler
func NewCourseHandler(courses service.CourseService, logger *slog.Logger) *CourseHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CourseHandler{
		courses: courses,
		logger:  logger.With(slog.String("component", "course_handler")),
	}
}

// ListCourses handles GET /courses requests
func (h *CourseHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	id, name, err := getQueryFilters(r)
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	courses, err := h.courses.List(r.Context(), store.CourseFilter{ID: id, Name: name})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list courses")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, coursesToResponse(courses))
}

// CreateCourse handles POST /courses requests
func (h *CourseHandler) CreateCourse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	req, err := decodeCourseRequest(r)
	if err != nil {
		handleDecodeError(w, r, err)
		return
	}

	in := service.CreateCourseInput{}
	if req.Name != nil {
		in.Name = *req.Name
	}
	if req.Students != nil {
		in.StudentIDs = *req.Students
	}

	course, err := h.courses.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create course")
		return
	}

	log.Debug("course created via API", slog.Int64("course_id", course.ID))
	shared.RespondWithJSON(w, r, http.StatusCreated, courseToResponse(course))
}

// GetCourse handles GET /courses/{id} requests
func (h *CourseHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get course")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// PatchCourse handles PATCH /courses/{id} requests.
// Only supplied fields change; supplied students replace the relation.
func (h *CourseHandler) PatchCourse(w http.ResponseWriter, r *http.Request) {
	h.updateCourse(w, r, false)
}

// PutCourse handles PUT /courses/{id} requests. The name is required.
func (h *CourseHandler) PutCourse(w http.ResponseWriter, r *http.Request) {
	h.updateCourse(w, r, true)
}

func (h *CourseHandler) updateCourse(w http.ResponseWriter, r *http.Request, requireName bool) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	req, err := decodeCourseRequest(r)
	if err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if requireName && req.Name == nil {
		HandleValidationError(w, r, domain.NewValidationError("name", "is required", domain.ErrEmptyCourseName))
		return
	}

	course, err := h.courses.Update(r.Context(), id, service.UpdateCourseInput{
		Name:       req.Name,
		StudentIDs: req.Students,
	})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update course")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, courseToResponse(course))
}

// DeleteCourse handles DELETE /courses/{id} requests
func (h *CourseHandler) DeleteCourse(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.courses.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete course")
		return
	}

	shared.RespondWithNoContent(w)
}

// handleDecodeError distinguishes field validation failures from bodies that
// could not be parsed at all.
func handleDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	if shared.IsBodyTooLarge(err) {
		shared.RespondWithErrorAndLog(w, r, http.StatusRequestEntityTooLarge, "Request body too large", err)
		return
	}
	var fieldErrs validator.ValidationErrors
	if errors.Is(err, domain.ErrValidation) || errors.As(err, &fieldErrs) {
		HandleValidationError(w, r, err)
		return
	}
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
}
