package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/phrazzld/courses-api/internal/api/shared"
	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/store"
)

// StudentHandler handles student-related HTTP requests
type StudentHandler struct {
	students service.StudentService
	logger   *slog.Logger
}

// NewStudentHandler creates a new StudentHandler
func NewStudentHandler(students service.StudentService, logger *slog.Logger) *StudentHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &StudentHandler{
		students: students,
		logger:   logger.With(slog.String("component", "student_handler")),
	}
}

// ListStudents handles GET /students requests
func (h *StudentHandler) ListStudents(w http.ResponseWriter, r *http.Request) {
	id, name, err := getQueryFilters(r)
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	students, err := h.students.List(r.Context(), store.StudentFilter{ID: id, Name: name})
	if err != nil {
		HandleAPIError(w, r, err, "Failed to list students")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, studentsToResponse(students))
}

// CreateStudent handles POST /students requests
func (h *StudentHandler) CreateStudent(w http.ResponseWriter, r *http.Request) {
	req, err := decodeStudentRequest(r)
	if err != nil {
		handleDecodeError(w, r, err)
		return
	}

	in := service.CreateStudentInput{BirthDate: req.BirthDate.String()}
	if req.Name != nil {
		in.Name = *req.Name
	}

	student, err := h.students.Create(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to create student")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, studentToResponse(student))
}

// GetStudent handles GET /students/{id} requests
func (h *StudentHandler) GetStudent(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	student, err := h.students.Get(r.Context(), id)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get student")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, studentToResponse(student))
}

// PatchStudent handles PATCH /students/{id} requests
func (h *StudentHandler) PatchStudent(w http.ResponseWriter, r *http.Request) {
	h.updateStudent(w, r, false)
}

// PutStudent handles PUT /students/{id} requests. The name is required.
func (h *StudentHandler) PutStudent(w http.ResponseWriter, r *http.Request) {
	h.updateStudent(w, r, true)
}

func (h *StudentHandler) updateStudent(w http.ResponseWriter, r *http.Request, requireName bool) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	req, err := decodeStudentRequest(r)
	if err != nil {
		handleDecodeError(w, r, err)
		return
	}
	if requireName && req.Name == nil {
		HandleValidationError(w, r, domain.NewValidationError("name", "is required", domain.ErrEmptyStudentName))
		return
	}

	in := service.UpdateStudentInput{Name: req.Name}
	if req.BirthDate.Set {
		date := req.BirthDate.String()
		in.BirthDate = &date
	}

	student, err := h.students.Update(r.Context(), id, in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to update student")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, studentToResponse(student))
}

// DeleteStudent handles DELETE /students/{id} requests
func (h *StudentHandler) DeleteStudent(w http.ResponseWriter, r *http.Request) {
	id, err := getPathID(r, "id")
	if err != nil {
		HandleValidationError(w, r, err)
		return
	}

	if err := h.students.Delete(r.Context(), id); err != nil {
		HandleAPIError(w, r, err, "Failed to delete student")
		return
	}

	shared.RespondWithNoContent(w)
}

// ImportStudents handles POST /students/import requests.
// Expects a multipart body with an xlsx "file" and an optional "course" ID.
func (h *StudentHandler) ImportStudents(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	if err := r.ParseMultipartForm(shared.MaxBodyBytes); err != nil {
		handleDecodeError(w, r, err)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			HandleValidationError(w, r, domain.NewValidationError("file", "is required", service.ErrInvalidSpreadsheet))
			return
		}
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	defer func() { _ = file.Close() }()

	in := service.ImportInput{File: file}
	if raw := r.FormValue("course"); raw != "" {
		courseID, err := parseID("course", raw)
		if err != nil {
			HandleValidationError(w, r, err)
			return
		}
		in.CourseID = &courseID
	}

	result, err := h.students.Import(r.Context(), in)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to import students")
		return
	}

	log.Info("spreadsheet imported",
		slog.String("filename", header.Filename),
		slog.Int("imported", result.Imported),
		slog.Int("skipped", result.Skipped))

	shared.RespondWithJSON(w, r, http.StatusCreated, ImportResponse{
		Imported: result.Imported,
		Skipped:  result.Skipped,
		Students: result.StudentIDs,
	})
}
