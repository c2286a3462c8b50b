package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/courses-api/internal/api/shared"
	"github.com/phrazzld/courses-api/internal/domain"
)

// parseID parses a positive int64 identifier.
func parseID(field, raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(field, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// getPathID extracts an int64 ID from the URL path parameters.
func getPathID(r *http.Request, paramName string) (int64, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return 0, domain.NewValidationError(paramName, "is required", domain.ErrInvalidID)
	}
	return parseID(paramName, pathParam)
}

// getQueryFilters reads the optional exact-match id and name query parameters.
// An empty value is treated as absent; a non-integer id is a validation error.
func getQueryFilters(r *http.Request) (*int64, *string, error) {
	query := r.URL.Query()

	var id *int64
	if raw := strings.TrimSpace(query.Get("id")); raw != "" {
		parsed, err := parseID("id", raw)
		if err != nil {
			return nil, nil, err
		}
		id = &parsed
	}

	var name *string
	if value := query.Get("name"); value != "" {
		name = &value
	}

	return id, name, nil
}

// decodeCourseRequest reads a course body in JSON, urlencoded or multipart
// form. An empty JSON body yields a request with no fields set.
func decodeCourseRequest(r *http.Request) (CourseRequest, error) {
	var req CourseRequest

	if shared.IsFormRequest(r) {
		if err := shared.ParseForm(r); err != nil {
			return req, err
		}
		if _, ok := r.Form["name"]; ok {
			name := r.Form.Get("name")
			req.Name = &name
		}
		if values, ok := r.Form["students"]; ok {
			ids, err := parseIDList(values)
			if err != nil {
				return req, err
			}
			req.Students = &ids
		}
	} else if err := shared.DecodeJSON(r, &req); err != nil && !shared.IsEmptyBody(err) {
		return req, err
	}

	return req, shared.ValidateRequest(req)
}

// decodeStudentRequest reads a student body in any of the accepted formats.
func decodeStudentRequest(r *http.Request) (StudentRequest, error) {
	var req StudentRequest

	if shared.IsFormRequest(r) {
		if err := shared.ParseForm(r); err != nil {
			return req, err
		}
		if _, ok := r.Form["name"]; ok {
			name := r.Form.Get("name")
			req.Name = &name
		}
		if _, ok := r.Form["birth_date"]; ok {
			date := r.Form.Get("birth_date")
			req.BirthDate = OptionalString{Set: true, Value: &date}
		}
	} else if err := shared.DecodeJSON(r, &req); err != nil && !shared.IsEmptyBody(err) {
		return req, err
	}

	return req, shared.ValidateRequest(req)
}

// parseIDList parses repeated form values; each value may also be a
// comma-separated list. Blank values are ignored, so a single empty value
// clears the relation.
func parseIDList(values []string) ([]int64, error) {
	ids := make([]int64, 0, len(values))
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			id, err := parseID("students", part)
			if err != nil {
				return nil, err
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}
