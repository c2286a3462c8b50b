package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/api/shared"
	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	t.Parallel()

	wrapped := &service.ServiceError{Service: "course", Operation: "get", Message: "failed", Err: store.ErrCourseNotFound}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"course not found", store.ErrCourseNotFound, http.StatusNotFound},
		{"wrapped not found", wrapped, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"validation", domain.NewValidationError("name", "is required", domain.ErrEmptyCourseName), http.StatusBadRequest},
		{"unknown students", fmt.Errorf("%w: [7]", service.ErrUnknownStudents), http.StatusBadRequest},
		{"invalid spreadsheet", service.ErrInvalidSpreadsheet, http.StatusBadRequest},
		{"invalid entity", fmt.Errorf("%w: bad", store.ErrInvalidEntity), http.StatusBadRequest},
		{"unexpected", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, MapErrorToStatusCode(tc.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Course not found", GetSafeErrorMessage(store.ErrCourseNotFound))
	assert.Equal(t, "Student not found", GetSafeErrorMessage(store.ErrStudentNotFound))
	assert.Equal(t, "One or more students do not exist",
		GetSafeErrorMessage(fmt.Errorf("%w: [3 4]", service.ErrUnknownStudents)))
	assert.Equal(t, "Invalid name: is required",
		GetSafeErrorMessage(domain.NewValidationError("name", "is required", nil)))
	assert.Equal(t, "An unexpected error occurred",
		GetSafeErrorMessage(errors.New("pq: password authentication failed for user admin")))
	assert.Equal(t, "An unexpected error occurred", GetSafeErrorMessage(nil))
}

func TestSanitizeValidationError_Validator(t *testing.T) {
	t.Parallel()

	long := make([]byte, 300)
	for i := range long {
		long[i] = 'x'
	}
	name := string(long)

	err := shared.ValidateRequest(CourseRequest{Name: &name})
	require.Error(t, err)
	assert.Equal(t, "Invalid name: too long", SanitizeValidationError(err))
	assert.Equal(t, "Validation error", SanitizeValidationError(errors.New("other")))
}

func TestOptionalString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		body    string
		set     bool
		value   *string
		wantErr bool
	}{
		{body: `{}`, set: false},
		{body: `{"birth_date": null}`, set: true},
		{body: `{"birth_date": "2000-01-02"}`, set: true, value: ptr("2000-01-02")},
		{body: `{"birth_date": 5}`, wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.body, func(t *testing.T) {
			var req StudentRequest
			err := json.Unmarshal([]byte(tc.body), &req)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.set, req.BirthDate.Set)
			assert.Equal(t, tc.value, req.BirthDate.Value)
		})
	}
}

func TestParseIDList(t *testing.T) {
	t.Parallel()

	ids, err := parseIDList([]string{"3,1", " 2 ", ""})
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	ids, err = parseIDList([]string{""})
	require.NoError(t, err)
	assert.Empty(t, ids)

	_, err = parseIDList([]string{"1,x"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func ptr[T any](v T) *T { return &v }
