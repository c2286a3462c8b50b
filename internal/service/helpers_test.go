package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/memory"
	"github.com/phrazzld/courses-api/internal/service"
	"github.com/phrazzld/courses-api/internal/store"
)

type fixture struct {
	store    *memory.Store
	courses  service.CourseService
	students service.StudentService
}

func newFixture(t *testing.T, maxStudents int) fixture {
	t.Helper()
	s := memory.New(nil)

	courses, err := service.NewCourseService(s.Courses(), s.Students(), maxStudents, nil)
	require.NoError(t, err)
	students, err := service.NewStudentService(s.Students(), s.Courses(), maxStudents, nil)
	require.NoError(t, err)

	return fixture{store: s, courses: courses, students: students}
}

func (f fixture) createStudents(t *testing.T, names ...string) []int64 {
	t.Helper()
	ids := make([]int64, 0, len(names))
	for _, name := range names {
		student, err := f.students.Create(context.Background(), service.CreateStudentInput{Name: name})
		require.NoError(t, err)
		ids = append(ids, student.ID)
	}
	return ids
}

// failingStudentStore fails ExistingIDs to exercise error wrapping.
type failingStudentStore struct {
	store.StudentStore
	err error
}

func (f failingStudentStore) ExistingIDs(context.Context, []int64) ([]int64, error) {
	return nil, f.err
}

var errBackend = errors.New("backend unavailable")

func ptr[T any](v T) *T { return &v }

func requireValidation(t *testing.T, err error, field string) {
	t.Helper()
	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, field, verr.Field)
}
