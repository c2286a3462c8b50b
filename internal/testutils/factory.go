package testutils

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/Pallinder/go-randomdata"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// CourseOption customizes a course before it is persisted.
type CourseOption func(*domain.Course)

// StudentOption customizes a student before it is persisted.
type StudentOption func(*domain.Student)

// WithCourseName overrides the generated course name.
func WithCourseName(name string) CourseOption {
	return func(c *domain.Course) { c.Name = name }
}

// WithCourseStudents enrolls the given students.
func WithCourseStudents(ids ...int64) CourseOption {
	return func(c *domain.Course) { c.StudentIDs = domain.NormalizeIDs(ids) }
}

// WithStudentName overrides the generated student name.
func WithStudentName(name string) StudentOption {
	return func(s *domain.Student) { s.Name = name }
}

// WithBirthDate sets the student's birth date; nil clears it.
func WithBirthDate(date *time.Time) StudentOption {
	return func(s *domain.Student) { s.BirthDate = date }
}

// Factory persists randomized fixtures through the store interfaces, bypassing
// the HTTP layer.
type Factory struct {
	courses  store.CourseStore
	students store.StudentStore
}

// NewFactory creates a Factory writing to the given stores.
func NewFactory(courses store.CourseStore, students store.StudentStore) *Factory {
	return &Factory{courses: courses, students: students}
}

// Courses persists quantity courses and returns them in creation order.
// A quantity below 1 is treated as 1. Options apply to every course.
func (f *Factory) Courses(t *testing.T, quantity int, opts ...CourseOption) []*domain.Course {
	t.Helper()
	if quantity < 1 {
		quantity = 1
	}

	courses := make([]*domain.Course, 0, quantity)
	for range quantity {
		course := &domain.Course{
			Name:       fmt.Sprintf("%s %d", randomdata.SillyName(), randomdata.Number(1000, 10000)),
			StudentIDs: []int64{},
		}
		for _, opt := range opts {
			opt(course)
		}
		require.NoError(t, f.courses.Create(context.Background(), course), "failed to create course fixture")
		courses = append(courses, course)
	}
	return courses
}

// Course persists a single course.
func (f *Factory) Course(t *testing.T, opts ...CourseOption) *domain.Course {
	t.Helper()
	return f.Courses(t, 1, opts...)[0]
}

// Students persists quantity students and returns them in creation order.
// A quantity below 1 is treated as 1.
func (f *Factory) Students(t *testing.T, quantity int, opts ...StudentOption) []*domain.Student {
	t.Helper()
	if quantity < 1 {
		quantity = 1
	}

	students := make([]*domain.Student, 0, quantity)
	for range quantity {
		birthDate := time.Date(
			randomdata.Number(1960, 2006),
			time.Month(randomdata.Number(1, 13)),
			randomdata.Number(1, 29),
			0, 0, 0, 0, time.UTC,
		)
		student := &domain.Student{
			Name:      randomdata.FullName(randomdata.RandomGender),
			BirthDate: &birthDate,
		}
		for _, opt := range opts {
			opt(student)
		}
		require.NoError(t, f.students.Create(context.Background(), student), "failed to create student fixture")
		students = append(students, student)
	}
	return students
}

// Student persists a single student.
func (f *Factory) Student(t *testing.T, opts ...StudentOption) *domain.Student {
	t.Helper()
	return f.Students(t, 1, opts...)[0]
}

// IDs returns the IDs of the given students.
func IDs(students []*domain.Student) []int64 {
	ids := make([]int64, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	return ids
}
