// Package storetest provides a behavioural test suite that every
// store.CourseStore / store.StudentStore implementation must pass.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// Stores bundles the two store views under test. Both must share the same
// backing storage.
type Stores struct {
	Courses  store.CourseStore
	Students store.StudentStore
}

// Factory returns a fresh, isolated pair of stores for one subtest.
type Factory func(t *testing.T) Stores

// Run executes the full contract suite against stores produced by newStores.
func Run(t *testing.T, newStores Factory) {
	t.Helper()

	t.Run("Student", func(t *testing.T) { runStudentContract(t, newStores) })
	t.Run("Course", func(t *testing.T) { runCourseContract(t, newStores) })
}

func mustStudent(t *testing.T, s store.StudentStore, name string) *domain.Student {
	t.Helper()
	student, err := domain.NewStudent(name, nil)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), student))
	return student
}

func mustCourse(t *testing.T, s store.CourseStore, name string, ids ...int64) *domain.Course {
	t.Helper()
	course, err := domain.NewCourse(name, ids)
	require.NoError(t, err)
	require.NoError(t, s.Create(context.Background(), course))
	return course
}

func ptr[T any](v T) *T { return &v }

func runStudentContract(t *testing.T, newStores Factory) {
	t.Run("Create assigns increasing IDs", func(t *testing.T) {
		stores := newStores(t)
		first := mustStudent(t, stores.Students, "Ada Lovelace")
		second := mustStudent(t, stores.Students, "Alan Turing")

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("GetByID round trip", func(t *testing.T) {
		stores := newStores(t)
		birth := time.Date(1815, time.December, 10, 0, 0, 0, 0, time.UTC)
		student, err := domain.NewStudent("Ada Lovelace", &birth)
		require.NoError(t, err)
		require.NoError(t, stores.Students.Create(context.Background(), student))

		got, err := stores.Students.GetByID(context.Background(), student.ID)
		require.NoError(t, err)
		assert.Equal(t, student.ID, got.ID)
		assert.Equal(t, "Ada Lovelace", got.Name)
		require.NotNil(t, got.BirthDate)
		assert.Equal(t, "1815-12-10", got.BirthDate.Format(domain.DateLayout))
	})

	t.Run("GetByID unknown", func(t *testing.T) {
		stores := newStores(t)
		_, err := stores.Students.GetByID(context.Background(), 999999)
		assert.ErrorIs(t, err, store.ErrStudentNotFound)
		assert.True(t, store.IsNotFoundError(err))
	})

	t.Run("List filters and orders by ID", func(t *testing.T) {
		stores := newStores(t)
		a := mustStudent(t, stores.Students, "Grace Hopper")
		b := mustStudent(t, stores.Students, "Edsger Dijkstra")
		c := mustStudent(t, stores.Students, "Grace Hopper")

		all, err := stores.Students.List(context.Background(), store.StudentFilter{})
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []int64{a.ID, b.ID, c.ID}, []int64{all[0].ID, all[1].ID, all[2].ID})

		byName, err := stores.Students.List(context.Background(), store.StudentFilter{Name: ptr("Grace Hopper")})
		require.NoError(t, err)
		require.Len(t, byName, 2)
		assert.Equal(t, a.ID, byName[0].ID)
		assert.Equal(t, c.ID, byName[1].ID)

		byID, err := stores.Students.List(context.Background(), store.StudentFilter{ID: &b.ID})
		require.NoError(t, err)
		require.Len(t, byID, 1)
		assert.Equal(t, "Edsger Dijkstra", byID[0].Name)

		none, err := stores.Students.List(context.Background(), store.StudentFilter{Name: ptr("nobody")})
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("Update", func(t *testing.T) {
		stores := newStores(t)
		student := mustStudent(t, stores.Students, "Barbara Liskov")
		require.NoError(t, student.Rename("Barbara H. Liskov"))
		birth := time.Date(1939, time.November, 7, 0, 0, 0, 0, time.UTC)
		require.NoError(t, student.SetBirthDate(&birth))
		require.NoError(t, stores.Students.Update(context.Background(), student))

		got, err := stores.Students.GetByID(context.Background(), student.ID)
		require.NoError(t, err)
		assert.Equal(t, "Barbara H. Liskov", got.Name)
		require.NotNil(t, got.BirthDate)
		assert.True(t, birth.Equal(*got.BirthDate))

		missing := &domain.Student{ID: 999999, Name: "ghost"}
		assert.ErrorIs(t, stores.Students.Update(context.Background(), missing), store.ErrStudentNotFound)
	})

	t.Run("Delete detaches from courses", func(t *testing.T) {
		stores := newStores(t)
		keep := mustStudent(t, stores.Students, "Ken Thompson")
		gone := mustStudent(t, stores.Students, "Dennis Ritchie")
		course := mustCourse(t, stores.Courses, "Unix", keep.ID, gone.ID)

		require.NoError(t, stores.Students.Delete(context.Background(), gone.ID))

		_, err := stores.Students.GetByID(context.Background(), gone.ID)
		assert.ErrorIs(t, err, store.ErrStudentNotFound)

		got, err := stores.Courses.GetByID(context.Background(), course.ID)
		require.NoError(t, err)
		assert.Equal(t, []int64{keep.ID}, got.StudentIDs)

		assert.ErrorIs(t, stores.Students.Delete(context.Background(), gone.ID), store.ErrStudentNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		stores := newStores(t)
		before, err := stores.Students.Count(context.Background())
		require.NoError(t, err)
		mustStudent(t, stores.Students, "Rob Pike")
		after, err := stores.Students.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})

	t.Run("ExistingIDs", func(t *testing.T) {
		stores := newStores(t)
		a := mustStudent(t, stores.Students, "Robert Griesemer")
		b := mustStudent(t, stores.Students, "Russ Cox")

		got, err := stores.Students.ExistingIDs(context.Background(), []int64{b.ID, 999999, a.ID, b.ID})
		require.NoError(t, err)
		assert.Equal(t, []int64{a.ID, b.ID}, got)

		empty, err := stores.Students.ExistingIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})
}

func runCourseContract(t *testing.T, newStores Factory) {
	t.Run("Create stores sorted students", func(t *testing.T) {
		stores := newStores(t)
		a := mustStudent(t, stores.Students, "Ada")
		b := mustStudent(t, stores.Students, "Bob")
		course := mustCourse(t, stores.Courses, "Algorithms", b.ID, a.ID, b.ID)

		assert.Positive(t, course.ID)
		got, err := stores.Courses.GetByID(context.Background(), course.ID)
		require.NoError(t, err)
		assert.Equal(t, "Algorithms", got.Name)
		assert.Equal(t, []int64{a.ID, b.ID}, got.StudentIDs)
	})

	t.Run("Create without students", func(t *testing.T) {
		stores := newStores(t)
		course := mustCourse(t, stores.Courses, "Empty")
		got, err := stores.Courses.GetByID(context.Background(), course.ID)
		require.NoError(t, err)
		assert.NotNil(t, got.StudentIDs)
		assert.Empty(t, got.StudentIDs)
	})

	t.Run("Create with unknown student", func(t *testing.T) {
		stores := newStores(t)
		course, err := domain.NewCourse("Broken", []int64{999999})
		require.NoError(t, err)
		err = stores.Courses.Create(context.Background(), course)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("IDs increase", func(t *testing.T) {
		stores := newStores(t)
		first := mustCourse(t, stores.Courses, "One")
		second := mustCourse(t, stores.Courses, "Two")
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("GetByID unknown", func(t *testing.T) {
		stores := newStores(t)
		_, err := stores.Courses.GetByID(context.Background(), 999999)
		assert.ErrorIs(t, err, store.ErrCourseNotFound)
	})

	t.Run("List filters", func(t *testing.T) {
		stores := newStores(t)
		a := mustCourse(t, stores.Courses, "Databases")
		b := mustCourse(t, stores.Courses, "Compilers")

		all, err := stores.Courses.List(context.Background(), store.CourseFilter{})
		require.NoError(t, err)
		require.Len(t, all, 2)
		assert.Equal(t, a.ID, all[0].ID)
		assert.Equal(t, b.ID, all[1].ID)

		byName, err := stores.Courses.List(context.Background(), store.CourseFilter{Name: ptr("Compilers")})
		require.NoError(t, err)
		require.Len(t, byName, 1)
		assert.Equal(t, b.ID, byName[0].ID)

		both, err := stores.Courses.List(context.Background(), store.CourseFilter{ID: &a.ID, Name: ptr("Compilers")})
		require.NoError(t, err)
		assert.Empty(t, both)
	})

	t.Run("Update replaces students", func(t *testing.T) {
		stores := newStores(t)
		a := mustStudent(t, stores.Students, "Ada")
		b := mustStudent(t, stores.Students, "Bob")
		c := mustStudent(t, stores.Students, "Cid")
		course := mustCourse(t, stores.Courses, "Networks", a.ID, b.ID)

		require.NoError(t, course.Rename("Computer Networks"))
		require.NoError(t, course.SetStudents([]int64{c.ID, b.ID}, 0))
		require.NoError(t, stores.Courses.Update(context.Background(), course))

		got, err := stores.Courses.GetByID(context.Background(), course.ID)
		require.NoError(t, err)
		assert.Equal(t, "Computer Networks", got.Name)
		assert.Equal(t, []int64{b.ID, c.ID}, got.StudentIDs)

		require.NoError(t, course.SetStudents(nil, 0))
		require.NoError(t, stores.Courses.Update(context.Background(), course))
		got, err = stores.Courses.GetByID(context.Background(), course.ID)
		require.NoError(t, err)
		assert.Empty(t, got.StudentIDs)
	})

	t.Run("Update unknown", func(t *testing.T) {
		stores := newStores(t)
		missing := &domain.Course{ID: 999999, Name: "ghost", StudentIDs: []int64{}}
		assert.ErrorIs(t, stores.Courses.Update(context.Background(), missing), store.ErrCourseNotFound)
	})

	t.Run("Update with unknown student", func(t *testing.T) {
		stores := newStores(t)
		course := mustCourse(t, stores.Courses, "Security")
		course.StudentIDs = []int64{999999}
		assert.ErrorIs(t, stores.Courses.Update(context.Background(), course), store.ErrInvalidEntity)
	})

	t.Run("Delete keeps students", func(t *testing.T) {
		stores := newStores(t)
		student := mustStudent(t, stores.Students, "Linus")
		course := mustCourse(t, stores.Courses, "Kernels", student.ID)

		require.NoError(t, stores.Courses.Delete(context.Background(), course.ID))
		_, err := stores.Courses.GetByID(context.Background(), course.ID)
		assert.ErrorIs(t, err, store.ErrCourseNotFound)

		_, err = stores.Students.GetByID(context.Background(), student.ID)
		assert.NoError(t, err)

		assert.ErrorIs(t, stores.Courses.Delete(context.Background(), course.ID), store.ErrCourseNotFound)
	})

	t.Run("Count", func(t *testing.T) {
		stores := newStores(t)
		before, err := stores.Courses.Count(context.Background())
		require.NoError(t, err)
		mustCourse(t, stores.Courses, "Graphics")
		after, err := stores.Courses.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, before+1, after)
	})
}
