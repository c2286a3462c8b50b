package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/postgres"
	"github.com/phrazzld/courses-api/internal/store"
)

// arrayConverter lets []int64 arguments through to the mock the way the pgx
// driver accepts them.
type arrayConverter struct{}

func (arrayConverter) ConvertValue(v any) (driver.Value, error) {
	if ids, ok := v.([]int64); ok {
		return ids, nil
	}
	return driver.DefaultParameterConverter.ConvertValue(v)
}

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.ValueConverterOption(arrayConverter{}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func q(s string) string { return regexp.QuoteMeta(s) }

func TestPostgresCourseStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("inserts course and enrollments in a transaction", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id FROM students WHERE id = ANY($1)")).
			WithArgs([]int64{1, 2}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
		mock.ExpectQuery(q("INSERT INTO courses (name) VALUES ($1) RETURNING id")).
			WithArgs("Math").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
		mock.ExpectExec(q("INSERT INTO course_students")).
			WithArgs(int64(7), []int64{1, 2}).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		course, err := domain.NewCourse("Math", []int64{2, 1, 2})
		require.NoError(t, err)
		require.NoError(t, courses.Create(context.Background(), course))

		assert.Equal(t, int64(7), course.ID)
		assert.Equal(t, []int64{1, 2}, course.StudentIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without students skips the join table", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(q("INSERT INTO courses")).
			WithArgs("Empty").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectCommit()

		course, err := domain.NewCourse("Empty", nil)
		require.NoError(t, err)
		require.NoError(t, courses.Create(context.Background(), course))
		assert.Equal(t, int64(1), course.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown student rolls back", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT id FROM students")).
			WithArgs([]int64{1, 99}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
		mock.ExpectRollback()

		course, err := domain.NewCourse("Math", []int64{1, 99})
		require.NoError(t, err)
		err = courses.Create(context.Background(), course)
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.Zero(t, course.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("invalid course never reaches the database", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		err := courses.Create(context.Background(), &domain.Course{Name: ""})
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
		assert.ErrorIs(t, err, domain.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("runs inside a caller transaction", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)

		mock.ExpectBegin()
		tx, err := db.Begin()
		require.NoError(t, err)
		courses := postgres.NewPostgresCourseStore(tx, nil)

		mock.ExpectQuery(q("INSERT INTO courses")).
			WithArgs("Nested").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectRollback()

		course, err := domain.NewCourse("Nested", nil)
		require.NoError(t, err)
		require.NoError(t, courses.Create(context.Background(), course))
		require.NoError(t, tx.Rollback())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresCourseStore_GetByID(t *testing.T) {
	t.Parallel()

	t.Run("found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectQuery(q("WHERE c.id = $1 GROUP BY c.id")).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "students"}).
				AddRow(3, "Math", "{2,5}"))

		course, err := courses.GetByID(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, &domain.Course{ID: 3, Name: "Math", StudentIDs: []int64{2, 5}}, course)
	})

	t.Run("empty enrollment", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectQuery(q("FROM courses c")).
			WithArgs(int64(4)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "students"}).
				AddRow(4, "Art", "{}"))

		course, err := courses.GetByID(context.Background(), 4)
		require.NoError(t, err)
		assert.NotNil(t, course.StudentIDs)
		assert.Empty(t, course.StudentIDs)
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectQuery(q("FROM courses c")).
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "students"}))

		_, err := courses.GetByID(context.Background(), 9)
		assert.ErrorIs(t, err, store.ErrCourseNotFound)
	})

	t.Run("database error is not reported as not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectQuery(q("FROM courses c")).
			WithArgs(int64(9)).
			WillReturnError(errors.New("connection refused"))

		_, err := courses.GetByID(context.Background(), 9)
		require.Error(t, err)
		assert.False(t, store.IsNotFoundError(err))
	})
}

func TestPostgresCourseStore_List(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	courses := postgres.NewPostgresCourseStore(db, nil)

	name := "Math"
	mock.ExpectQuery(q("ORDER BY c.id")).
		WithArgs(nil, "Math").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "students"}).
			AddRow(1, "Math", "{1}").
			AddRow(4, "Math", "{}"))

	got, err := courses.List(context.Background(), store.CourseFilter{Name: &name})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, []int64{1}, got[0].StudentIDs)
	assert.Equal(t, int64(4), got[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresCourseStore_Update(t *testing.T) {
	t.Parallel()

	t.Run("replaces enrollments", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE courses SET name = $1 WHERE id = $2")).
			WithArgs("Physics", int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(q("SELECT id FROM students")).
			WithArgs([]int64{3}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectExec(q("DELETE FROM course_students WHERE course_id = $1")).
			WithArgs(int64(2)).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(q("INSERT INTO course_students")).
			WithArgs(int64(2), []int64{3}).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		course := &domain.Course{ID: 2, Name: "Physics", StudentIDs: []int64{3}}
		require.NoError(t, courses.Update(context.Background(), course))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE courses")).
			WithArgs("Physics", int64(42)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := courses.Update(context.Background(), &domain.Course{ID: 42, Name: "Physics"})
		assert.ErrorIs(t, err, store.ErrCourseNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresCourseStore_Delete(t *testing.T) {
	t.Parallel()
	db, mock := newMock(t)
	courses := postgres.NewPostgresCourseStore(db, nil)

	mock.ExpectExec(q("DELETE FROM courses WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(q("DELETE FROM courses WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, courses.Delete(context.Background(), 1))
	assert.ErrorIs(t, courses.Delete(context.Background(), 1), store.ErrCourseNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWriteFailuresCarryStoreContext(t *testing.T) {
	t.Parallel()

	t.Run("student create keeps the mapped cause", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("INSERT INTO students")).
			WithArgs("Ada", nil).
			WillReturnError(newPgError("23505"))

		err := students.Create(context.Background(), &domain.Student{Name: "Ada"})
		require.Error(t, err)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "student", storeErr.Entity)
		assert.Equal(t, "create", storeErr.Operation)
		assert.ErrorIs(t, err, store.ErrDuplicate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("course delete on a broken connection", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectExec(q("DELETE FROM courses WHERE id = $1")).
			WithArgs(int64(3)).
			WillReturnError(errors.New("connection reset"))

		err := courses.Delete(context.Background(), 3)

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "course", storeErr.Entity)
		assert.Equal(t, "delete", storeErr.Operation)
		assert.False(t, store.IsNotFoundError(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("course update still reports not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		courses := postgres.NewPostgresCourseStore(db, nil)

		mock.ExpectBegin()
		mock.ExpectExec(q("UPDATE courses SET name = $1 WHERE id = $2")).
			WithArgs("Math", int64(8)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := courses.Update(context.Background(), &domain.Course{ID: 8, Name: "Math"})

		var storeErr *store.StoreError
		require.ErrorAs(t, err, &storeErr)
		assert.Equal(t, "update", storeErr.Operation)
		assert.ErrorIs(t, err, store.ErrCourseNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPostgresStudentStore(t *testing.T) {
	t.Parallel()

	birth := time.Date(1815, time.December, 10, 0, 0, 0, 0, time.UTC)

	t.Run("Create sends the date as YYYY-MM-DD", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("INSERT INTO students (name, birth_date) VALUES ($1, $2) RETURNING id")).
			WithArgs("Ada", "1815-12-10").
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(11))

		student, err := domain.NewStudent("Ada", &birth)
		require.NoError(t, err)
		require.NoError(t, students.Create(context.Background(), student))
		assert.Equal(t, int64(11), student.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GetByID with and without birth date", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("SELECT id, name, birth_date FROM students WHERE id = $1")).
			WithArgs(int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "birth_date"}).AddRow(1, "Ada", birth))
		mock.ExpectQuery(q("SELECT id, name, birth_date FROM students WHERE id = $1")).
			WithArgs(int64(2)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name", "birth_date"}).AddRow(2, "Bob", nil))

		ada, err := students.GetByID(context.Background(), 1)
		require.NoError(t, err)
		require.NotNil(t, ada.BirthDate)
		assert.True(t, birth.Equal(*ada.BirthDate))

		bob, err := students.GetByID(context.Background(), 2)
		require.NoError(t, err)
		assert.Nil(t, bob.BirthDate)
	})

	t.Run("GetByID not found", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("FROM students WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnError(sql.ErrNoRows)

		_, err := students.GetByID(context.Background(), 5)
		assert.ErrorIs(t, err, store.ErrStudentNotFound)
	})

	t.Run("Update and Delete report missing rows", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectExec(q("UPDATE students SET name = $1, birth_date = $2 WHERE id = $3")).
			WithArgs("Ada", nil, int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q("DELETE FROM students WHERE id = $1")).
			WithArgs(int64(5)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := students.Update(context.Background(), &domain.Student{ID: 5, Name: "Ada"})
		assert.ErrorIs(t, err, store.ErrStudentNotFound)
		assert.ErrorIs(t, students.Delete(context.Background(), 5), store.ErrStudentNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("ExistingIDs normalizes input", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("SELECT id FROM students WHERE id = ANY($1) ORDER BY id")).
			WithArgs([]int64{1, 3, 8}).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(8))

		got, err := students.ExistingIDs(context.Background(), []int64{8, 1, 3, 1})
		require.NoError(t, err)
		assert.Equal(t, []int64{1, 8}, got)

		none, err := students.ExistingIDs(context.Background(), nil)
		require.NoError(t, err)
		assert.Empty(t, none)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Count", func(t *testing.T) {
		t.Parallel()
		db, mock := newMock(t)
		students := postgres.NewPostgresStudentStore(db, nil)

		mock.ExpectQuery(q("SELECT COUNT(*) FROM students")).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

		n, err := students.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 3, n)
	})
}
