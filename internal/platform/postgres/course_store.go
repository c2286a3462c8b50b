package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/store"
)

// courseColumns selects a course with its sorted student IDs aggregated from
// the join table. Courses without students get an empty array, not NULL.
const courseColumns = `
	SELECT c.id, c.name,
		COALESCE(
			array_agg(cs.student_id ORDER BY cs.student_id)
				FILTER (WHERE cs.student_id IS NOT NULL),
			'{}'
		)
	FROM courses c
	LEFT JOIN course_students cs ON cs.course_id = c.id
`

// PostgresCourseStore implements the store.CourseStore interface
// using a PostgreSQL database as the storage backend.
type PostgresCourseStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresCourseStore creates a new PostgreSQL implementation of the CourseStore interface.
// It accepts a database connection or transaction that should be initialized and managed by the caller.
// If logger is nil, a default logger will be used.
func NewPostgresCourseStore(db store.DBTX, logger *slog.Logger) *PostgresCourseStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresCourseStore{
		db:     db,
		logger: logger.With(slog.String("component", "course_store")),
	}
}

// Ensure PostgresCourseStore implements store.CourseStore interface
var _ store.CourseStore = (*PostgresCourseStore)(nil)

// Create implements store.CourseStore.Create
// It inserts the course row and its enrollments in one transaction.
// Returns store.ErrInvalidEntity if a referenced student does not exist.
func (s *PostgresCourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during create",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	ids := domain.NormalizeIDs(course.StudentIDs)
	var courseID int64

	err := withTx(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		if err := ensureStudentsExist(ctx, q, ids); err != nil {
			return err
		}

		err := q.QueryRowContext(ctx,
			`INSERT INTO courses (name) VALUES ($1) RETURNING id`,
			course.Name,
		).Scan(&courseID)
		if err != nil {
			return MapError(err)
		}

		return insertEnrollments(ctx, q, courseID, ids)
	})
	if err != nil {
		log.Error("failed to create course",
			slog.String("error", err.Error()),
			slog.Int("students", len(ids)))
		return store.NewStoreError("course", "create", "failed to create course", err)
	}

	course.ID = courseID
	course.StudentIDs = ids

	log.Info("course created successfully",
		slog.Int64("course_id", course.ID),
		slog.Int("students", len(ids)))
	return nil
}

// GetByID implements store.CourseStore.GetByID
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCourseStore) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving course by ID", slog.Int64("course_id", id))

	query := courseColumns + `WHERE c.id = $1 GROUP BY c.id`

	var course domain.Course
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&course.ID,
		&course.Name,
		int64Array(&course.StudentIDs),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("course not found", slog.Int64("course_id", id))
			return nil, store.ErrCourseNotFound
		}
		log.Error("failed to get course",
			slog.String("error", err.Error()),
			slog.Int64("course_id", id))
		return nil, MapError(err)
	}

	course.StudentIDs = domain.NormalizeIDs(course.StudentIDs)
	return &course, nil
}

// List implements store.CourseStore.List
// Unset filter fields are passed as NULL and match every row.
func (s *PostgresCourseStore) List(
	ctx context.Context,
	filter store.CourseFilter,
) ([]*domain.Course, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := courseColumns + `
		WHERE ($1::bigint IS NULL OR c.id = $1)
		  AND ($2::text IS NULL OR c.name = $2)
		GROUP BY c.id
		ORDER BY c.id
	`

	rows, err := s.db.QueryContext(ctx, query, filter.ID, filter.Name)
	if err != nil {
		log.Error("failed to list courses", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	courses := make([]*domain.Course, 0)
	for rows.Next() {
		var course domain.Course
		if err := rows.Scan(&course.ID, &course.Name, int64Array(&course.StudentIDs)); err != nil {
			log.Error("failed to scan course row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		course.StudentIDs = domain.NormalizeIDs(course.StudentIDs)
		courses = append(courses, &course)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating course rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	log.Debug("listed courses", slog.Int("count", len(courses)))
	return courses, nil
}

// Update implements store.CourseStore.Update
// The enrollment rows are replaced wholesale with course.StudentIDs.
// Returns store.ErrCourseNotFound if the course does not exist.
func (s *PostgresCourseStore) Update(ctx context.Context, course *domain.Course) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := course.Validate(); err != nil {
		log.Warn("course validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("course_id", course.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	ids := domain.NormalizeIDs(course.StudentIDs)

	err := withTx(ctx, s.db, func(ctx context.Context, q store.DBTX) error {
		result, err := q.ExecContext(ctx,
			`UPDATE courses SET name = $1 WHERE id = $2`,
			course.Name, course.ID,
		)
		if err != nil {
			return MapError(err)
		}
		if err := CheckRowsAffected(result, store.ErrCourseNotFound); err != nil {
			return err
		}

		if err := ensureStudentsExist(ctx, q, ids); err != nil {
			return err
		}

		if _, err := q.ExecContext(ctx,
			`DELETE FROM course_students WHERE course_id = $1`,
			course.ID,
		); err != nil {
			return MapError(err)
		}

		return insertEnrollments(ctx, q, course.ID, ids)
	})
	if err != nil {
		if errors.Is(err, store.ErrCourseNotFound) {
			log.Debug("course not found for update", slog.Int64("course_id", course.ID))
		} else {
			log.Error("failed to update course",
				slog.String("error", err.Error()),
				slog.Int64("course_id", course.ID))
		}
		return store.NewStoreError("course", "update", "failed to update course", err)
	}

	course.StudentIDs = ids

	log.Info("course updated successfully",
		slog.Int64("course_id", course.ID),
		slog.Int("students", len(ids)))
	return nil
}

// Delete implements store.CourseStore.Delete
// Enrollment rows are removed by ON DELETE CASCADE.
func (s *PostgresCourseStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete course",
			slog.String("error", err.Error()),
			slog.Int64("course_id", id))
		return store.NewStoreError("course", "delete", "failed to delete course", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrCourseNotFound); err != nil {
		log.Debug("course not found for deletion", slog.Int64("course_id", id))
		return err
	}

	log.Info("course deleted successfully", slog.Int64("course_id", id))
	return nil
}

// Count implements store.CourseStore.Count
func (s *PostgresCourseStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM courses`).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count courses",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return count, nil
}

// ensureStudentsExist rejects enrollments of unknown students before any
// insert, so a caller-owned transaction is not aborted by a foreign key error.
func ensureStudentsExist(ctx context.Context, q store.DBTX, ids []int64) error {
	existing, err := existingStudentIDs(ctx, q, ids)
	if err != nil {
		return MapError(err)
	}
	if len(existing) != len(ids) {
		return fmt.Errorf("%w: %d of %d students do not exist",
			store.ErrInvalidEntity, len(ids)-len(existing), len(ids))
	}
	return nil
}

func insertEnrollments(ctx context.Context, q store.DBTX, courseID int64, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := q.ExecContext(ctx,
		`INSERT INTO course_students (course_id, student_id) SELECT $1, unnest($2::bigint[])`,
		courseID, ids,
	)
	return MapError(err)
}
