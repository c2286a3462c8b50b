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

// PostgresStudentStore implements the store.StudentStore interface
// using a PostgreSQL database as the storage backend.
type PostgresStudentStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresStudentStore creates a new PostgreSQL implementation of the StudentStore interface.
// If logger is nil, a default logger will be used.
func NewPostgresStudentStore(db store.DBTX, logger *slog.Logger) *PostgresStudentStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresStudentStore{
		db:     db,
		logger: logger.With(slog.String("component", "student_store")),
	}
}

var _ store.StudentStore = (*PostgresStudentStore)(nil)

// Create implements store.StudentStore.Create
func (s *PostgresStudentStore) Create(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := student.Validate(); err != nil {
		log.Warn("student validation failed during create",
			slog.String("error", err.Error()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO students (name, birth_date) VALUES ($1, $2) RETURNING id`,
		student.Name, birthDateArg(student),
	).Scan(&student.ID)
	if err != nil {
		log.Error("failed to create student", slog.String("error", err.Error()))
		return store.NewStoreError("student", "create", "failed to create student", MapError(err))
	}

	log.Info("student created successfully", slog.Int64("student_id", student.ID))
	return nil
}

// GetByID implements store.StudentStore.GetByID
// Returns store.ErrStudentNotFound if the student does not exist.
func (s *PostgresStudentStore) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	log.Debug("retrieving student by ID", slog.Int64("student_id", id))

	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, birth_date FROM students WHERE id = $1`, id)
	student, err := scanStudent(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("student not found", slog.Int64("student_id", id))
			return nil, store.ErrStudentNotFound
		}
		log.Error("failed to get student",
			slog.String("error", err.Error()),
			slog.Int64("student_id", id))
		return nil, MapError(err)
	}
	return student, nil
}

// List implements store.StudentStore.List
func (s *PostgresStudentStore) List(
	ctx context.Context,
	filter store.StudentFilter,
) ([]*domain.Student, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, name, birth_date
		FROM students
		WHERE ($1::bigint IS NULL OR id = $1)
		  AND ($2::text IS NULL OR name = $2)
		ORDER BY id
	`

	rows, err := s.db.QueryContext(ctx, query, filter.ID, filter.Name)
	if err != nil {
		log.Error("failed to list students", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	students := make([]*domain.Student, 0)
	for rows.Next() {
		student, err := scanStudent(rows)
		if err != nil {
			log.Error("failed to scan student row", slog.String("error", err.Error()))
			return nil, MapError(err)
		}
		students = append(students, student)
	}
	if err := rows.Err(); err != nil {
		log.Error("error iterating student rows", slog.String("error", err.Error()))
		return nil, MapError(err)
	}

	return students, nil
}

// Update implements store.StudentStore.Update
func (s *PostgresStudentStore) Update(ctx context.Context, student *domain.Student) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := student.Validate(); err != nil {
		log.Warn("student validation failed during update",
			slog.String("error", err.Error()),
			slog.Int64("student_id", student.ID))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE students SET name = $1, birth_date = $2 WHERE id = $3`,
		student.Name, birthDateArg(student), student.ID,
	)
	if err != nil {
		log.Error("failed to update student",
			slog.String("error", err.Error()),
			slog.Int64("student_id", student.ID))
		return store.NewStoreError("student", "update", "failed to update student", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrStudentNotFound); err != nil {
		log.Debug("student not found for update", slog.Int64("student_id", student.ID))
		return err
	}

	log.Info("student updated successfully", slog.Int64("student_id", student.ID))
	return nil
}

// Delete implements store.StudentStore.Delete
// Enrollments are removed by ON DELETE CASCADE on course_students.
func (s *PostgresStudentStore) Delete(ctx context.Context, id int64) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM students WHERE id = $1`, id)
	if err != nil {
		log.Error("failed to delete student",
			slog.String("error", err.Error()),
			slog.Int64("student_id", id))
		return store.NewStoreError("student", "delete", "failed to delete student", MapError(err))
	}
	if err := CheckRowsAffected(result, store.ErrStudentNotFound); err != nil {
		log.Debug("student not found for deletion", slog.Int64("student_id", id))
		return err
	}

	log.Info("student deleted successfully", slog.Int64("student_id", id))
	return nil
}

// Count implements store.StudentStore.Count
func (s *PostgresStudentStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM students`).Scan(&count); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to count students",
			slog.String("error", err.Error()))
		return 0, MapError(err)
	}
	return count, nil
}

// ExistingIDs implements store.StudentStore.ExistingIDs
func (s *PostgresStudentStore) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	existing, err := existingStudentIDs(ctx, s.db, domain.NormalizeIDs(ids))
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to look up students",
			slog.String("error", err.Error()),
			slog.Int("requested", len(ids)))
		return nil, MapError(err)
	}
	return existing, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStudent(row rowScanner) (*domain.Student, error) {
	var (
		student   domain.Student
		birthDate sql.NullTime
	)
	if err := row.Scan(&student.ID, &student.Name, &birthDate); err != nil {
		return nil, err
	}
	if birthDate.Valid {
		d := birthDate.Time.UTC()
		student.BirthDate = &d
	}
	return &student, nil
}

// birthDateArg renders the birth date as a DATE literal so no timezone
// conversion happens on the way in.
func birthDateArg(student *domain.Student) any {
	if student.BirthDate == nil {
		return nil
	}
	return student.BirthDate.Format(domain.DateLayout)
}
