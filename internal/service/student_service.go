package service

import (
	"context"
	"log/slog"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/store"
)

// CreateStudentInput holds the fields accepted when creating a student.
// BirthDate is YYYY-MM-DD or empty.
type CreateStudentInput struct {
	Name      string
	BirthDate string
}

// UpdateStudentInput holds a partial student update. Nil fields are left
// unchanged; a BirthDate pointing to "" clears the date.
type UpdateStudentInput struct {
	Name      *string
	BirthDate *string
}

// StudentService provides student-related operations
type StudentService interface {
	List(ctx context.Context, filter store.StudentFilter) ([]*domain.Student, error)
	Get(ctx context.Context, id int64) (*domain.Student, error)
	Create(ctx context.Context, in CreateStudentInput) (*domain.Student, error)
	Update(ctx context.Context, id int64, in UpdateStudentInput) (*domain.Student, error)
	// Delete removes the student and detaches it from every course.
	Delete(ctx context.Context, id int64) error
	// Import creates students from an xlsx workbook and optionally enrolls
	// them in a course.
	Import(ctx context.Context, in ImportInput) (*ImportResult, error)
}

type studentServiceImpl struct {
	students    store.StudentStore
	courses     store.CourseStore
	maxStudents int
	logger      *slog.Logger
}

// NewStudentService creates a new StudentService.
func NewStudentService(
	students store.StudentStore,
	courses store.CourseStore,
	maxStudents int,
	logger *slog.Logger,
) (StudentService, error) {
	if students == nil {
		return nil, &ServiceError{Service: "student", Operation: "create_service", Message: "student store cannot be nil"}
	}
	if courses == nil {
		return nil, &ServiceError{Service: "student", Operation: "create_service", Message: "course store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studentServiceImpl{
		students:    students,
		courses:     courses,
		maxStudents: maxStudents,
		logger:      logger.With(slog.String("component", "student_service")),
	}, nil
}

func (s *studentServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func (s *studentServiceImpl) List(ctx context.Context, filter store.StudentFilter) ([]*domain.Student, error) {
	students, err := s.students.List(ctx, filter)
	if err != nil {
		return nil, newServiceError("student", "list", "failed to list students", err)
	}
	return students, nil
}

func (s *studentServiceImpl) Get(ctx context.Context, id int64) (*domain.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("student", "get", "failed to get student", err)
	}
	return student, nil
}

func (s *studentServiceImpl) Create(ctx context.Context, in CreateStudentInput) (*domain.Student, error) {
	birthDate, err := domain.ParseDate(in.BirthDate)
	if err != nil {
		return nil, err
	}
	student, err := domain.NewStudent(in.Name, birthDate)
	if err != nil {
		return nil, err
	}

	if err := s.students.Create(ctx, student); err != nil {
		return nil, newServiceError("student", "create", "failed to save student", err)
	}

	s.log(ctx).Info("student created", slog.Int64("student_id", student.ID))
	return student, nil
}

func (s *studentServiceImpl) Update(
	ctx context.Context,
	id int64,
	in UpdateStudentInput,
) (*domain.Student, error) {
	student, err := s.students.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("student", "update", "failed to load student", err)
	}

	if in.Name != nil {
		if err := student.Rename(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.BirthDate != nil {
		birthDate, err := domain.ParseDate(*in.BirthDate)
		if err != nil {
			return nil, err
		}
		if err := student.SetBirthDate(birthDate); err != nil {
			return nil, err
		}
	}

	if err := s.students.Update(ctx, student); err != nil {
		return nil, newServiceError("student", "update", "failed to save student", err)
	}

	s.log(ctx).Info("student updated", slog.Int64("student_id", student.ID))
	return student, nil
}

func (s *studentServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.students.Delete(ctx, id); err != nil {
		return newServiceError("student", "delete", "failed to delete student", err)
	}
	s.log(ctx).Info("student deleted", slog.Int64("student_id", id))
	return nil
}
