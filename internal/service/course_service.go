package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/store"
)

// CreateCourseInput holds the fields accepted when creating a course.
type CreateCourseInput struct {
	Name       string
	StudentIDs []int64
}

// UpdateCourseInput holds a partial course update. Nil fields are left
// unchanged; a non-nil StudentIDs replaces the whole enrollment.
type UpdateCourseInput struct {
	Name       *string
	StudentIDs *[]int64
}

// CourseService provides course-related operations
type CourseService interface {
	List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, error)
	Get(ctx context.Context, id int64) (*domain.Course, error)
	Create(ctx context.Context, in CreateCourseInput) (*domain.Course, error)
	Update(ctx context.Context, id int64, in UpdateCourseInput) (*domain.Course, error)
	Delete(ctx context.Context, id int64) error
}

type courseServiceImpl struct {
	courses     store.CourseStore
	students    store.StudentStore
	maxStudents int
	logger      *slog.Logger
}

// NewCourseService creates a new CourseService.
// maxStudents <= 0 disables the enrollment limit.
func NewCourseService(
	courses store.CourseStore,
	students store.StudentStore,
	maxStudents int,
	logger *slog.Logger,
) (CourseService, error) {
	if courses == nil {
		return nil, &ServiceError{Service: "course", Operation: "create_service", Message: "course store cannot be nil"}
	}
	if students == nil {
		return nil, &ServiceError{Service: "course", Operation: "create_service", Message: "student store cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &courseServiceImpl{
		courses:     courses,
		students:    students,
		maxStudents: maxStudents,
		logger:      logger.With(slog.String("component", "course_service")),
	}, nil
}

func (s *courseServiceImpl) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// List returns the courses matching filter.
func (s *courseServiceImpl) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, error) {
	courses, err := s.courses.List(ctx, filter)
	if err != nil {
		return nil, newServiceError("course", "list", "failed to list courses", err)
	}
	return courses, nil
}

// Get returns a single course.
func (s *courseServiceImpl) Get(ctx context.Context, id int64) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("course", "get", "failed to get course", err)
	}
	return course, nil
}

// Create validates the input, checks that every referenced student exists and
// stores the course.
func (s *courseServiceImpl) Create(ctx context.Context, in CreateCourseInput) (*domain.Course, error) {
	course, err := domain.NewCourse(in.Name, nil)
	if err != nil {
		return nil, err
	}
	if err := course.SetStudents(in.StudentIDs, s.maxStudents); err != nil {
		return nil, err
	}
	if err := s.checkStudents(ctx, course.StudentIDs); err != nil {
		return nil, err
	}

	if err := s.courses.Create(ctx, course); err != nil {
		return nil, newServiceError("course", "create", "failed to save course", err)
	}

	s.log(ctx).Info("course created",
		slog.Int64("course_id", course.ID),
		slog.Int("students", len(course.StudentIDs)))
	return course, nil
}

// Update applies a partial update to an existing course.
func (s *courseServiceImpl) Update(
	ctx context.Context,
	id int64,
	in UpdateCourseInput,
) (*domain.Course, error) {
	course, err := s.courses.GetByID(ctx, id)
	if err != nil {
		return nil, newServiceError("course", "update", "failed to load course", err)
	}

	if in.Name != nil {
		if err := course.Rename(*in.Name); err != nil {
			return nil, err
		}
	}
	if in.StudentIDs != nil {
		if err := course.SetStudents(*in.StudentIDs, s.maxStudents); err != nil {
			return nil, err
		}
		if err := s.checkStudents(ctx, course.StudentIDs); err != nil {
			return nil, err
		}
	}

	if err := s.courses.Update(ctx, course); err != nil {
		return nil, newServiceError("course", "update", "failed to save course", err)
	}

	s.log(ctx).Info("course updated", slog.Int64("course_id", course.ID))
	return course, nil
}

// Delete removes a course.
func (s *courseServiceImpl) Delete(ctx context.Context, id int64) error {
	if err := s.courses.Delete(ctx, id); err != nil {
		return newServiceError("course", "delete", "failed to delete course", err)
	}
	s.log(ctx).Info("course deleted", slog.Int64("course_id", id))
	return nil
}

// checkStudents returns ErrUnknownStudents when any id is not stored.
func (s *courseServiceImpl) checkStudents(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}

	existing, err := s.students.ExistingIDs(ctx, ids)
	if err != nil {
		return newServiceError("course", "check_students", "failed to look up students", err)
	}
	if len(existing) == len(ids) {
		return nil
	}

	missing := make([]int64, 0, len(ids)-len(existing))
	known := make(map[int64]struct{}, len(existing))
	for _, id := range existing {
		known[id] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := known[id]; !ok {
			missing = append(missing, id)
		}
	}
	return fmt.Errorf("%w: %v", ErrUnknownStudents, missing)
}
