package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// CourseStore implements store.CourseStore on top of a Store.
type CourseStore struct {
	s *Store
}

var _ store.CourseStore = (*CourseStore)(nil)

// Create implements store.CourseStore.
func (c *CourseStore) Create(ctx context.Context, course *domain.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	ids := domain.NormalizeIDs(course.StudentIDs)
	if missing := c.s.missingStudents(ids); len(missing) > 0 {
		return fmt.Errorf("%w: unknown students %v", store.ErrInvalidEntity, missing)
	}

	course.ID = c.s.nextCourseID
	course.StudentIDs = ids
	c.s.nextCourseID++
	c.s.courses[course.ID] = course.Clone()

	c.s.log(ctx).Debug("course created",
		slog.Int64("course_id", course.ID),
		slog.Int("students", len(ids)))
	return nil
}

// GetByID implements store.CourseStore.
func (c *CourseStore) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	course, ok := c.s.courses[id]
	if !ok {
		return nil, store.ErrCourseNotFound
	}
	return course.Clone(), nil
}

// List implements store.CourseStore.
func (c *CourseStore) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	result := make([]*domain.Course, 0, len(c.s.courses))
	for _, id := range sortedKeys(c.s.courses) {
		course := c.s.courses[id]
		if filter.Matches(course) {
			result = append(result, course.Clone())
		}
	}
	return result, nil
}

// Update implements store.CourseStore.
func (c *CourseStore) Update(ctx context.Context, course *domain.Course) error {
	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.courses[course.ID]; !ok {
		return store.ErrCourseNotFound
	}

	ids := domain.NormalizeIDs(course.StudentIDs)
	if missing := c.s.missingStudents(ids); len(missing) > 0 {
		return fmt.Errorf("%w: unknown students %v", store.ErrInvalidEntity, missing)
	}

	course.StudentIDs = ids
	c.s.courses[course.ID] = course.Clone()

	c.s.log(ctx).Debug("course updated", slog.Int64("course_id", course.ID))
	return nil
}

// Delete implements store.CourseStore.
func (c *CourseStore) Delete(ctx context.Context, id int64) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()

	if _, ok := c.s.courses[id]; !ok {
		return store.ErrCourseNotFound
	}
	delete(c.s.courses, id)

	c.s.log(ctx).Debug("course deleted", slog.Int64("course_id", id))
	return nil
}

// Count implements store.CourseStore.
func (c *CourseStore) Count(ctx context.Context) (int, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	return len(c.s.courses), nil
}
