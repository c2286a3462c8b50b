package store

import (
	"context"

	"github.com/phrazzld/courses-api/internal/domain"
)

// CourseFilter selects courses by exact field matches.
// Nil fields are ignored; set fields are combined with AND.
type CourseFilter struct {
	ID   *int64
	Name *string
}

// Matches reports whether the course satisfies the filter.
func (f CourseFilter) Matches(c *domain.Course) bool {
	if f.ID != nil && c.ID != *f.ID {
		return false
	}
	if f.Name != nil && c.Name != *f.Name {
		return false
	}
	return true
}

// CourseStore defines the interface for course persistence.
// Every implementation keeps Course.StudentIDs sorted ascending.
type CourseStore interface {
	// Create saves a new course together with its student relation and
	// assigns its ID. IDs are assigned sequentially.
	// Returns ErrInvalidEntity if a referenced student does not exist.
	Create(ctx context.Context, course *domain.Course) error

	// GetByID retrieves a course by its ID.
	// Returns ErrCourseNotFound if the course does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Course, error)

	// List returns the courses matching filter in ascending ID order.
	// Returns an empty, non-nil slice if nothing matches.
	List(ctx context.Context, filter CourseFilter) ([]*domain.Course, error)

	// Update saves the course name and replaces its student relation.
	// Returns ErrCourseNotFound if the course does not exist.
	Update(ctx context.Context, course *domain.Course) error

	// Delete removes a course. Enrolled students are not removed.
	// Returns ErrCourseNotFound if the course does not exist.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored courses.
	Count(ctx context.Context) (int, error)
}
