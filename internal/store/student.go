package store

import (
	"context"

	"github.com/phrazzld/courses-api/internal/domain"
)

// StudentFilter selects students by exact field matches.
type StudentFilter struct {
	ID   *int64
	Name *string
}

// Matches reports whether the student satisfies the filter.
func (f StudentFilter) Matches(s *domain.Student) bool {
	if f.ID != nil && s.ID != *f.ID {
		return false
	}
	if f.Name != nil && s.Name != *f.Name {
		return false
	}
	return true
}

// StudentStore defines the interface for student persistence.
type StudentStore interface {
	// Create saves a new student and assigns its ID.
	Create(ctx context.Context, student *domain.Student) error

	// GetByID retrieves a student by its ID.
	// Returns ErrStudentNotFound if the student does not exist.
	GetByID(ctx context.Context, id int64) (*domain.Student, error)

	// List returns the students matching filter in ascending ID order.
	List(ctx context.Context, filter StudentFilter) ([]*domain.Student, error)

	// Update saves the student's name and birth date.
	// Returns ErrStudentNotFound if the student does not exist.
	Update(ctx context.Context, student *domain.Student) error

	// Delete removes a student and detaches it from every course.
	// Returns ErrStudentNotFound if the student does not exist.
	Delete(ctx context.Context, id int64) error

	// Count returns the number of stored students.
	Count(ctx context.Context) (int, error)

	// ExistingIDs returns the subset of ids that belong to stored students,
	// sorted ascending.
	ExistingIDs(ctx context.Context, ids []int64) ([]int64, error)
}
