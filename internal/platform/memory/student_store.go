package memory

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// StudentStore implements store.StudentStore on top of a Store.
type StudentStore struct {
	s *Store
}

var _ store.StudentStore = (*StudentStore)(nil)

// Create implements store.StudentStore.
func (st *StudentStore) Create(ctx context.Context, student *domain.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	student.ID = st.s.nextStudentID
	st.s.nextStudentID++
	st.s.students[student.ID] = student.Clone()

	st.s.log(ctx).Debug("student created", slog.Int64("student_id", student.ID))
	return nil
}

// GetByID implements store.StudentStore.
func (st *StudentStore) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	student, ok := st.s.students[id]
	if !ok {
		return nil, store.ErrStudentNotFound
	}
	return student.Clone(), nil
}

// List implements store.StudentStore.
func (st *StudentStore) List(ctx context.Context, filter store.StudentFilter) ([]*domain.Student, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	result := make([]*domain.Student, 0, len(st.s.students))
	for _, id := range sortedKeys(st.s.students) {
		student := st.s.students[id]
		if filter.Matches(student) {
			result = append(result, student.Clone())
		}
	}
	return result, nil
}

// Update implements store.StudentStore.
func (st *StudentStore) Update(ctx context.Context, student *domain.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, ok := st.s.students[student.ID]; !ok {
		return store.ErrStudentNotFound
	}
	st.s.students[student.ID] = student.Clone()

	st.s.log(ctx).Debug("student updated", slog.Int64("student_id", student.ID))
	return nil
}

// Delete implements store.StudentStore. The student is removed from every
// course it was enrolled in.
func (st *StudentStore) Delete(ctx context.Context, id int64) error {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	if _, ok := st.s.students[id]; !ok {
		return store.ErrStudentNotFound
	}
	delete(st.s.students, id)

	detached := 0
	for _, course := range st.s.courses {
		if i, found := slices.BinarySearch(course.StudentIDs, id); found {
			course.StudentIDs = slices.Delete(course.StudentIDs, i, i+1)
			detached++
		}
	}

	st.s.log(ctx).Debug("student deleted",
		slog.Int64("student_id", id),
		slog.Int("detached_courses", detached))
	return nil
}

// Count implements store.StudentStore.
func (st *StudentStore) Count(ctx context.Context) (int, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()
	return len(st.s.students), nil
}

// ExistingIDs implements store.StudentStore.
func (st *StudentStore) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	st.s.mu.Lock()
	defer st.s.mu.Unlock()

	existing := make([]int64, 0, len(ids))
	for _, id := range domain.NormalizeIDs(ids) {
		if _, ok := st.s.students[id]; ok {
			existing = append(existing, id)
		}
	}
	return existing, nil
}
