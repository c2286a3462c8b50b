package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/platform/logger"
)

// Store holds courses and students in memory. The course and student views
// share one lock so that deleting a student and detaching it from courses is
// atomic.
type Store struct {
	mu sync.Mutex

	courses  map[int64]*domain.Course
	students map[int64]*domain.Student

	nextCourseID  int64
	nextStudentID int64

	logger *slog.Logger
}

// New creates an empty Store. A nil logger falls back to slog.Default.
func New(log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		courses:       make(map[int64]*domain.Course),
		students:      make(map[int64]*domain.Student),
		nextCourseID:  1,
		nextStudentID: 1,
		logger:        log.With(slog.String("component", "memory_store")),
	}
}

// Courses returns the course view of the store.
func (s *Store) Courses() *CourseStore {
	return &CourseStore{s: s}
}

// Students returns the student view of the store.
func (s *Store) Students() *StudentStore {
	return &StudentStore{s: s}
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

// missingStudents returns ids not present in the student map. Caller holds mu.
func (s *Store) missingStudents(ids []int64) []int64 {
	var missing []int64
	for _, id := range ids {
		if _, ok := s.students[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}

// sortedKeys returns the map keys in ascending order.
func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
