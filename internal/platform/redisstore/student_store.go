package redisstore

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// StudentStore implements store.StudentStore on Redis.
type StudentStore struct {
	s *Store
}

var _ store.StudentStore = (*StudentStore)(nil)

func studentFields(student *domain.Student) map[string]interface{} {
	birthDate := ""
	if formatted := domain.FormatDate(student.BirthDate); formatted != nil {
		birthDate = *formatted
	}
	return map[string]interface{}{
		"name":       student.Name,
		"birth_date": birthDate,
	}
}

// Create implements store.StudentStore.
func (st *StudentStore) Create(ctx context.Context, student *domain.Student) error {
	log := st.s.log(ctx)

	if err := student.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	id, err := st.s.client.Incr(ctx, st.s.studentSeqKey()).Result()
	if err != nil {
		log.Error("failed to allocate student id", slog.String("error", err.Error()))
		return err
	}

	_, err = st.s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, st.s.studentKey(id), studentFields(student))
		pipe.ZAdd(ctx, st.s.studentsKey(), &redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		log.Error("failed to create student", slog.String("error", err.Error()))
		return err
	}

	student.ID = id
	log.Info("student created successfully", slog.Int64("student_id", id))
	return nil
}

// GetByID implements store.StudentStore.
func (st *StudentStore) GetByID(ctx context.Context, id int64) (*domain.Student, error) {
	students, err := st.load(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	if len(students) == 0 {
		return nil, store.ErrStudentNotFound
	}
	return students[0], nil
}

// List implements store.StudentStore.
func (st *StudentStore) List(ctx context.Context, filter store.StudentFilter) ([]*domain.Student, error) {
	var ids []int64
	if filter.ID != nil {
		ids = []int64{*filter.ID}
	} else {
		var err error
		if ids, err = st.s.rangeIDs(ctx, st.s.studentsKey()); err != nil {
			return nil, err
		}
	}

	loaded, err := st.load(ctx, ids)
	if err != nil {
		st.s.log(ctx).Error("failed to list students", slog.String("error", err.Error()))
		return nil, err
	}

	result := make([]*domain.Student, 0, len(loaded))
	for _, student := range loaded {
		if filter.Matches(student) {
			result = append(result, student)
		}
	}
	return result, nil
}

// Update implements store.StudentStore.
func (st *StudentStore) Update(ctx context.Context, student *domain.Student) error {
	if err := student.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	key := st.s.studentKey(student.ID)
	err := st.s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrStudentNotFound
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, studentFields(student))
			return nil
		})
		return err
	}, key)
	if err != nil {
		return err
	}

	st.s.log(ctx).Info("student updated successfully", slog.Int64("student_id", student.ID))
	return nil
}

// Delete implements store.StudentStore. The student is removed from the
// enrollment set of every course it belonged to.
func (st *StudentStore) Delete(ctx context.Context, id int64) error {
	key := st.s.studentKey(id)
	coursesKey := st.s.studentCoursesKey(id)

	var detached int
	err := st.s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, key).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrStudentNotFound
		}

		members, err := tx.SMembers(ctx, coursesKey).Result()
		if err != nil {
			return err
		}
		courseIDs, err := parseIDs(members)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, key, coursesKey)
			pipe.ZRem(ctx, st.s.studentsKey(), id)
			for _, cid := range courseIDs {
				pipe.SRem(ctx, st.s.courseStudentsKey(cid), id)
			}
			return nil
		})
		detached = len(courseIDs)
		return err
	}, key, coursesKey)
	if err != nil {
		return err
	}

	st.s.log(ctx).Info("student deleted successfully",
		slog.Int64("student_id", id),
		slog.Int("detached_courses", detached))
	return nil
}

// Count implements store.StudentStore.
func (st *StudentStore) Count(ctx context.Context) (int, error) {
	n, err := st.s.client.ZCard(ctx, st.s.studentsKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// ExistingIDs implements store.StudentStore.
func (st *StudentStore) ExistingIDs(ctx context.Context, ids []int64) ([]int64, error) {
	ids = domain.NormalizeIDs(ids)
	missing, err := st.s.missingStudents(ctx, st.s.client, ids)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(ids, func(id int64) bool {
		return slices.Contains(missing, id)
	}), nil
}

func (st *StudentStore) load(ctx context.Context, ids []int64) ([]*domain.Student, error) {
	if len(ids) == 0 {
		return []*domain.Student{}, nil
	}

	cmds := make([]*redis.StringStringMapCmd, len(ids))
	_, err := st.s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, st.s.studentKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	students := make([]*domain.Student, 0, len(ids))
	for i, id := range ids {
		fields := cmds[i].Val()
		if len(fields) == 0 {
			continue
		}
		student := &domain.Student{ID: id, Name: fields["name"]}
		if raw := fields["birth_date"]; raw != "" {
			d, err := time.Parse(domain.DateLayout, raw)
			if err != nil {
				return nil, fmt.Errorf("corrupt birth date for student %d: %w", id, err)
			}
			student.BirthDate = &d
		}
		students = append(students, student)
	}
	return students, nil
}
