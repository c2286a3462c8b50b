package redisstore

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/courses-api/internal/domain"
	"github.com/phrazzld/courses-api/internal/store"
)

// CourseStore implements store.CourseStore on Redis.
type CourseStore struct {
	s *Store
}

var _ store.CourseStore = (*CourseStore)(nil)

// Create implements store.CourseStore.
func (c *CourseStore) Create(ctx context.Context, course *domain.Course) error {
	log := c.s.log(ctx)

	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	ids := domain.NormalizeIDs(course.StudentIDs)
	watched := make([]string, 0, len(ids))
	for _, id := range ids {
		watched = append(watched, c.s.studentKey(id))
	}

	var courseID int64
	err := c.s.watch(ctx, func(tx *redis.Tx) error {
		missing, err := c.s.missingStudents(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown students %v", store.ErrInvalidEntity, missing)
		}

		newID, err := tx.Incr(ctx, c.s.courseSeqKey()).Result()
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, c.s.courseKey(newID), "name", course.Name)
			pipe.ZAdd(ctx, c.s.coursesKey(), &redis.Z{Score: float64(newID), Member: newID})
			if len(ids) > 0 {
				pipe.SAdd(ctx, c.s.courseStudentsKey(newID), idMembers(ids)...)
			}
			for _, sid := range ids {
				pipe.SAdd(ctx, c.s.studentCoursesKey(sid), newID)
			}
			return nil
		})
		if err == nil {
			courseID = newID
		}
		return err
	}, watched...)
	if err != nil {
		log.Error("failed to create course", slog.String("error", err.Error()))
		return err
	}

	course.ID = courseID
	course.StudentIDs = ids

	log.Info("course created successfully",
		slog.Int64("course_id", courseID),
		slog.Int("students", len(ids)))
	return nil
}

// GetByID implements store.CourseStore.
func (c *CourseStore) GetByID(ctx context.Context, id int64) (*domain.Course, error) {
	courses, err := c.load(ctx, []int64{id})
	if err != nil {
		c.s.log(ctx).Error("failed to get course",
			slog.String("error", err.Error()),
			slog.Int64("course_id", id))
		return nil, err
	}
	if len(courses) == 0 {
		return nil, store.ErrCourseNotFound
	}
	return courses[0], nil
}

// List implements store.CourseStore.
func (c *CourseStore) List(ctx context.Context, filter store.CourseFilter) ([]*domain.Course, error) {
	var ids []int64
	if filter.ID != nil {
		ids = []int64{*filter.ID}
	} else {
		var err error
		if ids, err = c.s.rangeIDs(ctx, c.s.coursesKey()); err != nil {
			return nil, err
		}
	}

	loaded, err := c.load(ctx, ids)
	if err != nil {
		c.s.log(ctx).Error("failed to list courses", slog.String("error", err.Error()))
		return nil, err
	}

	result := make([]*domain.Course, 0, len(loaded))
	for _, course := range loaded {
		if filter.Matches(course) {
			result = append(result, course)
		}
	}
	return result, nil
}

// Update implements store.CourseStore.
func (c *CourseStore) Update(ctx context.Context, course *domain.Course) error {
	log := c.s.log(ctx)

	if err := course.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	id := course.ID
	ids := domain.NormalizeIDs(course.StudentIDs)
	watched := []string{c.s.courseKey(id), c.s.courseStudentsKey(id)}
	for _, sid := range ids {
		watched = append(watched, c.s.studentKey(sid))
	}

	err := c.s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, c.s.courseKey(id)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrCourseNotFound
		}

		missing, err := c.s.missingStudents(ctx, tx, ids)
		if err != nil {
			return err
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: unknown students %v", store.ErrInvalidEntity, missing)
		}

		members, err := tx.SMembers(ctx, c.s.courseStudentsKey(id)).Result()
		if err != nil {
			return err
		}
		previous, err := parseIDs(members)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, c.s.courseKey(id), "name", course.Name)
			pipe.Del(ctx, c.s.courseStudentsKey(id))
			if len(ids) > 0 {
				pipe.SAdd(ctx, c.s.courseStudentsKey(id), idMembers(ids)...)
			}
			for _, sid := range previous {
				pipe.SRem(ctx, c.s.studentCoursesKey(sid), id)
			}
			for _, sid := range ids {
				pipe.SAdd(ctx, c.s.studentCoursesKey(sid), id)
			}
			return nil
		})
		return err
	}, watched...)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to update course",
				slog.String("error", err.Error()),
				slog.Int64("course_id", id))
		}
		return err
	}

	course.StudentIDs = ids
	log.Info("course updated successfully", slog.Int64("course_id", id))
	return nil
}

// Delete implements store.CourseStore.
func (c *CourseStore) Delete(ctx context.Context, id int64) error {
	log := c.s.log(ctx)

	err := c.s.watch(ctx, func(tx *redis.Tx) error {
		exists, err := tx.Exists(ctx, c.s.courseKey(id)).Result()
		if err != nil {
			return err
		}
		if exists == 0 {
			return store.ErrCourseNotFound
		}

		members, err := tx.SMembers(ctx, c.s.courseStudentsKey(id)).Result()
		if err != nil {
			return err
		}
		enrolled, err := parseIDs(members)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, c.s.courseKey(id), c.s.courseStudentsKey(id))
			pipe.ZRem(ctx, c.s.coursesKey(), id)
			for _, sid := range enrolled {
				pipe.SRem(ctx, c.s.studentCoursesKey(sid), id)
			}
			return nil
		})
		return err
	}, c.s.courseKey(id), c.s.courseStudentsKey(id))
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Error("failed to delete course",
				slog.String("error", err.Error()),
				slog.Int64("course_id", id))
		}
		return err
	}

	log.Info("course deleted successfully", slog.Int64("course_id", id))
	return nil
}

// Count implements store.CourseStore.
func (c *CourseStore) Count(ctx context.Context) (int, error) {
	n, err := c.s.client.ZCard(ctx, c.s.coursesKey()).Result()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// load fetches the given courses in one round trip. IDs that do not exist
// are skipped.
func (c *CourseStore) load(ctx context.Context, ids []int64) ([]*domain.Course, error) {
	if len(ids) == 0 {
		return []*domain.Course{}, nil
	}

	hashes := make([]*redis.StringStringMapCmd, len(ids))
	members := make([]*redis.StringSliceCmd, len(ids))
	_, err := c.s.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			hashes[i] = pipe.HGetAll(ctx, c.s.courseKey(id))
			members[i] = pipe.SMembers(ctx, c.s.courseStudentsKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	courses := make([]*domain.Course, 0, len(ids))
	for i, id := range ids {
		fields := hashes[i].Val()
		if len(fields) == 0 {
			continue
		}
		studentIDs, err := parseIDs(members[i].Val())
		if err != nil {
			return nil, err
		}
		courses = append(courses, &domain.Course{
			ID:         id,
			Name:       fields["name"],
			StudentIDs: domain.NormalizeIDs(studentIDs),
		})
	}
	return courses, nil
}
