package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/phrazzld/courses-api/internal/platform/logger"
	"github.com/phrazzld/courses-api/internal/store"
)

// maxTxRetries bounds optimistic-lock retries for a single write.
const maxTxRetries = 10

// Store holds the Redis client and key prefix shared by the course and
// student views.
type Store struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewClient parses a redis:// URL and verifies the server is reachable.
func NewClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}

// New creates a Store writing keys under prefix.
func New(client *redis.Client, prefix string, log *slog.Logger) *Store {
	if client == nil {
		panic("redis client cannot be nil")
	}
	if log == nil {
		log = slog.Default()
	}
	return &Store{
		client: client,
		prefix: prefix,
		logger: log.With(slog.String("component", "redis_store")),
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

// Flush deletes every key under the store prefix.
func (s *Store) Flush(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, s.prefix+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	return s.client.Del(ctx, keys...).Err()
}

func (s *Store) log(ctx context.Context) *slog.Logger {
	return logger.FromContextOrDefault(ctx, s.logger)
}

func (s *Store) key(parts ...string) string {
	k := s.prefix
	for _, p := range parts {
		k += ":" + p
	}
	return k
}

func (s *Store) courseSeqKey() string  { return s.key("seq", "course") }
func (s *Store) studentSeqKey() string { return s.key("seq", "student") }
func (s *Store) coursesKey() string    { return s.key("courses") }
func (s *Store) studentsKey() string   { return s.key("students") }

func (s *Store) courseKey(id int64) string {
	return s.key("course", strconv.FormatInt(id, 10))
}

func (s *Store) courseStudentsKey(id int64) string {
	return s.key("course", strconv.FormatInt(id, 10), "students")
}

func (s *Store) studentKey(id int64) string {
	return s.key("student", strconv.FormatInt(id, 10))
}

func (s *Store) studentCoursesKey(id int64) string {
	return s.key("student", strconv.FormatInt(id, 10), "courses")
}

// watch runs fn under WATCH keys, retrying when EXEC aborts because a
// watched key was modified.
func (s *Store) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for attempt := 0; attempt < maxTxRetries; attempt++ {
		err := s.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		s.log(ctx).Debug("redis transaction conflict, retrying", slog.Int("attempt", attempt+1))
	}
	return fmt.Errorf("%w: too many concurrent modifications", store.ErrTransactionFailed)
}

// pipeliner is satisfied by both *redis.Client and *redis.Tx.
type pipeliner interface {
	Pipelined(ctx context.Context, fn func(redis.Pipeliner) error) ([]redis.Cmder, error)
}

// missingStudents returns the ids whose student hash does not exist.
func (s *Store) missingStudents(ctx context.Context, c pipeliner, ids []int64) ([]int64, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	cmds := make([]*redis.IntCmd, len(ids))
	_, err := c.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.Exists(ctx, s.studentKey(id))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var missing []int64
	for i, cmd := range cmds {
		if cmd.Val() == 0 {
			missing = append(missing, ids[i])
		}
	}
	return missing, nil
}

// rangeIDs returns all IDs from an ID index in ascending order.
func (s *Store) rangeIDs(ctx context.Context, key string) ([]int64, error) {
	members, err := s.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	return parseIDs(members)
}

func parseIDs(members []string) ([]int64, error) {
	ids := make([]int64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseInt(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("corrupt id %q: %w", m, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func idMembers(ids []int64) []interface{} {
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return members
}
