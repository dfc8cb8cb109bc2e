// Package cache keeps each user's todo list close to the handlers.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/chepyr/go-todo/internal/models"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TodoCache stores the ordered list served by GET /todos.
//
// Every user's list carries a version that Invalidate bumps. GetList returns
// the version current at read time, even on a miss (nil tasks), and SetList
// stores only if the version is still the same. A list read from the database
// before a concurrent mutation therefore never lands in the cache after that
// mutation's Invalidate.
type TodoCache interface {
	GetList(ctx context.Context, userID uuid.UUID) ([]models.Task, int64, error)
	SetList(ctx context.Context, userID uuid.UUID, version int64, tasks []models.Task) error
	Invalidate(ctx context.Context, userID uuid.UUID) error
}

type NopCache struct{}

func (NopCache) GetList(context.Context, uuid.UUID) ([]models.Task, int64, error) {
	return nil, 0, nil
}
func (NopCache) SetList(context.Context, uuid.UUID, int64, []models.Task) error { return nil }
func (NopCache) Invalidate(context.Context, uuid.UUID) error                     { return nil }

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl}
}

func listKey(userID uuid.UUID) string {
	return "todos:list:" + userID.String()
}

func versionKey(userID uuid.UUID) string {
	return "todos:version:" + userID.String()
}

func parseVersion(v any) (int64, error) {
	s, ok := v.(string)
	if !ok {
		return 0, nil // never invalidated
	}
	return strconv.ParseInt(s, 10, 64)
}

func (c *RedisCache) GetList(ctx context.Context, userID uuid.UUID) ([]models.Task, int64, error) {
	vals, err := c.rdb.MGet(ctx, listKey(userID), versionKey(userID)).Result()
	if err != nil {
		return nil, 0, err
	}
	version, err := parseVersion(vals[1])
	if err != nil {
		return nil, 0, err
	}
	raw, ok := vals[0].(string)
	if !ok {
		return nil, version, nil // cache miss
	}

	tasks := []models.Task{}
	if err := json.Unmarshal([]byte(raw), &tasks); err != nil {
		return nil, 0, err
	}
	return tasks, version, nil
}

// SetList is a no-op when the list was invalidated after version was read.
func (c *RedisCache) SetList(ctx context.Context, userID uuid.UUID, version int64, tasks []models.Task) error {
	if tasks == nil {
		tasks = []models.Task{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return err
	}

	vkey := versionKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, vkey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, listKey(userID), data, c.ttl)
			return nil
		})
		return err
	}, vkey)
	if errors.Is(err, redis.TxFailedErr) {
		return nil // version moved while we were writing
	}
	return err
}

func (c *RedisCache) Invalidate(ctx context.Context, userID uuid.UUID) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, versionKey(userID))
		pipe.Del(ctx, listKey(userID))
		return nil
	})
	return err
}
