package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// maxStoredEntries bounds each per-user list; older entries are trimmed.
const maxStoredEntries = 500

// RedisLogRepository stores daily logs and food entries as JSON lists per user.
type RedisLogRepository struct {
	rdb redis.Cmdable
}

func NewRedisLogRepository(rdb redis.Cmdable) *RedisLogRepository {
	return &RedisLogRepository{rdb: rdb}
}

func dailyLogsKey(userID string) string {
	return fmt.Sprintf("user:%s:logs", userID)
}

func foodEntriesKey(userID string) string {
	return fmt.Sprintf("user:%s:food", userID)
}

func (r *RedisLogRepository) AddDailyLog(ctx context.Context, userID string, log model.DailyLog) error {
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	return pushJSON(ctx, r.rdb, dailyLogsKey(userID), log)
}

func (r *RedisLogRepository) AddFoodEntry(ctx context.Context, userID string, entry model.FoodEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	return pushJSON(ctx, r.rdb, foodEntriesKey(userID), entry)
}

func (r *RedisLogRepository) RecentDailyLogs(ctx context.Context, userID string, since time.Time) ([]model.DailyLog, error) {
	logs, err := loadJSON[model.DailyLog](ctx, r.rdb, dailyLogsKey(userID))
	if err != nil {
		return nil, err
	}
	return createdSince(logs, since, func(l model.DailyLog) time.Time { return l.CreatedAt }), nil
}

func (r *RedisLogRepository) RecentFoodEntries(ctx context.Context, userID string, since time.Time) ([]model.FoodEntry, error) {
	entries, err := loadJSON[model.FoodEntry](ctx, r.rdb, foodEntriesKey(userID))
	if err != nil {
		return nil, err
	}
	return createdSince(entries, since, func(f model.FoodEntry) time.Time { return f.CreatedAt }), nil
}

var _ model.LogRepository = (*RedisLogRepository)(nil)

func pushJSON(ctx context.Context, rdb redis.Cmdable, key string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to marshal entry")
		return fmt.Errorf("marshal entry: %w", err)
	}
	_, err = rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, b)
		pipe.LTrim(ctx, key, -maxStoredEntries, -1)
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push entry to redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func loadJSON[T any](ctx context.Context, rdb redis.Cmdable, key string) ([]T, error) {
	rows, err := rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to load entries from redis")
		return nil, errx.WrapRedis(err)
	}
	out := make([]T, 0, len(rows))
	for i, s := range rows {
		var v T
		if err := json.Unmarshal([]byte(s), &v); err != nil {
			logx.Error().Err(err).Str("key", key).Int("index", i).Msg("failed to unmarshal entry")
			return nil, fmt.Errorf("unmarshal entry at index %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// createdSince keeps the items created at or after since, in stored order.
func createdSince[T any](items []T, since time.Time, createdAt func(T) time.Time) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if !createdAt(it).Before(since) {
			out = append(out, it)
		}
	}
	return out
}
