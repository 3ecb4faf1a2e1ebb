package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/health-assistant-core/server/internal/agent/model"
	errx "github.com/health-assistant-core/server/internal/core/error"
	logx "github.com/health-assistant-core/server/pkg/logger"
)

// RedisSessionStore keeps every session as a list of JSON turns plus a
// counter key. Both keys share the session TTL, refreshed on every write.
type RedisSessionStore struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedisSessionStore(rdb redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb, ttl: ttl}
}

func turnsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:turns", sessionID)
}

func clarificationsKey(sessionID string) string {
	return fmt.Sprintf("session:%s:clarifications", sessionID)
}

func (r *RedisSessionStore) Load(ctx context.Context, sessionID string) (*model.Session, error) {
	key := turnsKey(sessionID)

	rows, err := r.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		logx.Error().Err(err).Str("key", key).Msg("failed to load session turns from redis")
		return nil, errx.WrapRedis(err)
	}

	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			logx.Error().Err(err).Str("session_id", sessionID).Int("index", i).Msg("failed to unmarshal turn")
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}

	attempts := 0
	raw, err := r.rdb.Get(ctx, clarificationsKey(sessionID)).Result()
	switch {
	case errors.Is(err, redis.Nil):
	case err != nil:
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to load clarification counter from redis")
		return nil, errx.WrapRedis(err)
	default:
		if attempts, err = strconv.Atoi(raw); err != nil {
			return nil, fmt.Errorf("parse clarification counter %q: %w", raw, err)
		}
	}

	return &model.Session{ID: sessionID, Turns: turns, ClarificationAttempts: attempts}, nil
}

func (r *RedisSessionStore) Append(ctx context.Context, sessionID string, turn model.Turn) error {
	b, err := json.Marshal(turn)
	if err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to marshal turn")
		return fmt.Errorf("marshal turn: %w", err)
	}
	key := turnsKey(sessionID)

	if err := r.rdb.RPush(ctx, key, b).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to push turn to redis")
		return errx.WrapRedis(err)
	}
	return r.touch(ctx, key)
}

func (r *RedisSessionStore) ReplaceTurns(ctx context.Context, sessionID string, turns []model.Turn) error {
	key := turnsKey(sessionID)
	values := make([]any, 0, len(turns))
	for _, t := range turns {
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal turn: %w", err)
		}
		values = append(values, b)
	}

	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(values) > 0 {
			pipe.RPush(ctx, key, values...)
			if r.ttl > 0 {
				pipe.Expire(ctx, key, r.ttl)
			}
		}
		return nil
	})
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to replace session turns in redis")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) SetClarificationAttempts(ctx context.Context, sessionID string, attempts int) error {
	key := clarificationsKey(sessionID)
	if err := r.rdb.Set(ctx, key, attempts, r.ttl).Err(); err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to store clarification counter")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.rdb.Del(ctx, turnsKey(sessionID), clarificationsKey(sessionID)).Err(); err != nil {
		logx.Error().Err(err).Str("session_id", sessionID).Msg("failed to delete session from redis")
		return errx.WrapRedis(err)
	}
	return nil
}

// touch extends the TTL of key.
func (r *RedisSessionStore) touch(ctx context.Context, key string) error {
	if r.ttl <= 0 {
		return nil
	}
	ok, err := r.rdb.Expire(ctx, key, r.ttl).Result()
	if err != nil {
		logx.Error().Err(err).Str("key", key).Msg("failed to set expire")
		return errx.WrapRedis(err)
	}
	if !ok {
		logx.Warn().Str("key", key).Dur("ttl", r.ttl).Msg("failed to set TTL on session key")
	}
	return nil
}

var _ model.SessionStore = (*RedisSessionStore)(nil)
