package implementation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"uml-nli-be/internal/repository/contract"
	"uml-nli-be/pkg/store"

	"github.com/redis/go-redis/v9"
)

const historyPrefix = "nli:history:"

// RedisQueryHistoryRepository keeps one list per session. Every append
// pushes the TTL forward so active sessions keep their history.
type RedisQueryHistoryRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisQueryHistoryRepository(rdb *redis.Client, ttl time.Duration) contract.QueryHistoryRepository {
	return &RedisQueryHistoryRepository{rdb: rdb, ttl: ttl}
}

func (r *RedisQueryHistoryRepository) key(sessionID string) string {
	return fmt.Sprintf("%s%s", historyPrefix, sessionID)
}

func (r *RedisQueryHistoryRepository) Append(ctx context.Context, sessionID string, entry store.QueryHistoryEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal history entry: %w", err)
	}

	key := r.key(sessionID)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, key, data)
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

func (r *RedisQueryHistoryRepository) List(ctx context.Context, sessionID string) ([]store.QueryHistoryEntry, error) {
	raw, err := r.rdb.LRange(ctx, r.key(sessionID), 0, -1).Result()
	if err == redis.Nil {
		return []store.QueryHistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	entries := make([]store.QueryHistoryEntry, 0, len(raw))
	for _, item := range raw {
		var e store.QueryHistoryEntry
		if err := json.Unmarshal([]byte(item), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal history entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Clear drops the history of a session.
func (r *RedisQueryHistoryRepository) Clear(ctx context.Context, sessionID string) error {
	return r.rdb.Del(ctx, r.key(sessionID)).Err()
}
