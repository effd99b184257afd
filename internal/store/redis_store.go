package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evyataryagoni/ipgeo/internal/models"
	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store with one capped Redis list per target.
//
// Key format: history:<target>
// Example: history:8.8.8.8
// Value: JSON-encoded HistoryRecord, newest at the head
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	retain int // maximum records kept per target
}

// NewRedisStore connects to Redis
//
// Parameters:
//   - addr: Redis server address (e.g., "localhost:6379")
//   - password: Redis password (empty string if no password)
//   - db: Redis database number
//   - retain: records kept per target; older ones are trimmed on write
func NewRedisStore(addr, password string, db, retain int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	if retain <= 0 {
		retain = 1
	}

	return &RedisStore{
		client: client,
		ctx:    ctx,
		retain: retain,
	}, nil
}

func historyKey(target string) string {
	return fmt.Sprintf("history:%s", target)
}

// Append pushes rec at the head of the target's list and trims the tail.
// Both commands run in one MULTI/EXEC.
func (s *RedisStore) Append(rec models.HistoryRecord) error {
	if rec.Target == "" {
		return ErrEmptyTarget
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to encode history record: %w", err)
	}

	key := historyKey(rec.Target)
	_, err = s.client.TxPipelined(s.ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(s.ctx, key, data)
		pipe.LTrim(s.ctx, key, 0, int64(s.retain-1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}

// Recent reads the head of the target's list
func (s *RedisStore) Recent(target string, limit int) ([]models.HistoryRecord, error) {
	if target == "" {
		return nil, ErrEmptyTarget
	}
	if limit <= 0 {
		return []models.HistoryRecord{}, nil
	}

	values, err := s.client.LRange(s.ctx, historyKey(target), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("Redis query failed: %w", err)
	}

	records := make([]models.HistoryRecord, 0, len(values))
	for _, val := range values {
		var rec models.HistoryRecord
		if err := json.Unmarshal([]byte(val), &rec); err != nil {
			return nil, fmt.Errorf("failed to decode history record: %w", err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}
