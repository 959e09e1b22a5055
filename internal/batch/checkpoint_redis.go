package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"caseflow/internal/platform/redis"
	"caseflow/pkg/platform/sentinel"
)

// checkpointTTL keeps finished runs queryable for a week before Redis
// reclaims them.
const checkpointTTL = 7 * 24 * time.Hour

// RedisCheckpoints stores each run as a JSON blob keyed by run id.
type RedisCheckpoints struct {
	client *redis.Client
}

func NewRedisCheckpoints(client *redis.Client) *RedisCheckpoints {
	return &RedisCheckpoints{client: client}
}

func (s *RedisCheckpoints) Save(ctx context.Context, run *Run) error {
	payload, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("marshal run %s: %w", run.ID, err)
	}
	if err := s.client.Set(ctx, runKey(run.ID), payload, checkpointTTL).Err(); err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *RedisCheckpoints) Get(ctx context.Context, id string) (*Run, error) {
	payload, err := s.client.Get(ctx, runKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	var run Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("decode run %s: %w", id, err)
	}
	return &run, nil
}

func runKey(id string) string {
	return "batch:run:" + id
}
