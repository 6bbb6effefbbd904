package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"quill/internal/metrics"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const DefaultRedisKey = "quill:tasks"

// RedisQueue keeps jobs in a Redis list: producers LPUSH, the worker BRPOPs,
// so jobs survive a restart of the API process.
type RedisQueue struct {
	client   *redis.Client
	key      string
	registry *Registry
	log      *zap.Logger
	wait     time.Duration
}

func NewRedisQueue(client *redis.Client, key string, registry *Registry, log *zap.Logger) *RedisQueue {
	return &RedisQueue{
		client:   client,
		key:      key,
		registry: registry,
		log:      log,
		wait:     5 * time.Second,
	}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return err
	}
	metrics.JobEnqueued(job.Name)
	return nil
}

func (q *RedisQueue) Run(ctx context.Context) {
	for {
		if ctx.Err() != nil {
			return
		}

		res, err := q.client.BRPop(ctx, q.wait, q.key).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			q.log.Error("redis queue read failed", zap.Error(err))
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		// res is [key, value]
		var job Job
		if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
			q.log.Error("discarding malformed job", zap.Error(err))
			continue
		}
		_ = q.registry.Dispatch(ctx, job)
	}
}
