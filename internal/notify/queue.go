package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Job is one pending delivery attempt. The notification record is already
// persisted by the time a job is enqueued; the job only carries delivery.
type Job struct {
	NotificationID string      `json:"notification_id"`
	Recipient      Recipient   `json:"recipient"`
	Message        string      `json:"message"`
	Channel        ChannelKind `json:"channel"`
}

// Queue hands delivery jobs to the worker. Dequeue blocks until a job is
// available or ctx is done; a nil job with nil error means "poll again".
type Queue interface {
	Enqueue(ctx context.Context, job Job) error
	Dequeue(ctx context.Context) (*Job, error)
}

// MemoryQueue is a Queue backed by an in-memory buffered channel.
type MemoryQueue struct {
	ch chan Job
}

// NewMemoryQueue creates a MemoryQueue with the provided buffer capacity.
func NewMemoryQueue(buffer int) *MemoryQueue {
	if buffer <= 0 {
		buffer = 128
	}
	return &MemoryQueue{ch: make(chan Job, buffer)}
}

// Enqueue adds a job or blocks until ctx is done.
func (q *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case q.ch <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until a job is available or ctx is done.
func (q *MemoryQueue) Dequeue(ctx context.Context) (*Job, error) {
	select {
	case job := <-q.ch:
		return &job, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// RedisQueue is a Queue backed by a redis list, so delivery survives process
// restarts and can be drained by a separate worker process.
type RedisQueue struct {
	client *redis.Client
	key    string
	block  time.Duration
}

// NewRedisQueue creates a queue over the given redis list key.
func NewRedisQueue(client *redis.Client, key string) *RedisQueue {
	if client == nil {
		panic("notify: redis client required")
	}
	if key == "" {
		key = "salon:notify:jobs"
	}
	return &RedisQueue{client: client, key: key, block: time.Second}
}

// Enqueue pushes the job onto the list.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) error {
	data, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("notify: marshal job: %w", err)
	}
	if err := q.client.LPush(ctx, q.key, data).Err(); err != nil {
		return fmt.Errorf("notify: enqueue job: %w", err)
	}
	return nil
}

// Dequeue pops one job, blocking up to the poll interval. It returns
// (nil, nil) when the list stayed empty so the worker can re-check ctx.
func (q *RedisQueue) Dequeue(ctx context.Context) (*Job, error) {
	res, err := q.client.BRPop(ctx, q.block, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("notify: dequeue job: %w", err)
	}
	// BRPop returns [key, value].
	if len(res) != 2 {
		return nil, fmt.Errorf("notify: unexpected brpop reply of length %d", len(res))
	}
	var job Job
	if err := json.Unmarshal([]byte(res[1]), &job); err != nil {
		return nil, fmt.Errorf("notify: unmarshal job: %w", err)
	}
	return &job, nil
}

var (
	_ Queue = (*MemoryQueue)(nil)
	_ Queue = (*RedisQueue)(nil)
)
