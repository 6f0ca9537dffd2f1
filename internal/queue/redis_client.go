package queue

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TaskList is the Redis list parse tasks are pushed to.
const TaskList = "dp:tasks"

// RedisClient is a queue backed by a Redis list. Producers LPUSH and the
// worker BRPOPs, so tasks are delivered oldest first.
type RedisClient struct {
	client *redis.Client
	list   string
}

// NewRedisClient connects to the given Redis address and database.
func NewRedisClient(addr, password string, db int) *RedisClient {
	return &RedisClient{
		client: redis.NewClient(&redis.Options{
			Addr:     addr,
			Password: password,
			DB:       db,
		}),
		list: TaskList,
	}
}

// Send pushes a message onto the task list.
func (r *RedisClient) Send(ctx context.Context, msg Message) error {
	payload, err := EncodeMessage(msg)
	if err != nil {
		return fmt.Errorf("encode queue message: %w", err)
	}
	if err := r.client.LPush(ctx, r.list, payload).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	return nil
}

// Receive blocks up to wait for the next message body. A timeout with no
// message returns "" and a nil error.
func (r *RedisClient) Receive(ctx context.Context, wait time.Duration) (string, error) {
	vals, err := r.client.BRPop(ctx, wait, r.list).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("redis brpop: %w", err)
	}
	// BRPOP returns [list, value].
	if len(vals) != 2 {
		return "", fmt.Errorf("redis brpop: unexpected reply of %d values", len(vals))
	}
	return vals[1], nil
}

// Ping verifies the Redis connection.
func (r *RedisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

var _ Client = (*RedisClient)(nil)
var _ Receiver = (*RedisClient)(nil)
