package queue

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisQueue carries scene ids from the API to the worker. The API pushes on the
// left and the worker pops from the right, so requests are served in order.
type RedisQueue struct {
	rdb       redis.Cmdable
	queueName string
}

func NewRedisQueue(rdb redis.Cmdable, queueName string) *RedisQueue {
	return &RedisQueue{rdb: rdb, queueName: queueName}
}

// Push enqueues a preflight request (LPUSH).
func (q *RedisQueue) Push(ctx context.Context, sceneID string) error {
	return q.rdb.LPush(ctx, q.queueName, sceneID).Err()
}

// Pop blocks up to timeout for a request (BRPOP). An empty id with a nil error
// means the wait timed out.
func (q *RedisQueue) Pop(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.queueName).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", err
	}
	if len(res) < 2 {
		return "", nil
	}
	return res[1], nil
}

// Len is the number of pending requests.
func (q *RedisQueue) Len(ctx context.Context) (int64, error) {
	return q.rdb.LLen(ctx, q.queueName).Result()
}
