package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"portfolio_api/internal/domain/model"

	"github.com/redis/go-redis/v9"
)

// ErrMalformedEvent reports a queue entry that could not be decoded. The
// entry has already been removed from the queue.
var ErrMalformedEvent = errors.New("malformed audit event")

// AuditQueue is a Redis list of JSON-encoded audit events. Producers LPUSH
// and the worker BRPOPs, so events are consumed oldest first.
type AuditQueue struct {
	rdb  redis.Cmdable
	name string
}

func NewAuditQueue(rdb redis.Cmdable, name string) *AuditQueue {
	return &AuditQueue{rdb: rdb, name: name}
}

func (q *AuditQueue) Name() string {
	return q.name
}

func (q *AuditQueue) Publish(ctx context.Context, event model.AuditEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	if err := q.rdb.LPush(ctx, q.name, payload).Err(); err != nil {
		return fmt.Errorf("push audit event to %s: %w", q.name, err)
	}
	return nil
}

// Pop blocks up to timeout for the next event. It returns (nil, nil) when
// the wait times out.
func (q *AuditQueue) Pop(ctx context.Context, timeout time.Duration) (*model.AuditEvent, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.name).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	// res is [queueName, value]
	if len(res) < 2 {
		return nil, fmt.Errorf("unexpected BRPOP reply of length %d", len(res))
	}
	var event model.AuditEvent
	if err := json.Unmarshal([]byte(res[1]), &event); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return &event, nil
}
