package taskqueue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
)

// priorityScoreShift positions priority in the high bits of a sorted-set
// score and insertion sequence in the low bits, so ZRANGE naturally
// yields priority order with insertion order as the tiebreak — the
// client-side-merge composition spec.md §9 calls for when priority
// ordering isn't a native feature of the backing queue.
const priorityScoreShift = 1 << 40

// RedisQueue is a Redis-backed Queue implementation. Pending messages
// live in a per-queue sorted set scored by priority+sequence; in-flight
// (received, not yet deleted) messages move to a second sorted set
// scored by visibility-timeout expiry so they can be reclaimed.
type RedisQueue struct {
	client            *redis.Client
	visibilityTimeout time.Duration
	now               func() time.Time
	seq               int64
}

// NewRedisQueue wraps an existing go-redis client.
func NewRedisQueue(client *redis.Client) *RedisQueue {
	return &RedisQueue{
		client:            client,
		visibilityTimeout: defaultVisibilityTimeout,
		now:               time.Now,
	}
}

type redisEnvelope struct {
	Message   governance.TaskMessage `json:"message"`
	Receipt   string                 `json:"receipt"`
	VisibleAt time.Time              `json:"visible_at"`
}

func (q *RedisQueue) pendingKey(name string) string  { return fmt.Sprintf("taskqueue:%s:pending", name) }
func (q *RedisQueue) inflightKey(name string) string  { return fmt.Sprintf("taskqueue:%s:inflight", name) }
func (q *RedisQueue) messagesKey(name string) string  { return fmt.Sprintf("taskqueue:%s:messages", name) }

// CreateQueue is a no-op for Redis: keys are created lazily on first use.
func (q *RedisQueue) CreateQueue(ctx context.Context, name string) error {
	return nil
}

// DeleteQueue removes every key associated with name.
func (q *RedisQueue) DeleteQueue(ctx context.Context, name string) error {
	return q.client.Del(ctx, q.pendingKey(name), q.inflightKey(name), q.messagesKey(name)).Err()
}

// SendTask enqueues msg, scoring it by priority (high bits) and an
// incrementing sequence (low bits) so ZRANGE returns priority order with
// insertion order as the tiebreak.
func (q *RedisQueue) SendTask(ctx context.Context, queueName string, msg governance.TaskMessage) (string, error) {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Priority == 0 {
		msg.Priority = governance.PriorityNormal
	}

	q.seq++
	score := float64(int64(msg.Priority)*priorityScoreShift + q.seq)

	env := redisEnvelope{
		Message:   msg,
		Receipt:   uuid.New().String(),
		VisibleAt: q.now().Add(time.Duration(msg.DelaySeconds) * time.Second),
	}
	payload, err := json.Marshal(env)
	if err != nil {
		return "", fmt.Errorf("taskqueue: marshal envelope: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.HSet(ctx, q.messagesKey(queueName), msg.ID, payload)
	pipe.ZAdd(ctx, q.pendingKey(queueName), &redis.Z{Score: score, Member: msg.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("taskqueue: send task: %w", err)
	}
	return msg.ID, nil
}

// ReceiveTasks reclaims expired in-flight messages, then returns up to
// max visible pending messages in score order (priority, then sequence).
func (q *RedisQueue) ReceiveTasks(ctx context.Context, queueName string, max int) ([]ReceivedMessage, error) {
	if err := q.reclaimExpired(ctx, queueName); err != nil {
		return nil, err
	}

	ids, err := q.client.ZRange(ctx, q.pendingKey(queueName), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("taskqueue: range pending: %w", err)
	}

	now := q.now()
	out := make([]ReceivedMessage, 0, max)
	for _, id := range ids {
		if max > 0 && len(out) >= max {
			break
		}
		raw, err := q.client.HGet(ctx, q.messagesKey(queueName), id).Result()
		if err != nil {
			continue
		}
		var env redisEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		if now.Before(env.VisibleAt) {
			continue // still delayed
		}

		env.Receipt = uuid.New().String()
		payload, _ := json.Marshal(env)

		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, q.pendingKey(queueName), id)
		pipe.ZAdd(ctx, q.inflightKey(queueName), &redis.Z{
			Score:  float64(now.Add(q.visibilityTimeout).UnixNano()),
			Member: id,
		})
		pipe.HSet(ctx, q.messagesKey(queueName), id, payload)
		if _, err := pipe.Exec(ctx); err != nil {
			continue
		}

		out = append(out, ReceivedMessage{Receipt: Receipt(env.Receipt), Message: env.Message.Clone()})
	}
	return out, nil
}

// reclaimExpired moves in-flight messages whose visibility timeout has
// passed back onto the pending set, redeliverable to the next receiver.
func (q *RedisQueue) reclaimExpired(ctx context.Context, queueName string) error {
	now := float64(q.now().UnixNano())
	expired, err := q.client.ZRangeByScore(ctx, q.inflightKey(queueName), &redis.ZRangeBy{
		Min: "-inf", Max: fmt.Sprintf("%f", now),
	}).Result()
	if err != nil {
		return fmt.Errorf("taskqueue: range inflight: %w", err)
	}
	for _, id := range expired {
		raw, err := q.client.HGet(ctx, q.messagesKey(queueName), id).Result()
		if err != nil {
			continue
		}
		var env redisEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		q.seq++
		score := float64(int64(env.Message.Priority)*priorityScoreShift + q.seq)
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, q.inflightKey(queueName), id)
		pipe.ZAdd(ctx, q.pendingKey(queueName), &redis.Z{Score: score, Member: id})
		if _, err := pipe.Exec(ctx); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTask removes the message backing receipt, acknowledging
// successful processing.
func (q *RedisQueue) DeleteTask(ctx context.Context, queueName string, receipt Receipt) error {
	ids, err := q.client.HKeys(ctx, q.messagesKey(queueName)).Result()
	if err != nil {
		return fmt.Errorf("taskqueue: list messages: %w", err)
	}
	for _, id := range ids {
		raw, err := q.client.HGet(ctx, q.messagesKey(queueName), id).Result()
		if err != nil {
			continue
		}
		var env redisEnvelope
		if err := json.Unmarshal([]byte(raw), &env); err != nil {
			continue
		}
		if env.Receipt != string(receipt) {
			continue
		}
		pipe := q.client.TxPipeline()
		pipe.ZRem(ctx, q.inflightKey(queueName), id)
		pipe.ZRem(ctx, q.pendingKey(queueName), id)
		pipe.HDel(ctx, q.messagesKey(queueName), id)
		_, err = pipe.Exec(ctx)
		return err
	}
	return fmt.Errorf("taskqueue: receipt %q not found in queue %q", receipt, queueName)
}

// GetStats reports the pending and in-flight cardinality for queueName.
func (q *RedisQueue) GetStats(ctx context.Context, queueName string) (QueueStats, error) {
	pending, err := q.client.ZCard(ctx, q.pendingKey(queueName)).Result()
	if err != nil {
		return QueueStats{}, err
	}
	inflight, err := q.client.ZCard(ctx, q.inflightKey(queueName)).Result()
	if err != nil {
		return QueueStats{}, err
	}
	return QueueStats{
		QueueName:               queueName,
		ApproximateMessageCount: int(pending),
		InFlight:                int(inflight),
	}, nil
}

var _ Queue = (*RedisQueue)(nil)
