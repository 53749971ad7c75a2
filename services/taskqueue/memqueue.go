package taskqueue

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/domain/governance"
)

const defaultVisibilityTimeout = 30 * time.Second

// envelope is the in-memory queue's internal record for one enqueued
// message: the message itself plus delivery/visibility bookkeeping.
type envelope struct {
	message   governance.TaskMessage
	receipt   Receipt
	sequence  int64
	enqueued  time.Time
	visibleAt time.Time // message invisible until now >= visibleAt (delay)
	inFlightUntil time.Time // zero means not currently delivered
}

type memQueueState struct {
	mu       sync.Mutex
	messages []*envelope
	seq      int64
}

// MemQueue is the in-memory reference Queue implementation: a
// priority-ordered list per queue name, grounded on the scheduler's
// heap-over-priority approach but keyed by queue rather than schedule.
type MemQueue struct {
	mu     sync.Mutex
	queues map[string]*memQueueState
	now    func() time.Time
	visibilityTimeout time.Duration
}

// NewMemQueue creates an empty in-memory Queue.
func NewMemQueue() *MemQueue {
	return &MemQueue{
		queues:             make(map[string]*memQueueState),
		now:                time.Now,
		visibilityTimeout:  defaultVisibilityTimeout,
	}
}

func (q *MemQueue) stateFor(name string) (*memQueueState, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	st, ok := q.queues[name]
	if !ok {
		return nil, fmt.Errorf("taskqueue: queue %q does not exist", name)
	}
	return st, nil
}

// CreateQueue registers an empty queue under name.
func (q *MemQueue) CreateQueue(ctx context.Context, name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.queues[name]; ok {
		return nil
	}
	q.queues[name] = &memQueueState{}
	return nil
}

// DeleteQueue removes a queue and all its in-flight/pending messages.
func (q *MemQueue) DeleteQueue(ctx context.Context, name string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.queues, name)
	return nil
}

// SendTask enqueues msg onto queueName, returning its message id.
func (q *MemQueue) SendTask(ctx context.Context, queueName string, msg governance.TaskMessage) (string, error) {
	st, err := q.stateFor(queueName)
	if err != nil {
		return "", err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Priority == 0 {
		msg.Priority = governance.PriorityNormal
	}

	st.seq++
	now := q.now()
	e := &envelope{
		message:   msg,
		receipt:   Receipt(uuid.New().String()),
		sequence:  st.seq,
		enqueued:  now,
		visibleAt: now.Add(time.Duration(msg.DelaySeconds) * time.Second),
	}
	st.messages = append(st.messages, e)
	return msg.ID, nil
}

// ReceiveTasks returns up to max visible messages in priority order
// (critical first; ties broken by insertion order), skipping messages
// still delayed or currently in flight to another receiver (property
// P10).
func (q *MemQueue) ReceiveTasks(ctx context.Context, queueName string, max int) ([]ReceivedMessage, error) {
	st, err := q.stateFor(queueName)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := q.now()
	for _, e := range st.messages {
		if !e.inFlightUntil.IsZero() && now.After(e.inFlightUntil) {
			e.inFlightUntil = time.Time{} // visibility timeout expired, redeliverable
		}
	}

	var candidates []*envelope
	for _, e := range st.messages {
		if e.inFlightUntil.IsZero() && !now.Before(e.visibleAt) {
			candidates = append(candidates, e)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].message.Priority != candidates[j].message.Priority {
			return candidates[i].message.Priority < candidates[j].message.Priority
		}
		return candidates[i].sequence < candidates[j].sequence
	})

	if max > 0 && len(candidates) > max {
		candidates = candidates[:max]
	}

	out := make([]ReceivedMessage, 0, len(candidates))
	for _, e := range candidates {
		e.inFlightUntil = now.Add(q.visibilityTimeout)
		out = append(out, ReceivedMessage{Receipt: e.receipt, Message: e.message.Clone()})
	}
	return out, nil
}

// DeleteTask removes the message identified by receipt, acknowledging
// successful processing.
func (q *MemQueue) DeleteTask(ctx context.Context, queueName string, receipt Receipt) error {
	st, err := q.stateFor(queueName)
	if err != nil {
		return err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	for i, e := range st.messages {
		if e.receipt == receipt {
			st.messages = append(st.messages[:i], st.messages[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("taskqueue: receipt %q not found in queue %q", receipt, queueName)
}

// GetStats returns the current visible-plus-delayed count and in-flight
// count for queueName.
func (q *MemQueue) GetStats(ctx context.Context, queueName string) (QueueStats, error) {
	st, err := q.stateFor(queueName)
	if err != nil {
		return QueueStats{}, err
	}

	st.mu.Lock()
	defer st.mu.Unlock()

	now := q.now()
	stats := QueueStats{QueueName: queueName}
	for _, e := range st.messages {
		if !e.inFlightUntil.IsZero() && now.Before(e.inFlightUntil) {
			stats.InFlight++
		} else {
			stats.ApproximateMessageCount++
		}
	}
	return stats, nil
}

var _ Queue = (*MemQueue)(nil)
