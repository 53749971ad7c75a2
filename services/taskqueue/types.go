// Package taskqueue implements the provider-agnostic queue abstraction,
// worker pool, and auto-scaler (spec.md §4.H). Two backends are provided:
// an in-memory reference queue and a Redis-backed queue; both honor the
// same priority-ordering and delayed-visibility contract.
package taskqueue

import (
	"context"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

// TaskStatus tracks a dispatched TaskMessage's lifecycle as observed by a
// Worker.
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
)

// QueueStats summarizes a queue's current depth (spec.md §4.H getStats).
type QueueStats struct {
	QueueName              string
	ApproximateMessageCount int
	InFlight                int
}

// Receipt identifies one delivered message for later deletion
// (acknowledgement).
type Receipt string

// TaskResult is recorded by a Worker after a handler completes.
type TaskResult struct {
	TaskID      string
	Status      TaskStatus
	Result      map[string]any
	Error       string
	CompletedAt time.Time
}

// TaskProgress is the latest known state of a dispatched task, returned
// by Worker.GetTaskProgress.
type TaskProgress struct {
	TaskID    string
	Status    TaskStatus
	UpdatedAt time.Time
}

// Handler processes one TaskMessage and returns a TaskResult, or an error
// if the message should not be deleted (will be retried per queue
// visibility semantics).
type Handler func(ctx context.Context, msg governance.TaskMessage) (TaskResult, error)

// Queue is the provider-agnostic surface every backend implements
// (spec.md §4.H "Queue abstraction"). Receive must return messages in
// priority order: critical before high before normal before low, ties
// broken by insertion order (property P10). Delayed messages are
// invisible until now >= enqueuedAt + delaySeconds.
type Queue interface {
	CreateQueue(ctx context.Context, name string) error
	DeleteQueue(ctx context.Context, name string) error
	SendTask(ctx context.Context, queueName string, msg governance.TaskMessage) (string, error)
	ReceiveTasks(ctx context.Context, queueName string, max int) ([]ReceivedMessage, error)
	DeleteTask(ctx context.Context, queueName string, receipt Receipt) error
	GetStats(ctx context.Context, queueName string) (QueueStats, error)
}

// ReceivedMessage pairs a delivery receipt with the message it names.
type ReceivedMessage struct {
	Receipt Receipt
	Message governance.TaskMessage
}
