package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/regulatory-governance/core/infrastructure/logging"
)

// Worker polls one queue and dispatches received messages to the handler
// registered for their task type (spec.md §4.H "Worker").
type Worker struct {
	queue     Queue
	queueName string
	batchSize int
	logger    *logging.Logger

	mu       sync.Mutex
	handlers map[string]Handler
	progress map[string]TaskProgress
	results  map[string]TaskResult
}

// WorkerConfig configures a Worker.
type WorkerConfig struct {
	QueueName string
	BatchSize int
	Logger    *logging.Logger
}

// NewWorker creates a Worker over queue, dispatching to handlers.
func NewWorker(queue Queue, cfg WorkerConfig, handlers map[string]Handler) *Worker {
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = 10
	}
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Worker{
		queue:     queue,
		queueName: cfg.QueueName,
		batchSize: batch,
		logger:    cfg.Logger,
		handlers:  handlers,
		progress:  make(map[string]TaskProgress),
		results:   make(map[string]TaskResult),
	}
}

// RegisterHandler binds handler to taskType, replacing any existing one.
func (w *Worker) RegisterHandler(taskType string, handler Handler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[taskType] = handler
}

// PollOnce receives up to the configured batch size of messages and
// dispatches each to its handler. On handler success the message is
// deleted from the queue and a completed TaskResult recorded; on
// failure the message is left undeleted so the queue's visibility
// timeout redelivers it — retry policy lives in queue semantics or the
// handler itself, per spec.md §4.H.
func (w *Worker) PollOnce(ctx context.Context) (int, error) {
	received, err := w.queue.ReceiveTasks(ctx, w.queueName, w.batchSize)
	if err != nil {
		return 0, err
	}

	for _, rm := range received {
		w.setProgress(rm.Message.ID, TaskStatusPending)

		w.mu.Lock()
		handler, ok := w.handlers[rm.Message.TaskType]
		w.mu.Unlock()

		if !ok {
			if w.logger != nil {
				w.logger.WithField("task_type", rm.Message.TaskType).Warn("taskqueue: no handler registered, leaving message undeleted")
			}
			continue
		}

		result, handlerErr := handler(ctx, rm.Message)
		if handlerErr != nil {
			w.setProgress(rm.Message.ID, TaskStatusFailed)
			w.setResult(rm.Message.ID, TaskResult{
				TaskID: rm.Message.ID, Status: TaskStatusFailed, Error: handlerErr.Error(), CompletedAt: time.Now().UTC(),
			})
			continue
		}

		if err := w.queue.DeleteTask(ctx, w.queueName, rm.Receipt); err != nil {
			if w.logger != nil {
				w.logger.WithField("task_id", rm.Message.ID).WithError(err).Error("taskqueue: delete task after success failed")
			}
			continue
		}

		if result.TaskID == "" {
			result.TaskID = rm.Message.ID
		}
		if result.Status == "" {
			result.Status = TaskStatusCompleted
		}
		if result.CompletedAt.IsZero() {
			result.CompletedAt = time.Now().UTC()
		}
		w.setProgress(rm.Message.ID, result.Status)
		w.setResult(rm.Message.ID, result)
	}

	return len(received), nil
}

// GetTaskProgress returns the last observed progress for taskID, or nil
// if the worker has never seen it.
func (w *Worker) GetTaskProgress(taskID string) *TaskProgress {
	w.mu.Lock()
	defer w.mu.Unlock()
	p, ok := w.progress[taskID]
	if !ok {
		return nil
	}
	return &p
}

// GetTaskResult returns the final result for taskID, or nil if it has
// not completed (successfully or otherwise).
func (w *Worker) GetTaskResult(taskID string) *TaskResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	r, ok := w.results[taskID]
	if !ok {
		return nil
	}
	return &r
}

func (w *Worker) setProgress(taskID string, status TaskStatus) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.progress[taskID] = TaskProgress{TaskID: taskID, Status: status, UpdatedAt: time.Now().UTC()}
}

func (w *Worker) setResult(taskID string, result TaskResult) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[taskID] = result
}
