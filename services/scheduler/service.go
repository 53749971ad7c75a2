package scheduler

import (
	"container/heap"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/regulatory-governance/core/infrastructure/logging"
)

// Service is a priority heap of ScheduledTasks over registered recurring
// schedules, with exponential-backoff retry on failure (spec.md §4.G).
type Service struct {
	mu        sync.Mutex
	queue     taskHeap
	schedules map[string]ScheduleConfig
	retry     RetryConfig
	logger    *logging.Logger
	now       func() time.Time
}

// Config configures a scheduler Service.
type Config struct {
	Retry  RetryConfig
	Logger *logging.Logger
}

// New creates an empty scheduler Service.
func New(cfg Config) *Service {
	retry := cfg.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetryConfig()
	}
	return &Service{
		queue:     taskHeap{},
		schedules: make(map[string]ScheduleConfig),
		retry:     retry,
		logger:    cfg.Logger,
		now:       time.Now,
	}
}

// AddSchedule registers (or replaces) a recurring schedule configuration.
func (s *Service) AddSchedule(id string, cfg ScheduleConfig) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.ID = id
	s.schedules[id] = cfg
}

// RemoveSchedule removes a schedule configuration, reporting whether one existed.
func (s *Service) RemoveSchedule(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.schedules[id]; !ok {
		return false
	}
	delete(s.schedules, id)
	return true
}

// GetSchedule returns the registered schedule configuration, if any.
func (s *Service) GetSchedule(id string) (ScheduleConfig, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg, ok := s.schedules[id]
	return cfg, ok
}

// Enqueue creates a ScheduledTask from a registered schedule and pushes it
// onto the priority heap. scheduledTime defaults to now when zero.
func (s *Service) Enqueue(scheduleID string, scheduledTime time.Time) (*ScheduledTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cfg, ok := s.schedules[scheduleID]
	if !ok || !cfg.Enabled {
		return nil, fmt.Errorf("scheduler: schedule %q not found or disabled", scheduleID)
	}
	if scheduledTime.IsZero() {
		scheduledTime = s.now()
	}

	task := &ScheduledTask{
		ID:            uuid.New().String(),
		Priority:      cfg.Priority,
		ScheduledTime: scheduledTime,
		Config:        cfg,
		Status:        StatusPending,
		CreatedAt:     s.now(),
	}
	heap.Push(&s.queue, task)
	return task, nil
}

// Peek returns the next task to execute without removing it, or nil if empty.
func (s *Service) Peek() *ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	return s.queue[0]
}

// Dequeue removes and returns the highest-priority, earliest-scheduled
// task, or nil if the queue is empty.
func (s *Service) Dequeue() *ScheduledTask {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return nil
	}
	task := heap.Pop(&s.queue).(*ScheduledTask)
	task.Status = StatusInFlight
	return task
}

// Len reports the current queue depth.
func (s *Service) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Complete marks task as completed; it is not re-enqueued.
func (s *Service) Complete(task *ScheduledTask) {
	task.Status = StatusCompleted
}

// Fail records a failure for task and either re-enqueues it with a
// backoff delay (retryCount <= maxRetries) or marks it permanently
// failed and drops it (spec.md §4.G).
func (s *Service) Fail(task *ScheduledTask, cause error) bool {
	task.RetryCount++
	if cause != nil {
		task.LastError = cause.Error()
	}

	if task.RetryCount <= s.retry.MaxRetries {
		task.Status = StatusRetrying
		delay := s.backoff(task.RetryCount)
		task.ScheduledTime = s.now().Add(delay)

		s.mu.Lock()
		heap.Push(&s.queue, task)
		s.mu.Unlock()

		if s.logger != nil {
			s.logger.WithField("task_id", task.ID).
				WithField("retry_count", task.RetryCount).
				WithField("delay", delay.String()).
				Warn("scheduler: task retry scheduled")
		}
		return true
	}

	task.Status = StatusFailed
	if s.logger != nil {
		s.logger.WithField("task_id", task.ID).Error("scheduler: task failed after max retries")
	}
	return false
}

// backoff computes min(base·2^n, maxDelay), optionally scaled by a
// jitter factor in [0.5, 1.5].
func (s *Service) backoff(attempt int) time.Duration {
	delay := float64(s.retry.BaseDelay) * math.Pow(2, float64(attempt))
	if max := float64(s.retry.MaxDelay); max > 0 && delay > max {
		delay = max
	}
	if s.retry.Jitter {
		delay *= 0.5 + rand.Float64()
	}
	return time.Duration(delay)
}
