// Package scheduler implements a priority heap over recurring scans with
// exponential-backoff retries (spec.md §4.G).
package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/regulatory-governance/core/domain/governance"
)

// Status tracks a ScheduledTask's position in its execution lifecycle.
type Status string

const (
	StatusPending   Status = "pending"
	StatusInFlight  Status = "in_progress"
	StatusRetrying  Status = "retrying"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// ScheduleConfig describes a recurring scan: what to run and how often.
type ScheduleConfig struct {
	ID             string
	Description    string
	CronExpression string // empty means on-demand only, never auto re-enqueued
	Priority       governance.TaskPriority
	Enabled        bool
	Metadata       map[string]any
}

// NextRun returns the next time this schedule fires at or after after, or
// the zero time if the schedule has no cron expression (on-demand).
func (c ScheduleConfig) NextRun(after time.Time) (time.Time, error) {
	if c.CronExpression == "" {
		return time.Time{}, nil
	}
	sched, err := cron.ParseStandard(c.CronExpression)
	if err != nil {
		return time.Time{}, err
	}
	return sched.Next(after), nil
}

// ScheduledTask is one unit of work in the scheduler's priority heap,
// ordered by (priority ascending, scheduledTime ascending) per spec.md
// §4.G.
type ScheduledTask struct {
	ID            string
	Priority      governance.TaskPriority
	ScheduledTime time.Time
	Config        ScheduleConfig
	RetryCount    int
	Status        Status
	LastError     string
	CreatedAt     time.Time

	index int // heap.Interface bookkeeping
}

// RetryConfig configures exponential-backoff retry with optional jitter
// (spec.md §4.G: backoff(n) = min(base·2^n, maxDelay) * jitter).
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Jitter     bool
}

// DefaultRetryConfig matches the teacher's resilience.DefaultRetryConfig
// defaults, adapted to the scheduler's scan-retry cadence.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		MaxDelay:   5 * time.Minute,
		Jitter:     true,
	}
}
