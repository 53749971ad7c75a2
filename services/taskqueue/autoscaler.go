package taskqueue

import (
	"context"
	"sync"
	"time"

	"github.com/regulatory-governance/core/infrastructure/logging"
)

// ScalingConfig configures the auto-scaler's thresholds, increments, and
// cooldowns (spec.md §4.H).
type ScalingConfig struct {
	MinWorkers         int
	MaxWorkers         int
	ScaleUpThreshold   int
	ScaleDownThreshold int
	ScaleUpIncrement   int
	ScaleDownIncrement int
	ScaleUpCooldown    time.Duration
	ScaleDownCooldown  time.Duration
}

// WorkerFactory constructs a new Worker instance for the queue being
// scaled.
type WorkerFactory func() *Worker

// AutoScaler adjusts the worker pool size for one queue based on queue
// depth, clamped to [MinWorkers, MaxWorkers] (property P12).
type AutoScaler struct {
	queue     Queue
	queueName string
	cfg       ScalingConfig
	factory   WorkerFactory
	logger    *logging.Logger
	now       func() time.Time

	mu           sync.Mutex
	workers      []*Worker
	lastScaleUp  time.Time
	lastScaleDown time.Time
}

// NewAutoScaler creates an AutoScaler seeded with MinWorkers workers.
func NewAutoScaler(queue Queue, queueName string, cfg ScalingConfig, factory WorkerFactory, logger *logging.Logger) *AutoScaler {
	if cfg.MinWorkers < 0 {
		cfg.MinWorkers = 0
	}
	if cfg.MaxWorkers < cfg.MinWorkers {
		cfg.MaxWorkers = cfg.MinWorkers
	}

	a := &AutoScaler{
		queue:     queue,
		queueName: queueName,
		cfg:       cfg,
		factory:   factory,
		logger:    logger,
		now:       time.Now,
	}
	for i := 0; i < cfg.MinWorkers; i++ {
		a.workers = append(a.workers, factory())
	}
	return a
}

// WorkerCount returns the current number of provisioned workers.
func (a *AutoScaler) WorkerCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.workers)
}

// ShouldScaleUp reports whether queueDepth, worker count, and cooldown
// together justify adding workers.
func (a *AutoScaler) ShouldScaleUp(queueDepth int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return queueDepth >= a.cfg.ScaleUpThreshold &&
		len(a.workers) < a.cfg.MaxWorkers &&
		a.now().Sub(a.lastScaleUp) >= a.cfg.ScaleUpCooldown
}

// ShouldScaleDown reports whether queueDepth, worker count, and cooldown
// together justify removing workers.
func (a *AutoScaler) ShouldScaleDown(queueDepth int) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return queueDepth <= a.cfg.ScaleDownThreshold &&
		len(a.workers) > a.cfg.MinWorkers &&
		a.now().Sub(a.lastScaleDown) >= a.cfg.ScaleDownCooldown
}

// ScaleUp adds ScaleUpIncrement workers, clamped to MaxWorkers, and
// returns how many were actually added.
func (a *AutoScaler) ScaleUp() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	room := a.cfg.MaxWorkers - len(a.workers)
	add := a.cfg.ScaleUpIncrement
	if add > room {
		add = room
	}
	if add < 0 {
		add = 0
	}
	for i := 0; i < add; i++ {
		a.workers = append(a.workers, a.factory())
	}
	if add > 0 {
		a.lastScaleUp = a.now()
	}
	return add
}

// ScaleDown removes ScaleDownIncrement workers, clamped to MinWorkers,
// and returns how many were actually removed.
func (a *AutoScaler) ScaleDown() int {
	a.mu.Lock()
	defer a.mu.Unlock()

	room := len(a.workers) - a.cfg.MinWorkers
	remove := a.cfg.ScaleDownIncrement
	if remove > room {
		remove = room
	}
	if remove < 0 {
		remove = 0
	}
	a.workers = a.workers[:len(a.workers)-remove]
	if remove > 0 {
		a.lastScaleDown = a.now()
	}
	return remove
}

// EvaluateAndScale reads the queue's current depth and applies at most
// one scaling action (scale up takes priority over scale down when,
// implausibly, both predicates hold simultaneously).
func (a *AutoScaler) EvaluateAndScale(ctx context.Context) (int, error) {
	stats, err := a.queue.GetStats(ctx, a.queueName)
	if err != nil {
		return 0, err
	}
	depth := stats.ApproximateMessageCount

	if a.ShouldScaleUp(depth) {
		added := a.ScaleUp()
		if a.logger != nil && added > 0 {
			a.logger.WithField("queue", a.queueName).WithField("added", added).Info("taskqueue: scaled up")
		}
		return added, nil
	}
	if a.ShouldScaleDown(depth) {
		removed := a.ScaleDown()
		if a.logger != nil && removed > 0 {
			a.logger.WithField("queue", a.queueName).WithField("removed", removed).Info("taskqueue: scaled down")
		}
		return -removed, nil
	}
	return 0, nil
}

// Metrics returns a snapshot of the scaler's current counters, useful
// for an observability boundary to export.
func (a *AutoScaler) Metrics(ctx context.Context) (map[string]any, error) {
	stats, err := a.queue.GetStats(ctx, a.queueName)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"queue_depth":  stats.ApproximateMessageCount,
		"worker_count": a.WorkerCount(),
		"min_workers":  a.cfg.MinWorkers,
		"max_workers":  a.cfg.MaxWorkers,
	}, nil
}
