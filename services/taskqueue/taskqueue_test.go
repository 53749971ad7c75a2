package taskqueue

import (
	"context"
	"testing"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

func TestMemQueuePriorityOrdering(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	if err := q.CreateQueue(ctx, "q1"); err != nil {
		t.Fatalf("create queue: %v", err)
	}

	send := func(p governance.TaskPriority, tag string) {
		if _, err := q.SendTask(ctx, "q1", governance.TaskMessage{
			TaskType: "notify", Priority: p, Payload: map[string]any{"tag": tag},
		}); err != nil {
			t.Fatalf("send task: %v", err)
		}
	}
	send(governance.PriorityLow, "low")
	send(governance.PriorityNormal, "normal")
	send(governance.PriorityHigh, "high")
	send(governance.PriorityCritical, "critical")

	received, err := q.ReceiveTasks(ctx, "q1", 4)
	if err != nil {
		t.Fatalf("receive tasks: %v", err)
	}
	if len(received) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(received))
	}
	want := []governance.TaskPriority{governance.PriorityCritical, governance.PriorityHigh, governance.PriorityNormal, governance.PriorityLow}
	for i, rm := range received {
		if rm.Message.Priority != want[i] {
			t.Fatalf("position %d: expected priority %v, got %v", i, want[i], rm.Message.Priority)
		}
	}
}

func TestMemQueueDelayedMessageInvisible(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	q.CreateQueue(ctx, "delayed")

	fixedNow := time.Now()
	q.now = func() time.Time { return fixedNow }

	if _, err := q.SendTask(ctx, "delayed", governance.TaskMessage{TaskType: "t", DelaySeconds: 60}); err != nil {
		t.Fatalf("send: %v", err)
	}

	received, err := q.ReceiveTasks(ctx, "delayed", 10)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if len(received) != 0 {
		t.Fatalf("expected delayed message invisible, got %d", len(received))
	}

	q.now = func() time.Time { return fixedNow.Add(61 * time.Second) }
	received, err = q.ReceiveTasks(ctx, "delayed", 10)
	if err != nil {
		t.Fatalf("receive after delay: %v", err)
	}
	if len(received) != 1 {
		t.Fatalf("expected message visible after delay, got %d", len(received))
	}
}

func TestWorkerPollOnceDispatchesAndDeletes(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	q.CreateQueue(ctx, "worker-queue")
	q.SendTask(ctx, "worker-queue", governance.TaskMessage{TaskType: "notify", Payload: map[string]any{"test": "worker"}})

	var received map[string]any
	handler := func(ctx context.Context, msg governance.TaskMessage) (TaskResult, error) {
		received = msg.Payload
		return TaskResult{Status: TaskStatusCompleted}, nil
	}

	w := NewWorker(q, WorkerConfig{QueueName: "worker-queue"}, map[string]Handler{"notify": handler})

	progress := w.GetTaskProgress("missing")
	if progress != nil {
		t.Fatal("expected nil progress before processing")
	}

	n, err := w.PollOnce(ctx)
	if err != nil {
		t.Fatalf("poll once: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 message processed, got %d", n)
	}
	if received["test"] != "worker" {
		t.Fatalf("expected handler invoked with payload, got %v", received)
	}

	stats, _ := q.GetStats(ctx, "worker-queue")
	if stats.ApproximateMessageCount != 0 || stats.InFlight != 0 {
		t.Fatalf("expected message deleted after success, got %+v", stats)
	}
}

func TestWorkerPollOnceLeavesFailedMessageUndeleted(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	q.CreateQueue(ctx, "fail-queue")
	q.SendTask(ctx, "fail-queue", governance.TaskMessage{TaskType: "notify"})

	handler := func(ctx context.Context, msg governance.TaskMessage) (TaskResult, error) {
		return TaskResult{}, assertErr
	}
	w := NewWorker(q, WorkerConfig{QueueName: "fail-queue"}, map[string]Handler{"notify": handler})

	w.PollOnce(ctx)

	stats, _ := q.GetStats(ctx, "fail-queue")
	if stats.InFlight != 1 {
		t.Fatalf("expected failed message to remain in flight (undeleted), got %+v", stats)
	}
}

var assertErr = fmtError("handler failed")

type fmtError string

func (e fmtError) Error() string { return string(e) }

func TestAutoScalerScalesUpThenClampsAtMax(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	q.CreateQueue(ctx, "scale-queue")
	for i := 0; i < 10; i++ {
		q.SendTask(ctx, "scale-queue", governance.TaskMessage{TaskType: "notify"})
	}

	cfg := ScalingConfig{MinWorkers: 1, MaxWorkers: 5, ScaleUpThreshold: 5, ScaleUpIncrement: 2}
	scaler := NewAutoScaler(q, "scale-queue", cfg, func() *Worker {
		return NewWorker(q, WorkerConfig{QueueName: "scale-queue"}, nil)
	}, nil)

	if scaler.WorkerCount() != 1 {
		t.Fatalf("expected seeded with 1 worker, got %d", scaler.WorkerCount())
	}

	added, err := scaler.EvaluateAndScale(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if added != 2 || scaler.WorkerCount() != 3 {
		t.Fatalf("expected +2 workers (3 total), got added=%d count=%d", added, scaler.WorkerCount())
	}

	scaler.lastScaleUp = time.Time{}
	scaler.EvaluateAndScale(ctx)
	if scaler.WorkerCount() != 5 {
		t.Fatalf("expected 5 workers after second scale-up, got %d", scaler.WorkerCount())
	}

	for i := 0; i < 5; i++ {
		scaler.lastScaleUp = time.Time{}
		scaler.EvaluateAndScale(ctx)
	}
	if scaler.WorkerCount() > cfg.MaxWorkers {
		t.Fatalf("expected worker count never to exceed max %d, got %d", cfg.MaxWorkers, scaler.WorkerCount())
	}
}

func TestAutoScalerScaleDownRespectsMin(t *testing.T) {
	ctx := context.Background()
	q := NewMemQueue()
	q.CreateQueue(ctx, "scale-down-queue")

	cfg := ScalingConfig{MinWorkers: 1, MaxWorkers: 5, ScaleUpThreshold: 5, ScaleUpIncrement: 1, ScaleDownThreshold: 2, ScaleDownIncrement: 1}
	scaler := NewAutoScaler(q, "scale-down-queue", cfg, func() *Worker {
		return NewWorker(q, WorkerConfig{QueueName: "scale-down-queue"}, nil)
	}, nil)
	scaler.ScaleUp()
	scaler.ScaleUp()

	scaler.lastScaleDown = time.Time{}
	removed, err := scaler.EvaluateAndScale(ctx)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if removed != -1 {
		t.Fatalf("expected 1 worker removed, got %d", removed)
	}
	if scaler.WorkerCount() < cfg.MinWorkers {
		t.Fatalf("expected worker count never below min %d, got %d", cfg.MinWorkers, scaler.WorkerCount())
	}
}
