package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/regulatory-governance/core/domain/governance"
)

func TestEnqueueDequeuePriorityOrder(t *testing.T) {
	svc := New(Config{})
	svc.AddSchedule("low", ScheduleConfig{Priority: governance.PriorityLow, Enabled: true})
	svc.AddSchedule("critical", ScheduleConfig{Priority: governance.PriorityCritical, Enabled: true})
	svc.AddSchedule("normal", ScheduleConfig{Priority: governance.PriorityNormal, Enabled: true})

	now := time.Now()
	if _, err := svc.Enqueue("low", now); err != nil {
		t.Fatalf("enqueue low: %v", err)
	}
	if _, err := svc.Enqueue("normal", now); err != nil {
		t.Fatalf("enqueue normal: %v", err)
	}
	if _, err := svc.Enqueue("critical", now); err != nil {
		t.Fatalf("enqueue critical: %v", err)
	}

	first := svc.Dequeue()
	if first.Priority != governance.PriorityCritical {
		t.Fatalf("expected critical first, got %v", first.Priority)
	}
	second := svc.Dequeue()
	if second.Priority != governance.PriorityNormal {
		t.Fatalf("expected normal second, got %v", second.Priority)
	}
	third := svc.Dequeue()
	if third.Priority != governance.PriorityLow {
		t.Fatalf("expected low third, got %v", third.Priority)
	}
	if svc.Dequeue() != nil {
		t.Fatal("expected empty queue")
	}
}

func TestEnqueueUnknownScheduleFails(t *testing.T) {
	svc := New(Config{})
	if _, err := svc.Enqueue("missing", time.Time{}); err == nil {
		t.Fatal("expected error for unknown schedule")
	}
}

func TestFailRetriesThenGivesUp(t *testing.T) {
	svc := New(Config{Retry: RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: time.Second}})
	svc.AddSchedule("s", ScheduleConfig{Priority: governance.PriorityNormal, Enabled: true})

	task, err := svc.Enqueue("s", time.Now())
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	svc.Dequeue()

	if retried := svc.Fail(task, errors.New("boom")); !retried {
		t.Fatal("expected first failure to retry")
	}
	if task.Status != StatusRetrying {
		t.Fatalf("expected retrying status, got %s", task.Status)
	}
	requeued := svc.Dequeue()
	if requeued == nil || requeued.RetryCount != 1 {
		t.Fatalf("expected re-enqueued task with retry count 1, got %+v", requeued)
	}

	svc.Fail(requeued, errors.New("boom again"))
	requeued2 := svc.Dequeue()
	if requeued2.RetryCount != 2 {
		t.Fatalf("expected retry count 2, got %d", requeued2.RetryCount)
	}

	if retried := svc.Fail(requeued2, errors.New("final")); retried {
		t.Fatal("expected final failure to exhaust retries")
	}
	if requeued2.Status != StatusFailed {
		t.Fatalf("expected failed status, got %s", requeued2.Status)
	}
	if svc.Len() != 0 {
		t.Fatalf("expected queue empty after exhausting retries, got %d", svc.Len())
	}
}

func TestPeekDoesNotRemove(t *testing.T) {
	svc := New(Config{})
	svc.AddSchedule("s", ScheduleConfig{Priority: governance.PriorityNormal, Enabled: true})
	svc.Enqueue("s", time.Now())

	if svc.Peek() == nil {
		t.Fatal("expected peek to return task")
	}
	if svc.Len() != 1 {
		t.Fatal("expected peek to leave queue unchanged")
	}
}
