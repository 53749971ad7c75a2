package metering

import (
	"context"
	"testing"
	"time"
)

func TestRecordEventAndAggregate(t *testing.T) {
	ctx := context.Background()
	svc := New(Config{})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	svc.RecordEvent(ctx, Event{Type: EventAgentInvocation, TenantID: "t1", TokensIn: 100, TokensOut: 50})
	svc.RecordEvent(ctx, Event{Type: EventStorageWrite, TenantID: "t1", Bytes: 1024})
	svc.RecordEvent(ctx, Event{Type: EventStorageRead, TenantID: "t1", Bytes: 512})
	svc.RecordEvent(ctx, Event{Type: EventAPICall, TenantID: "other", TokensIn: 999})

	agg := svc.Aggregate("t1", PeriodDaily, base.Add(-time.Hour), base.Add(time.Hour))
	if agg.EventCount != 3 {
		t.Fatalf("expected 3 events for t1, got %d", agg.EventCount)
	}
	if agg.TotalTokens != 150 {
		t.Fatalf("expected total tokens 150, got %d", agg.TotalTokens)
	}
	if agg.TotalStorage != 1536 {
		t.Fatalf("expected total storage 1536, got %d", agg.TotalStorage)
	}
}

func TestRecordEventDropsBeyondBurst(t *testing.T) {
	ctx := context.Background()
	svc := New(Config{RateLimitPerSecond: 1, RateLimitBurst: 2})

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }

	for i := 0; i < 2; i++ {
		if _, admitted := svc.RecordEvent(ctx, Event{Type: EventAPICall, TenantID: "t1"}); !admitted {
			t.Fatalf("expected event %d within burst to be admitted", i)
		}
	}
	if _, admitted := svc.RecordEvent(ctx, Event{Type: EventAPICall, TenantID: "t1"}); admitted {
		t.Fatal("expected event beyond burst to be dropped")
	}

	agg := svc.Aggregate("t1", PeriodDaily, base.Add(-time.Hour), base.Add(time.Hour))
	if agg.EventCount != 2 {
		t.Fatalf("expected dropped event to not be recorded, got count %d", agg.EventCount)
	}
}

func TestLimitersAllowPerTenantMetricBucket(t *testing.T) {
	l := NewLimiters(1, 1)
	if !l.Allow("t1", "api_call") {
		t.Fatal("expected first call for t1/api_call to be admitted")
	}
	if l.Allow("t1", "api_call") {
		t.Fatal("expected second call for t1/api_call to exceed burst of 1")
	}
	if !l.Allow("t2", "api_call") {
		t.Fatal("expected a different tenant's bucket to be independent")
	}
	if !l.Allow("t1", "storage_write") {
		t.Fatal("expected a different metric's bucket to be independent")
	}
}

func TestEvaluateQuotaStatuses(t *testing.T) {
	thresholds := DefaultQuotaThresholds()

	cases := []struct {
		current, max float64
		want         QuotaStatus
	}{
		{current: 50, max: 100, want: QuotaOK},
		{current: 75, max: 100, want: QuotaWarning},
		{current: 95, max: 100, want: QuotaCritical},
		{current: 100, max: 100, want: QuotaExceeded},
		{current: 150, max: 100, want: QuotaExceeded},
	}
	for _, c := range cases {
		eval := EvaluateQuota("tokens", c.current, c.max, thresholds)
		if eval.Status != c.want {
			t.Fatalf("current=%v max=%v: expected %s, got %s", c.current, c.max, c.want, eval.Status)
		}
	}
}

func TestBillingRecordComputesDiscountedTotal(t *testing.T) {
	record := BuildBillingRecord("t1", PeriodMonthly, []BillingLineItem{
		{Metric: "tokens", Unit: 1000, UnitCost: 0.002},
		{Metric: "storage_gb", Unit: 10, UnitCost: 0.1},
	}, 10)

	wantSubtotal := 1000*0.002 + 10*0.1
	if record.Subtotal != wantSubtotal {
		t.Fatalf("expected subtotal %v, got %v", wantSubtotal, record.Subtotal)
	}
	wantTotal := wantSubtotal * 0.9
	if record.Total != wantTotal {
		t.Fatalf("expected total %v, got %v", wantTotal, record.Total)
	}
}
