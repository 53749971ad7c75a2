package metering

import (
	"context"
	"sync"
	"time"

	"github.com/regulatory-governance/core/internal/tenantctx"
)

// Service records metering events per tenant and derives aggregates,
// quota evaluations, and billing records from them (spec.md §4.I).
type Service struct {
	mu         sync.Mutex
	events     map[string][]Event // keyed by tenantID
	recorder   MetricsRecorder
	limiters   *Limiters // burst admission gate in front of RecordEvent
	limits     map[string]float64 // metric -> max, shared across tenants absent a per-tenant override
	thresholds QuotaThresholds
	now        func() time.Time
}

// Config configures a metering Service.
type Config struct {
	Recorder   MetricsRecorder
	Limits     map[string]float64
	Thresholds QuotaThresholds

	// RateLimitPerSecond/RateLimitBurst configure the token-bucket gate
	// RecordEvent checks before admitting an event (spec.md §4.I). Zero
	// values fall back to NewLimiters' own defaults.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a metering Service.
func New(cfg Config) *Service {
	recorder := cfg.Recorder
	if recorder == nil {
		recorder = NoopRecorder{}
	}
	thresholds := cfg.Thresholds
	if thresholds == (QuotaThresholds{}) {
		thresholds = DefaultQuotaThresholds()
	}
	return &Service{
		events:     make(map[string][]Event),
		recorder:   recorder,
		limiters:   NewLimiters(cfg.RateLimitPerSecond, cfg.RateLimitBurst),
		limits:     cfg.Limits,
		thresholds: thresholds,
		now:        time.Now,
	}
}

// RecordEvent captures event, defaulting TenantID/Timestamp from ambient
// context when absent, and forwards it to the observability boundary.
// Admission is gated per tenant/event-type by a token bucket (spec.md
// §4.I): a burst beyond the configured rate is dropped rather than
// recorded, and admitted reports whether the event was kept.
func (s *Service) RecordEvent(ctx context.Context, event Event) (recorded Event, admitted bool) {
	if event.TenantID == "" {
		event.TenantID = tenantctx.TenantID(ctx)
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}

	if !s.limiters.Allow(event.TenantID, string(event.Type)) {
		return event, false
	}

	s.mu.Lock()
	s.events[event.TenantID] = append(s.events[event.TenantID], event)
	s.mu.Unlock()

	s.recorder.RecordEvent(event)
	return event, true
}

// Aggregate sums every recorded event for tenantID within
// [periodStart, periodEnd), deriving totalTokens and totalStorage
// (spec.md §4.I aggregate).
func (s *Service) Aggregate(tenantID string, period Period, periodStart, periodEnd time.Time) Aggregate {
	s.mu.Lock()
	events := append([]Event(nil), s.events[tenantID]...)
	s.mu.Unlock()

	agg := Aggregate{
		TenantID:    tenantID,
		Period:      period,
		PeriodStart: periodStart,
		PeriodEnd:   periodEnd,
	}

	for _, e := range events {
		if e.Timestamp.Before(periodStart) || !e.Timestamp.Before(periodEnd) {
			continue
		}
		agg.EventCount++
		agg.TotalQuantity += e.Quantity
		agg.TokensIn += e.TokensIn
		agg.TokensOut += e.TokensOut
		if e.Type == EventStorageRead {
			agg.BytesRead += e.Bytes
		} else {
			agg.BytesWritten += e.Bytes
		}
	}
	agg.TotalTokens = agg.TokensIn + agg.TokensOut
	agg.TotalStorage = agg.BytesWritten + agg.BytesRead
	return agg
}

// EvaluateQuotas checks every configured metric limit against agg's
// corresponding field, returning one QuotaEvaluation per metric.
func (s *Service) EvaluateQuotas(agg Aggregate) []QuotaEvaluation {
	current := map[string]float64{
		"total_tokens":  float64(agg.TotalTokens),
		"total_storage": float64(agg.TotalStorage),
		"event_count":   float64(agg.EventCount),
	}

	evals := make([]QuotaEvaluation, 0, len(s.limits))
	for metric, max := range s.limits {
		evals = append(evals, EvaluateQuota(metric, current[metric], max, s.thresholds))
	}
	return evals
}

// BuildBillingRecord rates agg's usage against unit costs and applies
// discountPercent (spec.md §4.I "Billing record").
func BuildBillingRecord(tenantID string, period Period, lineItems []BillingLineItem, discountPercent float64) BillingRecord {
	record := BillingRecord{
		TenantID:        tenantID,
		Period:          period,
		LineItems:       lineItems,
		DiscountPercent: discountPercent,
	}
	record.Compute()
	return record
}
