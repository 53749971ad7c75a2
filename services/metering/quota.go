package metering

import (
	"sync"

	"golang.org/x/time/rate"
)

// QuotaThresholds configures the warning/critical usage-percent
// boundaries shared across all metrics (spec.md §6 "quota limits").
type QuotaThresholds struct {
	WarningPercent  float64
	CriticalPercent float64
}

// DefaultQuotaThresholds matches infrastructure/config's default
// GOV_QUOTA_WARNING_PCT/GOV_QUOTA_CRITICAL_PCT values.
func DefaultQuotaThresholds() QuotaThresholds {
	return QuotaThresholds{WarningPercent: 70, CriticalPercent: 90}
}

// EvaluateQuota classifies current usage against max using the shared
// thresholds (spec.md §4.I): usagePercent = current/max*100, then
// exceeded(>=100) | critical(>=criticalThreshold) | warning(>=warningThreshold) | ok.
func EvaluateQuota(metric string, current, max float64, thresholds QuotaThresholds) QuotaEvaluation {
	eval := QuotaEvaluation{Metric: metric, Current: current, Max: max}
	if max <= 0 {
		eval.Status = QuotaOK
		return eval
	}

	pct := current / max * 100
	eval.UsagePercent = pct

	switch {
	case pct >= 100:
		eval.Status = QuotaExceeded
	case pct >= thresholds.CriticalPercent:
		eval.Status = QuotaCritical
	case pct >= thresholds.WarningPercent:
		eval.Status = QuotaWarning
	default:
		eval.Status = QuotaOK
	}
	return eval
}

// limiterKey uniquely identifies one tenant/metric rate-limited bucket.
type limiterKey struct {
	tenantID string
	metric   string
}

// Limiters holds a golang.org/x/time/rate token bucket per tenant/metric
// pair, gating burst admission ahead of the percent-threshold quota
// check — grounded on infrastructure/ratelimit's
// rate.NewLimiter(RequestsPerSecond, Burst) shape, generalized from one
// global limiter to one per tenant/metric.
type Limiters struct {
	mu       sync.Mutex
	limiters map[limiterKey]*rate.Limiter
	rps      float64
	burst    int
}

// NewLimiters creates a tenant/metric limiter pool with the given
// steady-state rate and burst.
func NewLimiters(ratePerSecond float64, burst int) *Limiters {
	if ratePerSecond <= 0 {
		ratePerSecond = 100
	}
	if burst <= 0 {
		burst = int(ratePerSecond * 2)
	}
	return &Limiters{
		limiters: make(map[limiterKey]*rate.Limiter),
		rps:      ratePerSecond,
		burst:    burst,
	}
}

// Allow reports whether tenantID/metric may proceed under the burst
// limiter, creating the bucket lazily on first use.
func (l *Limiters) Allow(tenantID, metric string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := limiterKey{tenantID: tenantID, metric: metric}
	lim, ok := l.limiters[key]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.rps), l.burst)
		l.limiters[key] = lim
	}
	return lim.Allow()
}
