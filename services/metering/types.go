// Package metering implements usage event recording, tenant quota
// evaluation, and billing-record aggregation (spec.md §4.I). Observability
// wiring is kept at the boundary per spec.md §1 — the only third-party
// surface this package touches directly is the Prometheus recorder and
// the token-bucket quota gate.
package metering

import "time"

// EventType names the kind of usage captured by one metering Event.
type EventType string

const (
	EventAgentInvocation EventType = "agent_invocation"
	EventAPICall         EventType = "api_call"
	EventStorageWrite    EventType = "storage_write"
	EventStorageRead     EventType = "storage_read"
)

// Event captures one unit of billable or quota-relevant activity
// (spec.md §4.I recordEvent).
type Event struct {
	Type      EventType
	TenantID  string
	Timestamp time.Time
	Quantity  float64
	TokensIn  int64
	TokensOut int64
	Bytes     int64
	AgentID   string
	UserID    string
}

// Period names the aggregation window granularity.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodMonthly Period = "monthly"
)

// Aggregate summarizes a tenant's recorded events over [PeriodStart,
// PeriodEnd) (spec.md §4.I aggregate).
type Aggregate struct {
	TenantID     string
	Period       Period
	PeriodStart  time.Time
	PeriodEnd    time.Time
	EventCount   int64
	TotalQuantity float64
	TokensIn     int64
	TokensOut    int64
	TotalTokens  int64
	BytesWritten int64
	BytesRead    int64
	TotalStorage int64
}

// QuotaStatus classifies how close a metric is to its configured max.
type QuotaStatus string

const (
	QuotaOK       QuotaStatus = "ok"
	QuotaWarning  QuotaStatus = "warning"
	QuotaCritical QuotaStatus = "critical"
	QuotaExceeded QuotaStatus = "exceeded"
)

// MetricLimit configures one quota-checked metric's ceiling.
type MetricLimit struct {
	Metric string
	Max    float64
}

// QuotaEvaluation is the result of checking one metric's current usage
// against its configured limit.
type QuotaEvaluation struct {
	Metric       string
	Current      float64
	Max          float64
	UsagePercent float64
	Status       QuotaStatus
}

// BillingLineItem is one rated usage line in a BillingRecord.
type BillingLineItem struct {
	Metric   string
	Unit     float64
	UnitCost float64
}

// Amount returns unit * unitCost for this line item.
func (l BillingLineItem) Amount() float64 {
	return l.Unit * l.UnitCost
}

// BillingRecord is the rated total for a tenant's aggregate usage over a
// period (spec.md §4.I "Billing record").
type BillingRecord struct {
	TenantID        string
	Period          Period
	LineItems       []BillingLineItem
	DiscountPercent float64
	Subtotal        float64
	Total           float64
}

// Compute derives Subtotal and Total from LineItems and DiscountPercent:
// total = subtotal * (1 - discountPercent/100).
func (r *BillingRecord) Compute() {
	var subtotal float64
	for _, item := range r.LineItems {
		subtotal += item.Amount()
	}
	r.Subtotal = subtotal
	r.Total = subtotal * (1 - r.DiscountPercent/100)
}
