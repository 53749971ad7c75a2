package metering

import "github.com/prometheus/client_golang/prometheus"

// MetricsRecorder is the observability boundary metering events cross;
// kept separate from the Service's accounting logic per spec.md §1
// ("observability wiring... specified only at the boundary"). A no-op
// implementation satisfies callers that don't export to Prometheus.
type MetricsRecorder interface {
	RecordEvent(event Event)
}

// NoopRecorder discards every event; the Service's default.
type NoopRecorder struct{}

func (NoopRecorder) RecordEvent(Event) {}

// PrometheusRecorder exports metering events as Prometheus counters,
// grounded on infrastructure/metrics.Metrics's
// NewWithRegistry(serviceName, registerer) + CounterVec-per-concern shape.
type PrometheusRecorder struct {
	eventsTotal *prometheus.CounterVec
	tokensTotal *prometheus.CounterVec
	bytesTotal  *prometheus.CounterVec
}

// NewPrometheusRecorder creates a PrometheusRecorder registered against
// registerer (pass prometheus.DefaultRegisterer for the global registry).
func NewPrometheusRecorder(registerer prometheus.Registerer) *PrometheusRecorder {
	r := &PrometheusRecorder{
		eventsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_metering_events_total",
			Help: "Total number of metering events recorded.",
		}, []string{"tenant", "type"}),
		tokensTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_metering_tokens_total",
			Help: "Total tokens consumed, by direction.",
		}, []string{"tenant", "direction"}),
		bytesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "governance_metering_bytes_total",
			Help: "Total bytes metered, by direction.",
		}, []string{"tenant", "direction"}),
	}
	if registerer != nil {
		registerer.MustRegister(r.eventsTotal, r.tokensTotal, r.bytesTotal)
	}
	return r
}

// RecordEvent exports one metering event's counters.
func (r *PrometheusRecorder) RecordEvent(event Event) {
	r.eventsTotal.WithLabelValues(event.TenantID, string(event.Type)).Inc()
	if event.TokensIn > 0 {
		r.tokensTotal.WithLabelValues(event.TenantID, "in").Add(float64(event.TokensIn))
	}
	if event.TokensOut > 0 {
		r.tokensTotal.WithLabelValues(event.TenantID, "out").Add(float64(event.TokensOut))
	}
	if event.Bytes > 0 {
		dir := "write"
		if event.Type == EventStorageRead {
			dir = "read"
		}
		r.bytesTotal.WithLabelValues(event.TenantID, dir).Add(float64(event.Bytes))
	}
}

var _ MetricsRecorder = NoopRecorder{}
var _ MetricsRecorder = (*PrometheusRecorder)(nil)
