package prommetrics

import (
	"context"
	"sync"

	"github.com/goliatone/go-shipbridge/core"
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder implements core.MetricsRecorder on a prometheus registry.
// Known metric names map to typed vectors; anything else is dropped.
type Recorder struct {
	WebhooksTotal   *prometheus.CounterVec
	HandlerRuns     *prometheus.CounterVec
	HandlerDuration *prometheus.HistogramVec

	mu      sync.Mutex
	dropped map[string]int64
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		WebhooksTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipbridge_webhooks_total",
			Help: "Inbound webhook deliveries by provider, event and outcome.",
		}, []string{"provider", "event", "outcome"}),
		HandlerRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shipbridge_handler_runs_total",
			Help: "Handler executions by event and status.",
		}, []string{"event", "status"}),
		HandlerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "shipbridge_handler_duration_seconds",
			Help:    "Handler execution duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"event"}),
		dropped: map[string]int64{},
	}
	if reg != nil {
		reg.MustRegister(r.WebhooksTotal, r.HandlerRuns, r.HandlerDuration)
	}
	return r
}

func (r *Recorder) IncCounter(_ context.Context, name string, value int64, tags map[string]string) {
	if r == nil || value <= 0 {
		return
	}
	switch name {
	case core.MetricWebhooksTotal:
		r.WebhooksTotal.WithLabelValues(tags["provider"], tags["event"], tags["outcome"]).Add(float64(value))
	case core.MetricHandlerRuns:
		r.HandlerRuns.WithLabelValues(tags["event"], tags["status"]).Add(float64(value))
	default:
		r.drop(name)
	}
}

func (r *Recorder) ObserveHistogram(_ context.Context, name string, value float64, tags map[string]string) {
	if r == nil {
		return
	}
	switch name {
	case core.MetricHandlerDuration:
		r.HandlerDuration.WithLabelValues(tags["event"]).Observe(value)
	default:
		r.drop(name)
	}
}

// Dropped reports how many samples were discarded for an unknown name.
func (r *Recorder) Dropped(name string) int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped[name]
}

func (r *Recorder) drop(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.dropped[name]++
}

var _ core.MetricsRecorder = (*Recorder)(nil)
