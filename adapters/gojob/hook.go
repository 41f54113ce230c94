package gojob

import (
	"context"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-shipbridge/core"
)

const (
	StatusSuccess = "success"
	StatusRetry   = "retry"
	StatusFailure = "failure"
)

// ObservabilityHook logs handler runs and records run counters and
// durations, tagged by event.
type ObservabilityHook struct {
	Logger  core.Logger
	Metrics core.MetricsRecorder
}

func NewObservabilityHook(logger core.Logger, metrics core.MetricsRecorder) *ObservabilityHook {
	return &ObservabilityHook{Logger: logger, Metrics: metrics}
}

func (h *ObservabilityHook) OnStart(ctx context.Context, event worker.Event) {
	h.logger(ctx).Debug("handler started",
		"event", eventName(event.Message),
		"delivery_id", deliveryID(event.Message),
		"attempt", event.Attempt,
	)
}

func (h *ObservabilityHook) OnSuccess(ctx context.Context, event worker.Event) {
	h.record(ctx, event, StatusSuccess)
	h.logger(ctx).Debug("handler finished",
		"event", eventName(event.Message),
		"delivery_id", deliveryID(event.Message),
		"duration", event.Duration,
	)
}

func (h *ObservabilityHook) OnRetry(ctx context.Context, event worker.Event) {
	h.record(ctx, event, StatusRetry)
	h.logger(ctx).Warn("handler failed, retrying",
		"event", eventName(event.Message),
		"delivery_id", deliveryID(event.Message),
		"attempt", event.Attempt,
		"delay", event.Delay,
		"error", event.Err,
	)
}

func (h *ObservabilityHook) OnFailure(ctx context.Context, event worker.Event) {
	h.record(ctx, event, StatusFailure)
	h.logger(ctx).Error("handler failed",
		"event", eventName(event.Message),
		"delivery_id", deliveryID(event.Message),
		"attempt", event.Attempt,
		"error", event.Err,
	)
}

func (h *ObservabilityHook) record(ctx context.Context, event worker.Event, status string) {
	if h == nil || h.Metrics == nil {
		return
	}
	name := eventName(event.Message)
	h.Metrics.IncCounter(ctx, core.MetricHandlerRuns, 1, map[string]string{
		"event":  name,
		"status": status,
	})
	h.Metrics.ObserveHistogram(ctx, core.MetricHandlerDuration, event.Duration.Seconds(), map[string]string{
		"event": name,
	})
}

func (h *ObservabilityHook) logger(ctx context.Context) core.Logger {
	if h == nil || h.Logger == nil {
		return glog.Nop()
	}
	return h.Logger.WithContext(ctx)
}

func eventName(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return msg.JobID
}

func deliveryID(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return msg.IdempotencyKey
}

var _ worker.Hook = (*ObservabilityHook)(nil)
