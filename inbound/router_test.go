package inbound

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-shipbridge/adapters/gojob"
	"github.com/goliatone/go-shipbridge/core"
)

type stubEnqueuer struct {
	mu       sync.Mutex
	messages []*job.ExecutionMessage
	err      error
}

func (s *stubEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return queue.EnqueueReceipt{}, s.err
	}
	s.messages = append(s.messages, msg)
	return queue.EnqueueReceipt{DispatchID: "dispatch-" + msg.IdempotencyKey, EnqueuedAt: time.Now()}, nil
}

type countingHandler struct {
	mu    sync.Mutex
	calls []core.Envelope
	err   error
}

func (h *countingHandler) Handle(_ context.Context, env core.Envelope) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.calls = append(h.calls, env)
	return h.err
}

func TestRouterRoutesRegisteredEventExactlyOnce(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	handler := &countingHandler{}
	router, err := NewRouter(enqueuer, Route{Event: core.EventOrderCreated, Handler: handler})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}

	env := core.Envelope{
		Event:      core.EventOrderCreated,
		Provider:   core.ProviderFluid,
		Version:    "2",
		CompanyID:  "42",
		ReceivedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		Body:       []byte(`{"order":{"id":1}}`),
	}
	routed, err := router.Route(context.Background(), env)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if !routed {
		t.Fatalf("expected registered event to be routed")
	}
	if len(enqueuer.messages) != 1 {
		t.Fatalf("expected one enqueued message, got %d", len(enqueuer.messages))
	}
	msg := enqueuer.messages[0]
	if msg.JobID != core.EventOrderCreated || msg.IdempotencyKey == "" {
		t.Fatalf("expected job id and idempotency key, got %#v", msg)
	}

	if err := router.Execute(context.Background(), msg); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(handler.calls) != 1 {
		t.Fatalf("expected handler to run once, got %d", len(handler.calls))
	}
	got := handler.calls[0]
	if string(got.Body) != string(env.Body) {
		t.Fatalf("expected body to be preserved, got %s", got.Body)
	}
	if got.Version != "2" || got.CompanyID != "42" || got.Provider != core.ProviderFluid {
		t.Fatalf("expected envelope fields to survive the queue, got %#v", got)
	}
	if !got.ReceivedAt.Equal(env.ReceivedAt) {
		t.Fatalf("expected received at to survive, got %s", got.ReceivedAt)
	}
}

func TestRouterUnknownEventHasNoSideEffects(t *testing.T) {
	enqueuer := &stubEnqueuer{}
	router, err := NewRouter(enqueuer)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	routed, err := router.Route(context.Background(), core.Envelope{Event: "product.updated", Body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if routed {
		t.Fatalf("expected unknown event not to be routed")
	}
	if len(enqueuer.messages) != 0 {
		t.Fatalf("expected no enqueue for unknown event")
	}
}

func TestRouterRegisterIsLastWriteWins(t *testing.T) {
	first := &countingHandler{}
	second := &countingHandler{}
	enqueuer := &stubEnqueuer{}
	router, err := NewRouter(enqueuer,
		Route{Event: core.EventOrderCreated, Handler: first},
		Route{Event: core.EventOrderCreated, Handler: second},
	)
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	if err := router.Register(core.EventOrderCreated, second); err != nil {
		t.Fatalf("re-register: %v", err)
	}
	if events := router.Events(); len(events) != 1 {
		t.Fatalf("expected a single registry entry, got %v", events)
	}

	if _, err := router.Route(context.Background(), core.Envelope{Event: core.EventOrderCreated, Body: []byte(`{}`)}); err != nil {
		t.Fatalf("route: %v", err)
	}
	if err := router.Execute(context.Background(), enqueuer.messages[0]); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(first.calls) != 0 || len(second.calls) != 1 {
		t.Fatalf("expected only the last handler to run, got first=%d second=%d", len(first.calls), len(second.calls))
	}
}

func TestRouterRejectsInvalidRegistrations(t *testing.T) {
	router, _ := NewRouter(&stubEnqueuer{})
	if err := router.Register(" ", &countingHandler{}); err == nil {
		t.Fatalf("expected empty event error")
	}
	if err := router.Register(core.EventOrderCreated, nil); err == nil {
		t.Fatalf("expected nil handler error")
	}
}

func TestRouterEnqueueFailureReportsNotRouted(t *testing.T) {
	enqueuer := &stubEnqueuer{err: errors.New("queue full")}
	router, _ := NewRouter(enqueuer, Route{Event: core.EventOrderCreated, Handler: &countingHandler{}})
	routed, err := router.Route(context.Background(), core.Envelope{Event: core.EventOrderCreated, Body: []byte(`{}`)})
	if err == nil {
		t.Fatalf("expected enqueue error")
	}
	if routed {
		t.Fatalf("expected failed enqueue to report not routed")
	}
}

func TestRouterExecuteRejectsBadMessages(t *testing.T) {
	router, _ := NewRouter(&stubEnqueuer{})
	if err := router.Execute(context.Background(), nil); err == nil {
		t.Fatalf("expected nil message error")
	}
	msg := ToExecutionMessage(core.Envelope{Event: "order.updated", Body: []byte(`{}`)})
	err := router.Execute(context.Background(), msg)
	if !core.IsNotFound(err) {
		t.Fatalf("expected not found for unregistered event, got %v", err)
	}
}

func TestRouterRoutesThroughMemoryQueue(t *testing.T) {
	q := gojob.NewMemoryQueue(2)
	handler := &countingHandler{}
	router, err := NewRouter(q, Route{Event: core.EventDropletInstalled, Handler: handler})
	if err != nil {
		t.Fatalf("new router: %v", err)
	}
	ctx := context.Background()
	routed, err := router.Route(ctx, core.Envelope{Event: core.EventDropletInstalled, Body: []byte(`{"company":{}}`)})
	if err != nil || !routed {
		t.Fatalf("expected envelope to be routed, got %v %v", routed, err)
	}
	if q.Len() != 1 {
		t.Fatalf("expected one queued message, got %d", q.Len())
	}
	delivery, err := q.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	if err := router.Execute(ctx, delivery.Message()); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if len(handler.calls) != 1 || q.Pending() != 0 {
		t.Fatalf("expected one settled run, got calls=%d pending=%d", len(handler.calls), q.Pending())
	}
}
