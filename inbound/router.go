package inbound

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/google/uuid"
)

const ScriptPathHandler = "shipbridge.handler"

const (
	paramEvent      = "event"
	paramProvider   = "provider"
	paramVersion    = "version"
	paramCompanyID  = "company_id"
	paramDeliveryID = "delivery_id"
	paramReceivedAt = "received_at"
	paramBody       = "body"
)

type Route struct {
	Event   string
	Handler core.Handler
}

// Router owns the event registry and submits matched envelopes to a queue.
// Registration happens at start-up; lookups are safe for concurrent use.
type Router struct {
	Enqueuer queue.Enqueuer
	Logger   core.Logger

	mu       sync.RWMutex
	handlers map[string]core.Handler
}

func NewRouter(enqueuer queue.Enqueuer, routes ...Route) (*Router, error) {
	router := &Router{
		Enqueuer: enqueuer,
		handlers: map[string]core.Handler{},
	}
	for _, route := range routes {
		if err := router.Register(route.Event, route.Handler); err != nil {
			return nil, err
		}
	}
	return router, nil
}

// Register binds event to handler. Registering an event again replaces the
// previous handler.
func (r *Router) Register(event string, handler core.Handler) error {
	if r == nil {
		return inboundInternal("inbound: router is nil", nil)
	}
	event = strings.TrimSpace(event)
	if event == "" {
		return inboundBadInput("inbound: event name is required", nil)
	}
	if handler == nil {
		return inboundBadInput("inbound: handler is nil", map[string]any{"event": event})
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.handlers == nil {
		r.handlers = map[string]core.Handler{}
	}
	r.handlers[event] = handler
	return nil
}

func (r *Router) Handler(event string) (core.Handler, bool) {
	if r == nil {
		return nil, false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	handler, ok := r.handlers[strings.TrimSpace(event)]
	return handler, ok
}

func (r *Router) Events() []string {
	if r == nil {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	events := make([]string, 0, len(r.handlers))
	for event := range r.handlers {
		events = append(events, event)
	}
	sort.Strings(events)
	return events
}

// Route enqueues env for its registered handler and reports whether work was
// scheduled. Unregistered events return false with no side effects.
func (r *Router) Route(ctx context.Context, env core.Envelope) (bool, error) {
	if r == nil {
		return false, inboundInternal("inbound: router is nil", nil)
	}
	if _, ok := r.Handler(env.Event); !ok {
		return false, nil
	}
	if r.Enqueuer == nil {
		return false, inboundInternal("inbound: router has no enqueuer", map[string]any{"event": env.Event})
	}
	if strings.TrimSpace(env.DeliveryID) == "" {
		env.DeliveryID = uuid.NewString()
	}
	if env.ReceivedAt.IsZero() {
		env.ReceivedAt = time.Now().UTC()
	}
	receipt, err := r.Enqueuer.Enqueue(ctx, ToExecutionMessage(env))
	if err != nil {
		return false, inboundWrapError(
			err,
			goerrors.CategoryInternal,
			"inbound: enqueue envelope",
			http.StatusInternalServerError,
			core.ErrorInternal,
			map[string]any{"event": env.Event, "delivery_id": env.DeliveryID},
		)
	}
	if r.Logger != nil {
		r.Logger.Debug("envelope enqueued",
			"event", env.Event,
			"delivery_id", env.DeliveryID,
			"dispatch_id", receipt.DispatchID,
		)
	}
	return true, nil
}

// Execute runs the handler registered for msg. It is called by workers.
func (r *Router) Execute(ctx context.Context, msg *job.ExecutionMessage) error {
	env, err := FromExecutionMessage(msg)
	if err != nil {
		return err
	}
	handler, ok := r.Handler(env.Event)
	if !ok {
		return inboundError(
			fmt.Sprintf("inbound: no handler registered for event %q", env.Event),
			goerrors.CategoryNotFound,
			http.StatusNotFound,
			core.ErrorNotFound,
			map[string]any{"event": env.Event},
		)
	}
	return handler.Handle(ctx, env)
}

func ToExecutionMessage(env core.Envelope) *job.ExecutionMessage {
	params := map[string]any{
		paramEvent:      env.Event,
		paramProvider:   string(env.Provider),
		paramDeliveryID: env.DeliveryID,
		paramBody:       string(env.Body),
	}
	if env.Version != "" {
		params[paramVersion] = env.Version
	}
	if env.CompanyID != "" {
		params[paramCompanyID] = env.CompanyID
	}
	if !env.ReceivedAt.IsZero() {
		params[paramReceivedAt] = env.ReceivedAt.UTC().Format(time.RFC3339Nano)
	}
	return &job.ExecutionMessage{
		JobID:          env.Event,
		ScriptPath:     ScriptPathHandler,
		Parameters:     params,
		IdempotencyKey: env.DeliveryID,
	}
}

func FromExecutionMessage(msg *job.ExecutionMessage) (core.Envelope, error) {
	if msg == nil {
		return core.Envelope{}, inboundBadInput("inbound: execution message is required", nil)
	}
	env := core.Envelope{
		Event:      stringParam(msg.Parameters, paramEvent),
		Provider:   core.Provider(stringParam(msg.Parameters, paramProvider)),
		Version:    stringParam(msg.Parameters, paramVersion),
		CompanyID:  stringParam(msg.Parameters, paramCompanyID),
		DeliveryID: stringParam(msg.Parameters, paramDeliveryID),
		Body:       []byte(stringParam(msg.Parameters, paramBody)),
	}
	if env.Event == "" {
		env.Event = strings.TrimSpace(msg.JobID)
	}
	if receivedAt := stringParam(msg.Parameters, paramReceivedAt); receivedAt != "" {
		parsed, err := time.Parse(time.RFC3339Nano, receivedAt)
		if err == nil {
			env.ReceivedAt = parsed
		}
	}
	if err := env.Validate(); err != nil {
		return core.Envelope{}, inboundWrapError(
			err,
			goerrors.CategoryBadInput,
			"inbound: invalid execution message",
			http.StatusBadRequest,
			core.ErrorBadInput,
			map[string]any{"job_id": msg.JobID},
		)
	}
	return env, nil
}

func stringParam(params map[string]any, key string) string {
	value, ok := params[key].(string)
	if !ok {
		return ""
	}
	return value
}
