package gojob

import (
	"context"
	"fmt"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-shipbridge/core"
)

// ExecuteFunc runs a single dequeued message.
type ExecuteFunc func(ctx context.Context, msg *job.ExecutionMessage) error

// EventTask exposes one routed event to the go-job worker registry. The
// worker looks tasks up by message job id, which the router sets to the
// event name.
type EventTask struct {
	Event      string
	ScriptPath string
	Run        ExecuteFunc
}

func NewEventTask(event, scriptPath string, run ExecuteFunc) *EventTask {
	return &EventTask{Event: event, ScriptPath: scriptPath, Run: run}
}

func (t *EventTask) GetID() string {
	return t.Event
}

func (t *EventTask) GetPath() string {
	return t.ScriptPath
}

func (t *EventTask) GetHandler() func() error {
	return func() error {
		return t.Execute(context.Background(), nil)
	}
}

func (t *EventTask) GetHandlerConfig() job.HandlerOptions {
	return job.HandlerOptions{}
}

func (t *EventTask) GetConfig() job.Config {
	return job.Config{}
}

func (t *EventTask) GetEngine() job.Engine {
	return nil
}

// Execute runs the event handler. A handler panic is reported as an
// internal error so the retry policy can decide what happens next.
func (t *EventTask) Execute(ctx context.Context, msg *job.ExecutionMessage) (err error) {
	if t.Run == nil {
		return queueError("gojob: task has no handler", goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, map[string]any{
			"event": t.Event,
		})
	}
	if msg == nil {
		return queueError("gojob: execution message is required", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadInput, map[string]any{
			"event": t.Event,
		})
	}
	defer func() {
		if recovered := recover(); recovered != nil {
			err = queueError(fmt.Sprintf("gojob: handler panic: %v", recovered), goerrors.CategoryInternal, http.StatusInternalServerError, core.ErrorInternal, map[string]any{
				"event": t.Event,
			})
		}
	}()
	return t.Run(ctx, msg)
}

var _ job.Task = (*EventTask)(nil)
