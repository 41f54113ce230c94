package gojob

import (
	"context"
	"errors"
	"fmt"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue/worker"
)

// PoolConfig controls the go-job worker that drains a MemoryQueue.
type PoolConfig struct {
	Count      int
	ScriptPath string
	Retry      worker.RetryPolicy
	Logger     job.Logger
	Hooks      []worker.Hook
}

// WorkerPool runs a go-job worker over a MemoryQueue with one registered
// task per routed event.
type WorkerPool struct {
	Queue  *MemoryQueue
	Worker *worker.Worker
}

func NewWorkerPool(q *MemoryQueue, execute ExecuteFunc, events []string, cfg PoolConfig) (*WorkerPool, error) {
	if q == nil || execute == nil {
		return nil, fmt.Errorf("gojob: worker pool requires a queue and an execute func")
	}
	opts := []worker.Option{
		worker.WithConcurrency(cfg.Count),
		worker.WithHooks(cfg.Hooks...),
	}
	if cfg.Retry != nil {
		opts = append(opts, worker.WithRetryPolicy(cfg.Retry))
	}
	if cfg.Logger != nil {
		opts = append(opts, worker.WithLogger(cfg.Logger))
	}
	w := worker.NewWorker(q, opts...)
	for _, event := range events {
		if err := w.Register(NewEventTask(event, cfg.ScriptPath, execute)); err != nil {
			return nil, fmt.Errorf("gojob: register %q: %w", event, err)
		}
	}
	return &WorkerPool{Queue: q, Worker: w}, nil
}

// Start runs the workers until Stop. Cancelling ctx does not interrupt
// handlers; shutdown goes through Stop so queued events are drained first.
func (p *WorkerPool) Start(ctx context.Context) error {
	return p.Worker.Start(context.WithoutCancel(ctx))
}

// Stop closes the queue, waits for accepted messages to settle and then
// stops the workers. When ctx expires first the workers are cancelled.
func (p *WorkerPool) Stop(ctx context.Context) error {
	if p == nil {
		return nil
	}
	drainErr := p.Queue.Drain(ctx)
	stopCtx := ctx
	if drainErr != nil {
		stopCtx = context.WithoutCancel(ctx)
	}
	return errors.Join(drainErr, p.Worker.Stop(stopCtx))
}
