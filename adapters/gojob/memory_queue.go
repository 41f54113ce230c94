package gojob

import (
	"context"
	"net/http"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-shipbridge/core"
	"github.com/google/uuid"
)

const DefaultQueueSize = 256

// MemoryQueue is a bounded in-process queue. Enqueue never blocks: a full
// queue is reported as an error so the caller can answer the webhook.
type MemoryQueue struct {
	items chan *memoryItem

	mu         sync.Mutex
	closed     bool
	pending    int
	drained    chan struct{}
	deadLetter []DeadLetter
	timers     map[*time.Timer]struct{}
}

// DeadLetter is a message the queue gave up on, with the nack outcome that
// buried it.
type DeadLetter struct {
	DispatchID  string
	Message     *job.ExecutionMessage
	Disposition queue.NackDisposition
	Reason      string
	Attempts    int
}

type memoryItem struct {
	dispatchID string
	msg        *job.ExecutionMessage
	attempts   int
}

func NewMemoryQueue(size int) *MemoryQueue {
	if size <= 0 {
		size = DefaultQueueSize
	}
	return &MemoryQueue{
		items:  make(chan *memoryItem, size),
		timers: map[*time.Timer]struct{}{},
	}
}

func (q *MemoryQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	if msg == nil {
		return queue.EnqueueReceipt{}, queueError("gojob: execution message is required", goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadInput, nil)
	}
	item := &memoryItem{dispatchID: uuid.NewString(), msg: msg, attempts: 1}
	if err := q.push(item, true); err != nil {
		return queue.EnqueueReceipt{}, err
	}
	return queue.EnqueueReceipt{DispatchID: item.dispatchID, EnqueuedAt: time.Now().UTC()}, nil
}

// push adds item to the buffer. fresh items are counted as pending; retried
// items already are.
func (q *MemoryQueue) push(item *memoryItem, fresh bool) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return ErrQueueClosed
	}
	select {
	case q.items <- item:
		if fresh {
			q.pending++
		}
		return nil
	default:
		return queueError("gojob: queue is full", goerrors.CategoryRateLimit, http.StatusServiceUnavailable, core.ErrorInternal, map[string]any{
			"job_id":   item.msg.JobID,
			"capacity": cap(q.items),
		})
	}
}

// Dequeue blocks until a message is available or ctx is done. Once the queue
// is closed and empty it only waits for ctx.
func (q *MemoryQueue) Dequeue(ctx context.Context) (queue.Delivery, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case item, ok := <-q.items:
		if !ok {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		return &memoryDelivery{queue: q, item: item}, nil
	}
}

// Close stops accepting messages. Messages already queued can still be
// dequeued; pending delayed retries are dropped.
func (q *MemoryQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	q.drained = make(chan struct{})
	for timer := range q.timers {
		if timer.Stop() {
			q.pending--
		}
	}
	q.timers = map[*time.Timer]struct{}{}
	close(q.items)
	q.signalDrainedLocked()
}

// Drain closes the queue and waits until every accepted message has been
// acked or nacked for good.
func (q *MemoryQueue) Drain(ctx context.Context) error {
	q.Close()
	q.mu.Lock()
	done := q.drained
	q.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *MemoryQueue) Len() int {
	return len(q.items)
}

// Pending counts accepted messages that are queued, in flight or waiting on a
// delayed retry.
func (q *MemoryQueue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending
}

// DeadLetters returns a copy of the messages that were nacked for good.
func (q *MemoryQueue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]DeadLetter(nil), q.deadLetter...)
}

func (q *MemoryQueue) retry(item *memoryItem, opts queue.NackOptions) error {
	next := &memoryItem{dispatchID: item.dispatchID, msg: item.msg, attempts: item.attempts + 1}
	if opts.Delay <= 0 {
		if err := q.push(next, false); err != nil {
			q.settle(item, queue.NackDispositionFailed, err.Error())
			return err
		}
		return nil
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		q.settleLocked(item, queue.NackDispositionFailed, "queue closed before retry")
		return ErrQueueClosed
	}
	var timer *time.Timer
	timer = time.AfterFunc(opts.Delay, func() {
		q.mu.Lock()
		delete(q.timers, timer)
		q.mu.Unlock()
		if err := q.push(next, false); err != nil {
			q.settle(next, queue.NackDispositionFailed, err.Error())
		}
	})
	q.timers[timer] = struct{}{}
	return nil
}

func (q *MemoryQueue) settle(item *memoryItem, disposition queue.NackDisposition, reason string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.settleLocked(item, disposition, reason)
}

// settleLocked retires item. Anything other than an ack or a cancel is kept
// as a dead letter.
func (q *MemoryQueue) settleLocked(item *memoryItem, disposition queue.NackDisposition, reason string) {
	switch disposition {
	case queue.NackDispositionDeadLetter, queue.NackDispositionFailed:
		q.deadLetter = append(q.deadLetter, DeadLetter{
			DispatchID:  item.dispatchID,
			Message:     item.msg,
			Disposition: disposition,
			Reason:      reason,
			Attempts:    item.attempts,
		})
	}
	q.pending--
	q.signalDrainedLocked()
}

func (q *MemoryQueue) signalDrainedLocked() {
	if q.closed && q.pending <= 0 && q.drained != nil {
		close(q.drained)
		q.drained = nil
	}
}

type memoryDelivery struct {
	queue *MemoryQueue
	item  *memoryItem

	once sync.Once
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	return d.item.msg
}

// Attempts is 1 for the first delivery of a message.
func (d *memoryDelivery) Attempts() int {
	return d.item.attempts
}

func (d *memoryDelivery) DispatchID() string {
	return d.item.dispatchID
}

func (d *memoryDelivery) Ack(context.Context) error {
	d.once.Do(func() {
		d.queue.settle(d.item, "", "")
	})
	return nil
}

func (d *memoryDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	if err := queue.ValidateNackOptions(opts); err != nil {
		return queueError("gojob: "+err.Error(), goerrors.CategoryBadInput, http.StatusBadRequest, core.ErrorBadInput, map[string]any{
			"dispatch_id": d.item.dispatchID,
		})
	}
	var err error
	d.once.Do(func() {
		switch opts.Disposition {
		case queue.NackDispositionRetry:
			err = d.queue.retry(d.item, opts)
		default:
			d.queue.settle(d.item, opts.Disposition, opts.Reason)
		}
	})
	return err
}

var ErrQueueClosed = queueError("gojob: queue is closed", goerrors.CategoryInternal, http.StatusServiceUnavailable, core.ErrorInternal, nil)

func queueError(message string, category goerrors.Category, code int, textCode string, metadata map[string]any) error {
	err := goerrors.New(message, category).
		WithCode(code).
		WithTextCode(textCode)
	if len(metadata) > 0 {
		err.WithMetadata(metadata)
	}
	return err
}

var (
	_ queue.Enqueuer = (*MemoryQueue)(nil)
	_ queue.Dequeuer = (*MemoryQueue)(nil)
	_ queue.Delivery = (*memoryDelivery)(nil)
)
