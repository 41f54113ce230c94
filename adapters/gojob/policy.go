package gojob

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

// RetryPolicy retries failed handler runs with exponential backoff and dead
// letters them once MaxAttempts is reached. Handler errors in the bad input
// or validation categories are dead lettered on the first attempt since a
// replay carries the same payload.
type RetryPolicy struct {
	worker.DefaultRetryPolicy
}

func NewRetryPolicy(maxAttempts int, baseDelay, maxDelay time.Duration) RetryPolicy {
	return RetryPolicy{DefaultRetryPolicy: worker.DefaultRetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: worker.BackoffConfig{
			Strategy:    worker.BackoffExponential,
			Interval:    baseDelay,
			MaxInterval: maxDelay,
		},
	}}
}

func (p RetryPolicy) Decide(attempt int, err error) queue.NackOptions {
	if goerrors.IsCategory(err, goerrors.CategoryBadInput) || goerrors.IsCategory(err, goerrors.CategoryValidation) {
		return queue.NackOptions{
			Disposition: queue.NackDispositionDeadLetter,
			Reason:      err.Error(),
		}
	}
	return p.DefaultRetryPolicy.Decide(attempt, err)
}

var _ worker.RetryPolicy = RetryPolicy{}
