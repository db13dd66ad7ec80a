package service

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/stagelink/internal/queue"
)

// BackgroundRunner runs tasks detached from the request that started
// them.  Wait blocks until every started task has returned, so shutdown
// does not cut a task short.
type BackgroundRunner struct {
	wg      sync.WaitGroup
	timeout time.Duration
}

// NewBackgroundRunner returns a runner whose tasks are each bounded by
// timeout.  Zero means no bound.
func NewBackgroundRunner(timeout time.Duration) *BackgroundRunner {
	return &BackgroundRunner{timeout: timeout}
}

// Go starts fn.  The task's context keeps the values of ctx but is not
// cancelled with it.
func (r *BackgroundRunner) Go(ctx context.Context, name string, fn func(ctx context.Context) error) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		taskCtx := context.WithoutCancel(ctx)
		if r.timeout > 0 {
			var cancel context.CancelFunc
			taskCtx, cancel = context.WithTimeout(taskCtx, r.timeout)
			defer cancel()
		}
		_ = BestEffort(taskCtx, name, fn)
	}()
}

// Wait blocks until all tasks are done or ctx ends.  It reports whether
// every task finished.
func (r *BackgroundRunner) Wait(ctx context.Context) bool {
	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return true
	case <-ctx.Done():
		return false
	}
}

// PaymentPublisher hands events to a broker.
type PaymentPublisher interface {
	PublishPaymentPaid(ctx context.Context, ev queue.PaymentPaidEvent) error
}

// PaymentDispatcher routes verified paid-checkout events to the worker.
// With a publisher the event goes through the payments.paid queue;
// without one, or when publishing fails, it is processed in-process by
// the runner.
type PaymentDispatcher struct {
	Publisher PaymentPublisher // nil when no broker is configured
	Runner    *BackgroundRunner
	Process   queue.Handler
}

// Dispatch never blocks on processing.
func (d *PaymentDispatcher) Dispatch(ctx context.Context, ev queue.PaymentPaidEvent) {
	if d.Publisher != nil {
		if err := d.Publisher.PublishPaymentPaid(ctx, ev); err == nil {
			return
		}
		log.Printf("paymongo-webhook: publish failed for event %s; processing in-process", ev.EventID)
	}
	d.Runner.Go(ctx, "payment "+ev.EventID, func(ctx context.Context) error {
		return d.Process(ctx, ev)
	})
}
