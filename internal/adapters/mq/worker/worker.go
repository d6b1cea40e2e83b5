// Package worker drains the operation queue one operation at a time.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/pairank/internal/adapters/mq/queue"
	"github.com/okian/pairank/pkg/logger"
	"github.com/okian/pairank/pkg/metrics"
)

// Queue defines how the worker receives operations.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Operation
}

// lengther is implemented by queues that can report their backlog.
type lengther interface {
	Len(ctx context.Context) int
}

// Worker runs queued operations strictly one after another.
type Worker interface {
	// Run starts the worker loop until ctx is canceled, Shutdown is called,
	// or the queue is closed and drained.
	Run(ctx context.Context)

	// Shutdown stops the worker after the operation in flight returns.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker. There is exactly one per scheduler so
// operations never overlap.
type InMemoryWorker struct {
	queue Queue
	name  string

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options.
func NewInMemoryWorker(q Queue, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = w.logger.Named(w.name)
	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	ops := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case op, ok := <-ops:
			if !ok {
				return
			}
			if l, ok := w.queue.(lengther); ok {
				metrics.UpdateQueueLength(l.Len(ctx))
			}
			if err := w.execute(ctx, op); err != nil {
				w.logger.Debug(ctx, "operation returned error",
					logger.String("op_id", op.ID),
					logger.String("kind", op.Kind),
					logger.Error(err),
				)
			}
		}
	}
}

// Done is closed once Run has returned.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// execute runs a single operation, converting a panic into an error so one
// bad operation cannot stop the queue.
func (w *InMemoryWorker) execute(ctx context.Context, op queue.Operation) (err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			metrics.RecordErrorByComponent("worker", "panic")
			w.logger.Error(ctx, "operation panicked", logger.String("op_id", op.ID), logger.String("kind", op.Kind), logger.Any("panic", r))
			err = fmt.Errorf("operation %s panicked: %v", op.ID, r)
		}
		metrics.RecordOperationLatency(op.Kind, float64(time.Since(start).Milliseconds()))
	}()

	w.logger.Debug(ctx, "running operation",
		logger.String("op_id", op.ID),
		logger.String("kind", op.Kind),
		logger.Int64("queued_ms", time.Since(op.EnqueuedAt).Milliseconds()),
	)
	return op.Run(ctx)
}
