// Package queue holds scheduler operations waiting for the single worker.
package queue

import (
	"context"
	"sync"
	"time"

	"github.com/okian/pairank/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 1024
)

// Operation is one unit of serialized work. Run is executed by exactly one
// worker, in enqueue order, and must deliver its own result to whoever is
// waiting for it.
type Operation struct {
	ID         string
	Kind       string
	EnqueuedAt time.Time
	Run        func(ctx context.Context) error
}

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue appends op. It returns ErrFull or ErrClosed instead of blocking.
	Enqueue(ctx context.Context, op Operation) error

	// Dequeue returns a channel that yields operations in FIFO order.
	// The channel is closed once the queue is closed and drained.
	Dequeue(ctx context.Context) <-chan Operation

	// Len returns the number of waiting operations.
	Len(ctx context.Context) int

	// Close stops accepting operations. Already queued operations stay
	// available to Dequeue.
	Close() error

	// IsClosed reports whether Close has been called.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	ops      chan Operation
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.ops = make(chan Operation, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueLength(0)

	return q
}

// Enqueue adds an operation to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, op Operation) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueRejected("closed")
		return ErrClosed
	}
	if err := ctx.Err(); err != nil {
		metrics.RecordQueueRejected("context_cancelled")
		return err
	}
	if op.EnqueuedAt.IsZero() {
		op.EnqueuedAt = time.Now()
	}

	select {
	case q.ops <- op:
		metrics.RecordQueueEnqueue()
		metrics.UpdateQueueLength(len(q.ops))
		return nil
	default:
		metrics.RecordQueueRejected("full")
		metrics.RecordErrorByComponent("queue", "capacity_exceeded")
		return ErrFull
	}
}

// Dequeue returns the queue's channel. An operation leaves the queue when the
// consumer receives it.
func (q *InMemoryQueue) Dequeue(_ context.Context) <-chan Operation {
	return q.ops
}

// Len returns the current number of queued operations.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.ops)
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.ops)
	q.closed = true
	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
