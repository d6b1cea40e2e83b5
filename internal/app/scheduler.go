package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/pairank/internal/adapters/mq/queue"
	"github.com/okian/pairank/internal/adapters/mq/worker"
	"github.com/okian/pairank/internal/domain/dedupe"
	"github.com/okian/pairank/internal/domain/model"
	"github.com/okian/pairank/internal/domain/ranking"
	"github.com/okian/pairank/internal/domain/types"
	"github.com/okian/pairank/pkg/logger"
	"github.com/okian/pairank/pkg/metrics"
)

// Operation kinds, also used as metric labels.
const (
	kindAddItem           = "add_item"
	kindRequestComparison = "request_comparison"
	kindDebugSnapshot     = "debug_snapshot"
)

// Prompt is either an open comparison or the Complete signal.
type Prompt struct {
	Complete bool       `json:"complete"`
	ItemA    model.Item `json:"item_a"`
	ItemB    model.Item `json:"item_b"`
	IndexA   int        `json:"index_a"`
	IndexB   int        `json:"index_b"`
	OpenedAt time.Time  `json:"opened_at"`
}

func promptFrom(p ranking.Pending) Prompt {
	return Prompt{ItemA: p.ItemA, ItemB: p.ItemB, IndexA: p.IndexA, IndexB: p.IndexB, OpenedAt: p.OpenedAt}
}

// AddResult reports the item an add produced. Duplicate is true when the
// request id had already been used and no new item was created.
type AddResult struct {
	Item      model.Item `json:"item"`
	Duplicate bool       `json:"duplicate"`
}

// Stats is a point-in-time view of the scheduler.
type Stats struct {
	SessionID       string        `json:"session_id"`
	Started         bool          `json:"started"`
	Ranking         ranking.Stats `json:"ranking"`
	QueueLength     int           `json:"queue_length"`
	QueueCapacity   int           `json:"queue_capacity"`
	Pending         bool          `json:"pending"`
	IdempotencyKeys int64         `json:"idempotency_keys"`
}

// answer is delivered to the operation suspended on an open comparison.
type answer struct {
	side   model.Side
	cancel bool
	reply  chan answerReply
}

type answerReply struct {
	outcome ranking.Outcome
	err     error
}

// waiter is installed while a comparison is open. done closes when the
// suspended operation stops listening.
type waiter struct {
	answers chan answer
	done    chan struct{}
}

// Scheduler serializes every mutating operation through a FIFO queue drained
// by a single worker. A comparison request keeps the queue suspended until it
// is answered or cancelled. Reads do not queue; they take a read lock.
type Scheduler struct {
	mu      sync.RWMutex // guards ranker
	ranker  *ranking.Ranker
	queue   *queue.InMemoryQueue
	worker  *worker.InMemoryWorker
	deduper dedupe.Deduper

	wmu    sync.Mutex
	waiter *waiter

	lifecycle sync.Mutex
	started   bool
	stop      chan struct{}
	stopOnce  sync.Once
	opSeq     atomic.Int64

	sessionID       string
	queueCapacity   int
	rejectCycles    bool
	maxNameLength   int
	idempotencySize int
	logger          logger.Logger
}

// New constructs a Scheduler. Call Start before submitting operations.
func New(opts ...Option) *Scheduler {
	s := &Scheduler{
		stop:            make(chan struct{}),
		sessionID:       uuid.NewString(),
		queueCapacity:   defaultQueueCapacity,
		rejectCycles:    true,
		maxNameLength:   defaultMaxNameLength,
		idempotencySize: defaultIdempotencySize,
		logger:          logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.ranker = ranking.New(
		ranking.WithLogger(s.logger.Named("ranker")),
		ranking.WithRejectCycles(s.rejectCycles),
		ranking.WithMaxNameLength(s.maxNameLength),
	)
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueCapacity))
	s.worker = worker.NewInMemoryWorker(s.queue,
		worker.WithName("scheduler"),
		worker.WithLogger(s.logger),
	)
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.idempotencySize))
	return s
}

// SessionID identifies this ranking session in logs and stats.
func (s *Scheduler) SessionID() string {
	return s.sessionID
}

// Start launches the worker. It is a no-op if already started.
func (s *Scheduler) Start(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	select {
	case <-s.stop:
		return ErrStopped
	default:
	}
	if s.started {
		return nil
	}
	go s.worker.Run(ctx)
	s.started = true
	s.logger.Info(ctx, "scheduler started",
		logger.String("session_id", s.sessionID),
		logger.Int("queue_capacity", s.queueCapacity),
		logger.Bool("reject_cycles", s.rejectCycles),
	)
	return nil
}

// Stop discards any open comparison, refuses further operations and waits
// for the worker to exit.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.stopOnce.Do(func() { close(s.stop) })
	_ = s.queue.Close()
	if !s.started {
		return nil
	}
	s.started = false
	if err := s.worker.Shutdown(ctx); err != nil {
		return fmt.Errorf("stop scheduler: %w", err)
	}
	s.logger.Info(ctx, "scheduler stopped", logger.String("session_id", s.sessionID))
	return nil
}

func (s *Scheduler) nextOpID() string {
	return fmt.Sprintf("%s-%d", s.sessionID[:min(8, len(s.sessionID))], s.opSeq.Add(1))
}

// enqueue places run on the queue, translating queue errors.
func (s *Scheduler) enqueue(ctx context.Context, kind string, run func(ctx context.Context) error) error {
	s.lifecycle.Lock()
	started := s.started
	s.lifecycle.Unlock()
	if !started {
		select {
		case <-s.stop:
			return ErrStopped
		default:
			return ErrNotStarted
		}
	}

	err := s.queue.Enqueue(ctx, queue.Operation{ID: s.nextOpID(), Kind: kind, Run: run})
	switch {
	case err == nil:
		return nil
	case errors.Is(err, queue.ErrClosed):
		return ErrStopped
	case errors.Is(err, queue.ErrFull):
		s.logger.Warn(ctx, "operation rejected: queue full", logger.String("kind", kind))
		return fmt.Errorf("%s: %w", kind, ErrBusy)
	default:
		return err
	}
}

// await waits for a queued operation's result. A cancelled caller stops
// waiting but the operation still runs.
func await[T any](ctx context.Context, s *Scheduler, results <-chan T) (T, error) {
	var zero T
	select {
	case v := <-results:
		return v, nil
	case <-ctx.Done():
		return zero, ctx.Err()
	case <-s.stop:
		return zero, ErrStopped
	}
}

type addReply struct {
	result AddResult
	err    error
}

// AddItem appends an item. A non-empty requestID makes the call idempotent:
// repeating it returns the original item.
func (s *Scheduler) AddItem(ctx context.Context, name, requestID string) (AddResult, error) {
	results := make(chan addReply, 1)
	requestID = strings.TrimSpace(requestID)
	err := s.enqueue(ctx, kindAddItem, func(opCtx context.Context) error {
		r := s.addItem(opCtx, name, requestID)
		results <- r
		return r.err
	})
	if err != nil {
		return AddResult{}, err
	}
	r, err := await(ctx, s, results)
	if err != nil {
		return AddResult{}, err
	}
	return r.result, r.err
}

func (s *Scheduler) addItem(ctx context.Context, name, requestID string) addReply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if requestID != "" {
		if id, ok := s.deduper.Lookup(ctx, requestID); ok {
			if item, found := s.ranker.Item(id); found {
				return addReply{result: AddResult{Item: item, Duplicate: true}}
			}
		}
	}
	item, err := s.ranker.AddItem(ctx, name)
	if err != nil {
		return addReply{err: err}
	}
	if requestID != "" {
		s.deduper.Record(ctx, requestID, item.ID)
	}
	return addReply{result: AddResult{Item: item}}
}

type promptReply struct {
	prompt Prompt
	err    error
}

// RequestComparison opens the next comparison, or reports Complete. The
// comparison holds the queue until SubmitResult or CancelPending resolves it.
// A caller that stops waiting before the comparison reaches it leaves nothing
// open.
func (s *Scheduler) RequestComparison(ctx context.Context) (Prompt, error) {
	results := make(chan promptReply)
	err := s.enqueue(ctx, kindRequestComparison, func(opCtx context.Context) error {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: caller gone: %w", kindRequestComparison, err)
		}

		s.mu.Lock()
		p, err := s.ranker.NextComparison(opCtx)
		s.mu.Unlock()

		switch {
		case errors.Is(err, ranking.ErrSortComplete):
			send(ctx, s, results, promptReply{prompt: Prompt{Complete: true}})
			return nil
		case err != nil:
			send(ctx, s, results, promptReply{err: err})
			return err
		}

		w := s.installWaiter()
		if !send(ctx, s, results, promptReply{prompt: promptFrom(p)}) {
			s.abandon(opCtx, w)
			cause := ctx.Err()
			if cause == nil {
				cause = ErrStopped
			}
			return fmt.Errorf("%s: comparison %d vs %d not received: %w",
				kindRequestComparison, p.ItemA.ID, p.ItemB.ID, cause)
		}
		s.suspend(opCtx, w)
		return nil
	})
	if err != nil {
		return Prompt{}, err
	}
	r, err := await(ctx, s, results)
	if err != nil {
		return Prompt{}, err
	}
	return r.prompt, r.err
}

// send hands v to a caller still waiting in await. It reports false when the
// caller has gone or the scheduler stopped first.
func send[T any](ctx context.Context, s *Scheduler, results chan<- T, v T) bool {
	select {
	case results <- v:
		return true
	case <-ctx.Done():
		return false
	case <-s.stop:
		return false
	}
}

// abandon withdraws a comparison nobody received, so the queue moves on.
func (s *Scheduler) abandon(ctx context.Context, w *waiter) {
	s.wmu.Lock()
	if s.waiter == w {
		s.waiter = nil
	}
	s.wmu.Unlock()
	close(w.done)

	s.mu.Lock()
	p, _ := s.ranker.Pending()
	err := s.ranker.CancelPending(ctx)
	s.mu.Unlock()
	if err == nil {
		s.logger.Info(ctx, "comparison withdrawn: caller stopped waiting",
			logger.Int64("a", p.ItemA.ID), logger.Int64("b", p.ItemB.ID))
	}
}

func (s *Scheduler) installWaiter() *waiter {
	w := &waiter{answers: make(chan answer), done: make(chan struct{})}
	s.wmu.Lock()
	s.waiter = w
	s.wmu.Unlock()
	return w
}

// suspend blocks the worker until the open comparison is resolved. Rejected
// answers keep it open.
func (s *Scheduler) suspend(ctx context.Context, w *waiter) {
	defer func() {
		s.wmu.Lock()
		s.waiter = nil
		s.wmu.Unlock()
		close(w.done)
	}()

	for {
		select {
		case a := <-w.answers:
			var reply answerReply
			s.mu.Lock()
			if a.cancel {
				reply.err = s.ranker.CancelPending(ctx)
			} else {
				reply.outcome, reply.err = s.ranker.SubmitResult(ctx, a.side)
			}
			s.mu.Unlock()
			a.reply <- reply
			if reply.err == nil {
				return
			}
		case <-ctx.Done():
			s.discardPending(ctx)
			return
		case <-s.stop:
			s.discardPending(ctx)
			return
		}
	}
}

func (s *Scheduler) discardPending(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ranker.CancelPending(ctx); err == nil {
		s.logger.Info(ctx, "open comparison discarded on shutdown")
	}
}

// deliver hands an answer to the suspended operation.
func (s *Scheduler) deliver(ctx context.Context, a answer) (ranking.Outcome, error) {
	s.wmu.Lock()
	w := s.waiter
	s.wmu.Unlock()
	if w == nil {
		metrics.RecordRejection("no_open_comparison")
		return ranking.Outcome{}, ranking.ErrNoOpenComparison
	}

	a.reply = make(chan answerReply, 1)
	select {
	case w.answers <- a:
	case <-w.done:
		return ranking.Outcome{}, ranking.ErrNoOpenComparison
	case <-ctx.Done():
		return ranking.Outcome{}, ctx.Err()
	case <-s.stop:
		return ranking.Outcome{}, ErrStopped
	}
	r := <-a.reply
	return r.outcome, r.err
}

// SubmitResult answers the open comparison. An invalid side is rejected and
// the comparison stays open.
func (s *Scheduler) SubmitResult(ctx context.Context, side model.Side) (ranking.Outcome, error) {
	return s.deliver(ctx, answer{side: side})
}

// CancelPending discards the open comparison without changing any state and
// resumes the queue.
func (s *Scheduler) CancelPending(ctx context.Context) error {
	_, err := s.deliver(ctx, answer{cancel: true})
	return err
}

// DebugSnapshot renders items and log once every operation queued before it
// has finished.
func (s *Scheduler) DebugSnapshot(ctx context.Context) (string, error) {
	results := make(chan string, 1)
	err := s.enqueue(ctx, kindDebugSnapshot, func(context.Context) error {
		results <- s.Snapshot()
		return nil
	})
	if err != nil {
		return "", err
	}
	return await(ctx, s, results)
}

// Snapshot renders items and log immediately.
func (s *Scheduler) Snapshot() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranker.DebugSnapshot()
}

// OrderedList returns the ranking in position order.
func (s *Scheduler) OrderedList() []types.Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return types.FromItems(s.ranker.Items())
}

// Pending returns the open comparison, if any.
func (s *Scheduler) Pending() (Prompt, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.ranker.Pending()
	if !ok {
		return Prompt{}, false
	}
	return promptFrom(p), true
}

// Records returns the comparison log.
func (s *Scheduler) Records() []model.ComparisonRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ranker.Records()
}

// GetStats returns scheduler statistics for monitoring.
func (s *Scheduler) GetStats() Stats {
	s.lifecycle.Lock()
	started := s.started
	s.lifecycle.Unlock()

	s.mu.RLock()
	rs := s.ranker.Stats()
	_, pending := s.ranker.Pending()
	s.mu.RUnlock()

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	metrics.UpdateQueueLength(queueLen)

	return Stats{
		SessionID:       s.sessionID,
		Started:         started,
		Ranking:         rs,
		QueueLength:     queueLen,
		QueueCapacity:   s.queueCapacity,
		Pending:         pending,
		IdempotencyKeys: s.deduper.Size(),
	}
}
