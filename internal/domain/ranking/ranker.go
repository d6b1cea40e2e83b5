package ranking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/okian/pairank/internal/domain/matchup"
	"github.com/okian/pairank/internal/domain/model"
	"github.com/okian/pairank/pkg/logger"
	"github.com/okian/pairank/pkg/metrics"
)

// State is the ranker's position in the question/answer cycle.
type State int

// Ranker states.
const (
	StateAwaitingQuestion State = iota
	StateQuestionPending
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateAwaitingQuestion:
		return "awaiting_question"
	case StateQuestionPending:
		return "question_pending"
	case StateComplete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Pending is an open question. IndexA and IndexB are the positions of the
// two items when the question was opened.
type Pending struct {
	ItemA    model.Item
	ItemB    model.Item
	IndexA   int
	IndexB   int
	OpenedAt time.Time
}

// Outcome describes an applied result.
type Outcome struct {
	Winner model.Item `json:"winner"`
	Loser  model.Item `json:"loser"`
	// Locked lists ids that became locked as a consequence of this result.
	Locked []int64 `json:"locked"`
}

// Stats is a point-in-time summary of ranking progress.
type Stats struct {
	State       string `json:"state"`
	Items       int    `json:"items"`
	Locked      int    `json:"locked"`
	Comparisons int    `json:"comparisons"`
	Passes      int    `json:"passes"`
}

// Ranker selects the next pair to compare, applies answers, and locks items
// whose rank is settled. It is not safe for concurrent use; callers serialize
// access.
type Ranker struct {
	store   *Store
	log     *matchup.Log
	state   State
	pending *Pending
	// exhausted holds unlocked ids whose relation to every other unlocked
	// item is already known. Cleared whenever an item is added.
	exhausted map[int64]bool
	passes    int

	rejectCycles  bool
	maxNameLength int
	now           func() time.Time
	logger        logger.Logger
}

// New constructs a Ranker over an empty store and log.
func New(opts ...Option) *Ranker {
	r := &Ranker{
		rejectCycles:  true,
		maxNameLength: defaultMaxNameLength,
		now:           time.Now,
		logger:        logger.Discard(),
		exhausted:     make(map[int64]bool),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.store = NewStore()
	r.log = matchup.NewLog(matchup.WithCycleGuard(r.rejectCycles))
	return r
}

// AddItem places a new item at the bottom of the order. Once any item is
// locked its rank is final, so further adds return ErrRankingLocked.
func (r *Ranker) AddItem(ctx context.Context, name string) (model.Item, error) {
	name = strings.TrimSpace(name)
	switch {
	case name == "":
		return model.Item{}, fmt.Errorf("empty name: %w", ErrInvalidName)
	case len(name) > r.maxNameLength:
		return model.Item{}, fmt.Errorf("name longer than %d bytes: %w", r.maxNameLength, ErrInvalidName)
	case !utf8.ValidString(name):
		return model.Item{}, fmt.Errorf("name is not valid UTF-8: %w", ErrInvalidName)
	}

	if n := r.store.LockedCount(); n > 0 {
		metrics.RecordRejection("ranking_locked")
		return model.Item{}, fmt.Errorf("add %q with %d locked: %w", name, n, ErrRankingLocked)
	}

	item := r.store.Add(name)
	clear(r.exhausted)
	if r.state == StateComplete {
		// Only an empty ranking completes without locking anything.
		r.state = StateAwaitingQuestion
	}
	metrics.RecordItemAdded(r.store.Len())
	r.logger.Debug(ctx, "item added", logger.Int64("id", item.ID), logger.String("name", item.Name), logger.Int("position", item.Position))
	return item, nil
}

// NextComparison opens the next question. It returns ErrSortComplete when
// nothing is left to ask and ErrQuestionPending if a question is already open.
func (r *Ranker) NextComparison(ctx context.Context) (Pending, error) {
	if r.state == StateQuestionPending {
		return *r.pending, ErrQuestionPending
	}

	for {
		if r.store.UnlockedCount() <= 1 {
			r.lock(ctx, r.store.lockAll())
			return Pending{}, r.complete(ctx)
		}

		a := r.candidate()
		if a == nil {
			r.startPass(ctx)
			a = r.candidate()
			if a == nil {
				// Every unlocked item is exhausted but the lock sweep could not
				// place them; the known relation fixes their order.
				r.settle(ctx)
				return Pending{}, r.complete(ctx)
			}
		}

		b := r.opponent(a)
		if b == nil {
			r.exhausted[a.ID] = true
			continue
		}

		r.pending = &Pending{
			ItemA:    *a,
			ItemB:    *b,
			IndexA:   a.Position,
			IndexB:   b.Position,
			OpenedAt: r.now(),
		}
		r.state = StateQuestionPending
		metrics.RecordComparisonRequested()
		metrics.UpdatePendingQuestion(true)
		r.logger.Debug(ctx, "comparison opened",
			logger.Int64("a", a.ID), logger.Int64("b", b.ID),
			logger.Int("index_a", a.Position), logger.Int("index_b", b.Position),
		)
		return *r.pending, nil
	}
}

// candidate is the first unlocked item neither compared this pass nor
// exhausted.
func (r *Ranker) candidate() *model.Item {
	for _, item := range r.store.items {
		if !item.Locked && !item.ComparedThisPass && !r.exhausted[item.ID] {
			return item
		}
	}
	return nil
}

// opponent picks the first unlocked item not yet related to a, preferring
// items not compared this pass.
func (r *Ranker) opponent(a *model.Item) *model.Item {
	var fallback *model.Item
	for _, b := range r.store.items {
		if b.ID == a.ID || b.Locked || r.log.HaveBeenCompared(a.ID, b.ID) {
			continue
		}
		if !b.ComparedThisPass {
			return b
		}
		if fallback == nil {
			fallback = b
		}
	}
	return fallback
}

func (r *Ranker) startPass(ctx context.Context) {
	r.store.ResetPassFlags()
	r.passes++
	metrics.RecordPassStarted()
	r.logger.Debug(ctx, "pass started", logger.Int("pass", r.passes), logger.Int("unlocked", r.store.UnlockedCount()))
}

func (r *Ranker) complete(ctx context.Context) error {
	if r.state != StateComplete {
		r.state = StateComplete
		metrics.RecordSortCompleted()
		r.logger.Info(ctx, "ranking complete",
			logger.Int("items", r.store.Len()),
			logger.Int("comparisons", r.log.Len()),
			logger.Int("passes", r.passes),
		)
	}
	return ErrSortComplete
}

// Pending returns the open question, if any.
func (r *Ranker) Pending() (Pending, bool) {
	if r.pending == nil {
		return Pending{}, false
	}
	return *r.pending, true
}

// SubmitResult applies the answer to the open question. An invalid side or a
// contradicting answer leaves the question open and state untouched.
func (r *Ranker) SubmitResult(ctx context.Context, side model.Side) (Outcome, error) {
	if r.state != StateQuestionPending {
		metrics.RecordRejection("no_open_comparison")
		return Outcome{}, ErrNoOpenComparison
	}
	if !side.Valid() {
		metrics.RecordRejection("invalid_selection")
		r.logger.Warn(ctx, "rejected selection", logger.Int("side", int(side)))
		return Outcome{}, fmt.Errorf("side %d: %w", int(side), ErrInvalidSelection)
	}

	winnerID, loserID := r.pending.ItemA.ID, r.pending.ItemB.ID
	if side == model.SideB {
		winnerID, loserID = loserID, winnerID
	}
	winner, loser := r.store.lookup(winnerID), r.store.lookup(loserID)

	if err := r.log.Record(winner.ID, loser.ID); err != nil {
		if errors.Is(err, matchup.ErrInconsistentLog) {
			metrics.RecordRejection("inconsistent")
			metrics.RecordCycleDetected()
		}
		r.logger.Warn(ctx, "rejected result", logger.Int64("winner", winner.ID), logger.Int64("loser", loser.ID), logger.Error(err))
		return Outcome{}, err
	}
	if !r.rejectCycles {
		if cycle := r.log.FindCycle(); cycle != nil {
			metrics.RecordCycleDetected()
			r.logger.Warn(ctx, "comparison log is cyclic", logger.Any("cycle", cycle))
		}
	}

	winner.Wins++
	loser.Losses++
	winner.ComparedThisPass = true
	loser.ComparedThisPass = true

	r.reposition(winner, loser)
	locked := r.sweepLocks()
	r.lock(ctx, locked)

	latency := r.now().Sub(r.pending.OpenedAt)
	metrics.RecordComparisonResolved(float64(latency.Milliseconds()))
	metrics.UpdatePendingQuestion(false)
	r.pending = nil
	r.state = StateAwaitingQuestion

	r.logger.Debug(ctx, "result applied",
		logger.Int64("winner", winner.ID), logger.Int("winner_position", winner.Position),
		logger.Int64("loser", loser.ID), logger.Int("loser_position", loser.Position),
		logger.Int("locked", len(locked)),
	)
	return Outcome{Winner: *winner, Loser: *loser, Locked: locked}, nil
}

// CancelPending discards the open question without touching any state.
func (r *Ranker) CancelPending(ctx context.Context) error {
	if r.state != StateQuestionPending {
		return ErrNoOpenComparison
	}
	r.logger.Debug(ctx, "comparison cancelled", logger.Int64("a", r.pending.ItemA.ID), logger.Int64("b", r.pending.ItemB.ID))
	r.pending = nil
	r.state = StateAwaitingQuestion
	metrics.RecordComparisonCancelled()
	metrics.UpdatePendingQuestion(false)
	return nil
}

func (r *Ranker) lock(ctx context.Context, ids []int64) {
	if len(ids) == 0 {
		return
	}
	for _, id := range ids {
		delete(r.exhausted, id)
	}
	metrics.UpdateItemsLocked(r.store.LockedCount())
	r.logger.Debug(ctx, "items locked", logger.Any("ids", ids))
}

// State returns the current state.
func (r *Ranker) State() State {
	return r.state
}

// Items returns copies of all items in position order.
func (r *Ranker) Items() []model.Item {
	return r.store.Items()
}

// Item returns a copy of the item with the given id.
func (r *Ranker) Item(id int64) (model.Item, bool) {
	return r.store.Get(id)
}

// Records returns a copy of the comparison log.
func (r *Ranker) Records() []model.ComparisonRecord {
	return r.log.Records()
}

// Stats summarizes progress.
func (r *Ranker) Stats() Stats {
	return Stats{
		State:       r.state.String(),
		Items:       r.store.Len(),
		Locked:      r.store.LockedCount(),
		Comparisons: r.log.Len(),
		Passes:      r.passes,
	}
}

// DebugSnapshot renders items and the comparison log for humans.
func (r *Ranker) DebugSnapshot() string {
	var b strings.Builder
	fmt.Fprintf(&b, "state=%s items=%d locked=%d comparisons=%d passes=%d\n",
		r.state, r.store.Len(), r.store.LockedCount(), r.log.Len(), r.passes)
	for _, item := range r.store.items {
		flags := ""
		if item.Locked {
			flags += " locked"
		}
		if item.ComparedThisPass {
			flags += " compared"
		}
		fmt.Fprintf(&b, "%3d. [%d] %s (%d-%d)%s\n", item.Position, item.ID, item.Name, item.Wins, item.Losses, flags)
	}
	if r.pending != nil {
		fmt.Fprintf(&b, "pending: [%d] vs [%d]\n", r.pending.ItemA.ID, r.pending.ItemB.ID)
	}
	fmt.Fprintf(&b, "log: %s\n", r.log)
	return b.String()
}
