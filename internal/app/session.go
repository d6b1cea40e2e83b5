package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/pairank/internal/domain/model"
	"github.com/okian/pairank/internal/domain/ranking"
	"github.com/okian/pairank/internal/domain/types"
	"github.com/okian/pairank/pkg/logger"
)

// Prompter turns an open comparison into a decision. It may block for as long
// as the decision-maker needs. Returning ErrAborted ends the session.
type Prompter interface {
	Choose(ctx context.Context, nameA, nameB string) (model.Side, error)
}

// rejectionNotifier is implemented by prompters that want to tell the
// decision-maker why an answer was refused.
type rejectionNotifier interface {
	Rejected(reason error)
}

// Loader supplies item names in the order they should be added.
type Loader interface {
	Load(ctx context.Context) ([]string, error)
}

// SessionResult summarizes a finished session.
type SessionResult struct {
	Entries     []types.Entry `json:"entries"`
	Comparisons int           `json:"comparisons"`
	Rejected    int           `json:"rejected"`
	Duration    time.Duration `json:"duration"`
}

// Session drives a scheduler with a prompter until the ranking completes.
type Session struct {
	scheduler *Scheduler
	prompter  Prompter
	logger    logger.Logger
}

// NewSession binds a prompter to a started scheduler.
func NewSession(s *Scheduler, p Prompter, l logger.Logger) *Session {
	if l == nil {
		l = logger.Discard()
	}
	return &Session{scheduler: s, prompter: p, logger: l}
}

// Load adds every name from the loader. Names the ranker refuses are skipped
// and logged; the number of items added is returned.
func (s *Session) Load(ctx context.Context, loader Loader) (int, error) {
	names, err := loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrLoad, err)
	}
	added := 0
	for i, name := range names {
		if _, err := s.scheduler.AddItem(ctx, name, ""); err != nil {
			if errors.Is(err, ranking.ErrInvalidName) {
				s.logger.Warn(ctx, "skipping item", logger.Int("line", i+1), logger.Error(err))
				continue
			}
			return added, fmt.Errorf("add %q: %w", name, err)
		}
		added++
	}
	s.logger.Info(ctx, "items loaded", logger.Int("count", added))
	return added, nil
}

// Run asks comparisons until the ranking is complete. If the prompter fails
// the open comparison is cancelled and the error returned.
func (s *Session) Run(ctx context.Context) (SessionResult, error) {
	start := time.Now()
	var res SessionResult

	for {
		p, err := s.scheduler.RequestComparison(ctx)
		if err != nil {
			return res, err
		}
		if p.Complete {
			res.Entries = s.scheduler.OrderedList()
			res.Duration = time.Since(start)
			s.logger.Info(ctx, "session complete",
				logger.Int("comparisons", res.Comparisons),
				logger.Int("rejected", res.Rejected),
				logger.Int64("duration_ms", res.Duration.Milliseconds()),
			)
			return res, nil
		}
		if err := s.resolve(ctx, p, &res); err != nil {
			return res, err
		}
	}
}

func (s *Session) resolve(ctx context.Context, p Prompt, res *SessionResult) error {
	for {
		side, err := s.prompter.Choose(ctx, p.ItemA.Name, p.ItemB.Name)
		if err != nil {
			if cerr := s.scheduler.CancelPending(context.WithoutCancel(ctx)); cerr != nil {
				s.logger.Warn(ctx, "cancel pending comparison failed", logger.Error(cerr))
			}
			return err
		}

		_, err = s.scheduler.SubmitResult(ctx, side)
		switch {
		case err == nil:
			res.Comparisons++
			return nil
		case errors.Is(err, ranking.ErrInvalidSelection), errors.Is(err, ranking.ErrInconsistentLog):
			res.Rejected++
			s.logger.Warn(ctx, "answer rejected, asking again", logger.Int("side", int(side)), logger.Error(err))
			if n, ok := s.prompter.(rejectionNotifier); ok {
				n.Rejected(err)
			}
		default:
			return err
		}
	}
}
