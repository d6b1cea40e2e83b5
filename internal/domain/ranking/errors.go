package ranking

import (
	"errors"

	"github.com/okian/pairank/internal/domain/matchup"
)

// ErrSortComplete is returned by NextComparison once no question remains.
// It marks the terminal state rather than a failure.
var ErrSortComplete = errors.New("sort complete")

// Sentinel kinds for ranker errors.
var (
	ErrInvalidSelection = errors.New("winner side must be 1 or 2")
	ErrNoOpenComparison = errors.New("no comparison is open")
	ErrQuestionPending  = errors.New("a comparison is already open")
	ErrInvalidName      = errors.New("invalid item name")
	ErrRankingLocked    = errors.New("items are already locked")
	ErrInconsistentLog  = matchup.ErrInconsistentLog
)
