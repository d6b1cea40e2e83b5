// Package matchup records pairwise outcomes and answers transitive ordering queries.
//
// Queries walk the recorded edges on every call; nothing is memoized. The
// walks carry a visited set so a cyclic log still terminates.
package matchup

import (
	"fmt"
	"strings"

	"github.com/okian/pairank/internal/domain/model"
)

// Set is a collection of item ids.
type Set map[int64]struct{}

// Has reports whether id is a member.
func (s Set) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Log is an append-only sequence of comparison records. It is not safe for
// concurrent use.
type Log struct {
	records     []model.ComparisonRecord
	guardCycles bool
}

// NewLog creates an empty comparison log.
func NewLog(opts ...Option) *Log {
	l := &Log{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Record appends winner -> loser. Self-loops are always rejected; edges that
// close a cycle are rejected when the cycle guard is on.
func (l *Log) Record(winnerID, loserID int64) error {
	if winnerID == loserID {
		return fmt.Errorf("record %d>%d: %w", winnerID, loserID, ErrSelfLoop)
	}
	if l.guardCycles && l.WouldCycle(winnerID, loserID) {
		return fmt.Errorf("record %d>%d: %w", winnerID, loserID, ErrInconsistentLog)
	}
	l.records = append(l.records, model.ComparisonRecord{WinnerID: winnerID, LoserID: loserID})
	return nil
}

// WouldCycle reports whether recording winner -> loser would close a cycle,
// i.e. the loser is already known to outrank the winner.
func (l *Log) WouldCycle(winnerID, loserID int64) bool {
	if winnerID == loserID {
		return true
	}
	return l.RankedLowerThan(loserID).Has(winnerID)
}

// RankedHigherThan returns every id shown, directly or transitively, to outrank id.
func (l *Log) RankedHigherThan(id int64) Set {
	beatenBy := make(map[int64][]int64)
	for _, r := range l.records {
		beatenBy[r.LoserID] = append(beatenBy[r.LoserID], r.WinnerID)
	}
	return reach(beatenBy, id)
}

// RankedLowerThan returns every id that id has been shown to outrank.
func (l *Log) RankedLowerThan(id int64) Set {
	beat := make(map[int64][]int64)
	for _, r := range l.records {
		beat[r.WinnerID] = append(beat[r.WinnerID], r.LoserID)
	}
	return reach(beat, id)
}

// HaveBeenCompared reports whether the relative order of a and b is known.
func (l *Log) HaveBeenCompared(a, b int64) bool {
	return l.RankedHigherThan(a).Has(b) || l.RankedLowerThan(a).Has(b)
}

// reach collects all ids reachable from start along edges. start itself is
// included only when it lies on a cycle.
func reach(edges map[int64][]int64, start int64) Set {
	out := make(Set)
	frontier := append([]int64(nil), edges[start]...)
	for len(frontier) > 0 {
		next := frontier[len(frontier)-1]
		frontier = frontier[:len(frontier)-1]
		if out.Has(next) {
			continue
		}
		out[next] = struct{}{}
		frontier = append(frontier, edges[next]...)
	}
	return out
}

// FindCycle returns one cycle as a list of ids (first id repeated at the end),
// or nil when the log is acyclic.
func (l *Log) FindCycle() []int64 {
	beat := make(map[int64][]int64)
	var roots []int64
	for _, r := range l.records {
		if _, ok := beat[r.WinnerID]; !ok {
			roots = append(roots, r.WinnerID)
		}
		beat[r.WinnerID] = append(beat[r.WinnerID], r.LoserID)
	}

	const (
		unseen = iota
		onPath
		done
	)
	state := make(map[int64]int)
	type frame struct {
		id   int64
		next int
	}

	for _, root := range roots {
		if state[root] != unseen {
			continue
		}
		path := []frame{{id: root}}
		state[root] = onPath
		for len(path) > 0 {
			top := &path[len(path)-1]
			children := beat[top.id]
			if top.next == len(children) {
				state[top.id] = done
				path = path[:len(path)-1]
				continue
			}
			child := children[top.next]
			top.next++
			switch state[child] {
			case onPath:
				cycle := []int64{}
				for i := len(path) - 1; i >= 0; i-- {
					if path[i].id == child {
						for _, f := range path[i:] {
							cycle = append(cycle, f.id)
						}
						break
					}
				}
				return append(cycle, child)
			case unseen:
				state[child] = onPath
				path = append(path, frame{id: child})
			}
		}
	}
	return nil
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Records returns a copy of the log in append order.
func (l *Log) Records() []model.ComparisonRecord {
	return append([]model.ComparisonRecord(nil), l.records...)
}

// String renders the log as "w>l" pairs, one per record.
func (l *Log) String() string {
	var b strings.Builder
	for i, r := range l.records {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d>%d", r.WinnerID, r.LoserID)
	}
	return b.String()
}
