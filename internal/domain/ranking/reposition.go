package ranking

import (
	"context"
	"sort"

	"github.com/okian/pairank/internal/domain/matchup"
	"github.com/okian/pairank/internal/domain/model"
)

// reposition moves winner and loser after a result. Locked items never move
// and positions stay a permutation of 0..n-1.
func (r *Ranker) reposition(winner, loser *model.Item) {
	if winner.Position > loser.Position {
		r.shiftUpset(winner, loser)
		r.store.Reindex()
		return
	}

	if diff := winner.Differential(); diff > 0 {
		r.climb(winner, diff)
		r.store.Reindex()
	}
	if diff := loser.Differential(); diff < 0 {
		r.sink(loser, -diff)
		r.store.Reindex()
	}
}

// shiftUpset puts the winner in the loser's slot and moves every unlocked
// item from the loser down to the winner's old slot one unlocked slot lower.
// With no locked item in between this is a plain shift by one.
func (r *Ranker) shiftUpset(winner, loser *model.Item) {
	order := r.store.ordered()
	var (
		slots  []int
		moving []*model.Item
	)
	for p := loser.Position; p <= winner.Position; p++ {
		if order[p].Locked {
			continue
		}
		slots = append(slots, p)
		moving = append(moving, order[p])
	}
	// moving is [loser, ..., winner]
	rotated := append([]*model.Item{winner}, moving[:len(moving)-1]...)
	for i, item := range rotated {
		item.Position = slots[i]
	}
}

// climb moves the winner up by up to steps slots, stopping below the first
// locked item or item already known to outrank it.
func (r *Ranker) climb(winner *model.Item, steps int) {
	order := r.store.ordered()
	from := winner.Position
	target := max(0, from-steps)
	higher := r.log.RankedHigherThan(winner.ID)

	to := target
	for i := from - 1; i >= target; i-- {
		if occ := order[i]; occ.Locked || higher.Has(occ.ID) {
			to = i + 1
			break
		}
	}
	for i := to; i < from; i++ {
		order[i].Position++
	}
	winner.Position = to
}

// sink moves the loser down by up to steps slots, stopping above the first
// locked item or item it is already known to outrank.
func (r *Ranker) sink(loser *model.Item, steps int) {
	order := r.store.ordered()
	from := loser.Position
	target := min(len(order)-1, from+steps)
	lower := r.log.RankedLowerThan(loser.ID)

	to := target
	for i := from + 1; i <= target; i++ {
		if occ := order[i]; occ.Locked || lower.Has(occ.ID) {
			to = i - 1
			break
		}
	}
	for i := from + 1; i <= to; i++ {
		order[i].Position--
	}
	loser.Position = to
}

// sweepLocks locks, from the top, each unlocked item that outranks every
// other unlocked item, then does the same from the bottom for items outranked
// by every other unlocked item. Each scan stops at the first miss.
func (r *Ranker) sweepLocks() []int64 {
	var locked []int64
	for {
		unlocked := r.store.unlocked()
		if len(unlocked) == 0 {
			return locked
		}
		top := unlocked[0]
		if countAmong(r.log.RankedLowerThan(top.ID), unlocked, top.ID) != len(unlocked)-1 {
			break
		}
		top.Locked = true
		locked = append(locked, top.ID)
	}
	for {
		unlocked := r.store.unlocked()
		if len(unlocked) == 0 {
			return locked
		}
		bottom := unlocked[len(unlocked)-1]
		if countAmong(r.log.RankedHigherThan(bottom.ID), unlocked, bottom.ID) != len(unlocked)-1 {
			break
		}
		bottom.Locked = true
		locked = append(locked, bottom.ID)
	}
	return locked
}

// countAmong counts members of items other than self that are in set.
func countAmong(set matchup.Set, items []*model.Item, self int64) int {
	n := 0
	for _, item := range items {
		if item.ID != self && set.Has(item.ID) {
			n++
		}
	}
	return n
}

// settle orders the unlocked items over their current slots by how many
// other unlocked items each outranks, then locks them all. Ties keep their
// current relative order.
func (r *Ranker) settle(ctx context.Context) {
	unlocked := r.store.unlocked()
	slots := make([]int, len(unlocked))
	dominance := make(map[int64]int, len(unlocked))
	for i, item := range unlocked {
		slots[i] = item.Position
		dominance[item.ID] = countAmong(r.log.RankedLowerThan(item.ID), unlocked, item.ID)
	}
	sort.SliceStable(unlocked, func(i, j int) bool {
		return dominance[unlocked[i].ID] > dominance[unlocked[j].ID]
	})
	ids := make([]int64, len(unlocked))
	for i, item := range unlocked {
		item.Position = slots[i]
		item.Locked = true
		ids[i] = item.ID
	}
	r.store.Reindex()
	r.lock(ctx, ids)
}
