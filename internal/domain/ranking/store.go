package ranking

import (
	"sort"

	"github.com/okian/pairank/internal/domain/model"
)

// Store owns item state and positional order. Outside this package items are
// only ever seen as copies. Between mutations items is sorted by position and
// items[p].Position == p.
type Store struct {
	items  []*model.Item
	byID   map[int64]*model.Item
	nextID int64
}

// NewStore creates an empty item store.
func NewStore() *Store {
	return &Store{byID: make(map[int64]*model.Item)}
}

// Add appends a new item at the bottom of the order.
func (s *Store) Add(name string) model.Item {
	s.nextID++
	item := &model.Item{ID: s.nextID, Name: name, Position: len(s.items)}
	s.items = append(s.items, item)
	s.byID[item.ID] = item
	return *item
}

// Len returns the number of items.
func (s *Store) Len() int {
	return len(s.items)
}

// UnlockedCount returns the number of items whose rank is not yet fixed.
func (s *Store) UnlockedCount() int {
	n := 0
	for _, item := range s.items {
		if !item.Locked {
			n++
		}
	}
	return n
}

// LockedCount returns the number of locked items.
func (s *Store) LockedCount() int {
	return len(s.items) - s.UnlockedCount()
}

// FirstUnlockedUncompared returns the highest-ranked unlocked item that has
// not taken part in a comparison this pass.
func (s *Store) FirstUnlockedUncompared() (model.Item, bool) {
	if item := s.firstUnlockedUncompared(); item != nil {
		return *item, true
	}
	return model.Item{}, false
}

func (s *Store) firstUnlockedUncompared() *model.Item {
	for _, item := range s.items {
		if !item.Locked && !item.ComparedThisPass {
			return item
		}
	}
	return nil
}

// ResetPassFlags clears comparedThisPass on every unlocked item.
func (s *Store) ResetPassFlags() {
	for _, item := range s.items {
		if !item.Locked {
			item.ComparedThisPass = false
		}
	}
}

// Reindex re-sorts the backing order by position.
func (s *Store) Reindex() {
	sort.SliceStable(s.items, func(i, j int) bool {
		return s.items[i].Position < s.items[j].Position
	})
}

// Get returns a copy of the item with the given id.
func (s *Store) Get(id int64) (model.Item, bool) {
	item, ok := s.byID[id]
	if !ok {
		return model.Item{}, false
	}
	return *item, true
}

// Items returns copies of all items in position order.
func (s *Store) Items() []model.Item {
	out := make([]model.Item, len(s.items))
	for i, item := range s.items {
		out[i] = *item
	}
	return out
}

func (s *Store) lookup(id int64) *model.Item {
	return s.byID[id]
}

// unlocked returns the unlocked items in position order.
func (s *Store) unlocked() []*model.Item {
	out := make([]*model.Item, 0, len(s.items))
	for _, item := range s.items {
		if !item.Locked {
			out = append(out, item)
		}
	}
	return out
}

// ordered returns a position-indexed snapshot of the backing order.
func (s *Store) ordered() []*model.Item {
	return append([]*model.Item(nil), s.items...)
}

func (s *Store) lockAll() []int64 {
	var ids []int64
	for _, item := range s.items {
		if !item.Locked {
			item.Locked = true
			ids = append(ids, item.ID)
		}
	}
	return ids
}
