// Package dedupe remembers which item an idempotent request produced.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Default cache configuration constants.
const (
	defaultMaxSize = 10_000
)

// Deduper maps request ids to the item id they created so a retried add
// returns the original item instead of creating a duplicate.
type Deduper interface {
	// Lookup returns the item id recorded for requestID.
	Lookup(ctx context.Context, requestID string) (int64, bool)

	// Record remembers that requestID produced itemID. Recording an existing
	// request id keeps the first item id.
	Record(ctx context.Context, requestID string, itemID int64)

	// Unrecord forgets requestID.
	Unrecord(ctx context.Context, requestID string)

	Size() int64
}

// node is one entry in the insertion-ordered list.
type node struct {
	requestID  string
	itemID     int64
	prev, next *node
}

func (n *node) reset() {
	*n = node{}
}

// inMemoryDeduper keeps entries in a map plus a doubly linked list in
// insertion order. In bounded mode the oldest entry is evicted first.
type inMemoryDeduper struct {
	mu         sync.Mutex
	seen       map[string]*node
	head, tail *node // head is the newest entry
	maxSize    int   // 0 or negative means unbounded
	size       atomic.Int64
	nodePool   sync.Pool
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]*node)
	d.nodePool = sync.Pool{
		New: func() any {
			return &node{}
		},
	}
	return d
}

func (d *inMemoryDeduper) Lookup(_ context.Context, requestID string) (int64, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	n, ok := d.seen[requestID]
	if !ok {
		return 0, false
	}
	return n.itemID, true
}

func (d *inMemoryDeduper) Record(_ context.Context, requestID string, itemID int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[requestID]; exists {
		return
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	n := d.nodePool.Get().(*node)
	n.requestID = requestID
	n.itemID = itemID
	n.next = d.head
	if d.head != nil {
		d.head.prev = n
	}
	d.head = n
	if d.tail == nil {
		d.tail = n
	}
	d.seen[requestID] = n
	d.size.Add(1)
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, requestID string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if n, exists := d.seen[requestID]; exists {
		d.remove(n)
	}
}

// evictOldest drops the tail. Must be called with d.mu held.
func (d *inMemoryDeduper) evictOldest() {
	if d.tail != nil {
		d.remove(d.tail)
	}
}

// remove unlinks n and returns it to the pool. Must be called with d.mu held.
func (d *inMemoryDeduper) remove(n *node) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		d.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		d.tail = n.prev
	}
	delete(d.seen, n.requestID)
	n.reset()
	d.nodePool.Put(n)
	d.size.Add(-1)
}

// Size returns the current number of entries in the deduper.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
