package simulate

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/okian/pairank/internal/domain/model"
)

// Oracle answers comparisons from a hidden total order.
type Oracle struct {
	rank  map[string]int
	truth []string
	calls atomic.Int64
}

// NewOracle shuffles names with seed and uses the result as the hidden order.
func NewOracle(names []string, seed int64) *Oracle {
	truth := make([]string, len(names))
	copy(truth, names)
	r := rand.New(rand.NewPCG(uint64(seed), uint64(seed)>>1|1))
	r.Shuffle(len(truth), func(i, j int) { truth[i], truth[j] = truth[j], truth[i] })

	rank := make(map[string]int, len(truth))
	for i, n := range truth {
		rank[n] = i
	}
	return &Oracle{rank: rank, truth: truth}
}

// Truth returns the hidden order, best first.
func (o *Oracle) Truth() []string {
	out := make([]string, len(o.truth))
	copy(out, o.truth)
	return out
}

// Calls reports how many questions the oracle answered.
func (o *Oracle) Calls() int {
	return int(o.calls.Load())
}

// Choose prefers whichever name sits higher in the hidden order.
func (o *Oracle) Choose(_ context.Context, a, b string) (model.Side, error) {
	ra, okA := o.rank[a]
	rb, okB := o.rank[b]
	if !okA || !okB {
		return 0, fmt.Errorf("oracle: unknown item in %q vs %q", a, b)
	}
	o.calls.Add(1)
	if ra < rb {
		return model.SideA, nil
	}
	return model.SideB, nil
}

// generateNames returns n distinct synthetic item names.
func generateNames(n int) []string {
	names := make([]string, n)
	for i := range names {
		names[i] = fmt.Sprintf("item-%03d", i+1)
	}
	return names
}
