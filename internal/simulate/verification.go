package simulate

// verify compares the ranked names with the hidden order and reports how
// many positions disagree.
func verify(ranked, truth []string) (bool, int) {
	misplaced := 0
	for i := range truth {
		if i >= len(ranked) || ranked[i] != truth[i] {
			misplaced++
		}
	}
	misplaced += max(len(ranked)-len(truth), 0)
	return misplaced == 0, misplaced
}

func finish(r *Report, ranked, truth []string, allLocked bool) {
	r.Ranking = ranked
	r.Items = len(truth)
	r.Naive = naiveComparisons(len(truth))
	r.AllLocked = allLocked
	r.Correct, r.Misplaced = verify(ranked, truth)
	if r.Naive > 0 {
		r.Ratio = float64(r.Comparisons) / float64(r.Naive)
	}
}
