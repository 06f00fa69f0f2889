package criteria

import "fmt"

// ReorderPositions maps each id in order to its new 1-based position. order
// must be a permutation of existing: every id exactly once, nothing foreign.
func ReorderPositions(existing, order []int64) (map[int64]int, error) {
	if len(order) != len(existing) {
		return nil, fmt.Errorf("%w: got %d ids, assignment has %d criteria", ErrCriteriaNotFound, len(order), len(existing))
	}
	known := make(map[int64]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}
	out := make(map[int64]int, len(order))
	for i, id := range order {
		if !known[id] {
			return nil, fmt.Errorf("%w: id %d", ErrCriteriaNotFound, id)
		}
		if _, dup := out[id]; dup {
			return nil, fmt.Errorf("%w: id %d listed twice", ErrCriteriaNotFound, id)
		}
		out[id] = i + 1
	}
	return out, nil
}

// MaxMark sums the max marks of non-bonus criteria; taOnly restricts the sum
// to criteria visible to TAs.
func MaxMark(list []Criterion, taOnly bool) float64 {
	total := 0.0
	for _, c := range list {
		if c.Bonus || (taOnly && !c.TAVisible) {
			continue
		}
		total += c.MaxMark
	}
	return roundMark(total, 2)
}
