package grading

// Criterion is the view of a grading criterion needed to total a result.
type Criterion struct {
	ID      int64
	MaxMark float64
}

// Subtotal sums the awarded marks, each clamped to [0, criterion max].
// Marks for criteria not in list are ignored. Bonus criteria count like any
// other; they are only left out of the assignment maximum.
func Subtotal(marks map[int64]float64, list []Criterion) float64 {
	total := 0.0
	for _, c := range list {
		v, ok := marks[c.ID]
		if !ok {
			continue
		}
		if v < 0 {
			v = 0
		}
		if v > c.MaxMark {
			v = c.MaxMark
		}
		total += v
	}
	return total
}
