package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var sampleTotals = []float64{0, 10, 10, 10, 20, 20}

func TestAverageAndMedian(t *testing.T) {
	assert.InDelta(t, 58.3333, Average(sampleTotals, 20), 0.0001)
	assert.Equal(t, 50.0, Median(sampleTotals, 20))
	assert.Equal(t, 50.0, Median([]float64{5, 10, 15}, 20))

	assert.Equal(t, 0.0, Average(nil, 20))
	assert.Equal(t, 0.0, Median(nil, 20))
	assert.Equal(t, 0.0, Average(sampleTotals, 0))
	assert.Equal(t, 0.0, Median(sampleTotals, 0))
}

func TestFailsAndZeros(t *testing.T) {
	assert.Equal(t, 1, Fails(sampleTotals, 20))
	assert.Equal(t, 4, Fails(sampleTotals, 40))
	assert.Equal(t, 0, Fails(sampleTotals, 0))

	assert.Equal(t, 1, Zeros(sampleTotals, 20))
	assert.Equal(t, len(sampleTotals), Zeros(sampleTotals, 0), "every result counts when max is 0")
}

func TestDistribution(t *testing.T) {
	got := Distribution(sampleTotals, 20, 0)
	want := make([]int, 20)
	want[0], want[9], want[19] = 1, 3, 2
	assert.Equal(t, want, got)

	assert.Equal(t, []int{1, 0, 0, 0, 3, 0, 0, 0, 0, 2}, Distribution(sampleTotals, 20, 10))
	assert.Equal(t, []int{0, 0, 0, 1}, Distribution([]float64{30}, 20, 4), "over 100% lands in the last bucket")
	assert.Equal(t, []int{0, 0}, Distribution(sampleTotals, 0, 2))
}

func TestDistributionLabels(t *testing.T) {
	assert.Equal(t, []string{"0-25", "25-50", "50-75", "75-100"}, DistributionLabels(4))
	labels := DistributionLabels(0)
	assert.Len(t, labels, DefaultIntervals)
	assert.Equal(t, "95-100", labels[19])
	assert.Equal(t, []string{"0-33.33", "33.33-66.67", "66.67-100"}, DistributionLabels(3))
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTotals, 20, 8)
	assert.Equal(t, Summary{Average: 58.33, Median: 50, NumFails: 1, NumZeros: 1, GroupingsSize: 8}, s)
}

func TestSubtotal(t *testing.T) {
	list := []Criterion{{ID: 1, MaxMark: 4}, {ID: 2, MaxMark: 2}, {ID: 3, MaxMark: 1}}
	marks := map[int64]float64{1: 3.5, 2: 5, 3: -1, 99: 10}
	assert.Equal(t, 5.5, Subtotal(marks, list))
	assert.Equal(t, 0.0, Subtotal(nil, list))
}
