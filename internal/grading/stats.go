package grading

import (
	"fmt"
	"math"
	"sort"
)

// DefaultIntervals is the bucket count of the summary grade distribution.
const DefaultIntervals = 20

func percentages(totals []float64, outOf float64) []float64 {
	out := make([]float64, len(totals))
	for i, t := range totals {
		out[i] = t * 100 / outOf
	}
	return out
}

// Average is the mean of totals as a percentage of outOf. 0 without results or
// when outOf is 0.
func Average(totals []float64, outOf float64) float64 {
	if len(totals) == 0 || outOf == 0 {
		return 0
	}
	sum := 0.0
	for _, t := range totals {
		sum += t
	}
	return sum / float64(len(totals)) * 100 / outOf
}

// Median is the median of totals as a percentage of outOf.
func Median(totals []float64, outOf float64) float64 {
	if len(totals) == 0 || outOf == 0 {
		return 0
	}
	s := append([]float64(nil), totals...)
	sort.Float64s(s)
	n := len(s)
	m := s[n/2]
	if n%2 == 0 {
		m = (s[n/2-1] + s[n/2]) / 2
	}
	return m * 100 / outOf
}

// Fails counts results below 50%.
func Fails(totals []float64, outOf float64) int {
	if outOf == 0 {
		return 0
	}
	n := 0
	for _, p := range percentages(totals, outOf) {
		if p < 50 {
			n++
		}
	}
	return n
}

// Zeros counts results with a zero total. With outOf 0 every result counts.
func Zeros(totals []float64, outOf float64) int {
	if outOf == 0 {
		return len(totals)
	}
	n := 0
	for _, t := range totals {
		if t == 0 {
			n++
		}
	}
	return n
}

// Distribution buckets result percentages into intervals equal steps over
// 0..100. A result on a step boundary falls in the lower bucket; 0% and
// anything above 100% are clamped into the first and last bucket.
func Distribution(totals []float64, outOf float64, intervals int) []int {
	if intervals <= 0 {
		intervals = DefaultIntervals
	}
	out := make([]int, intervals)
	if outOf == 0 {
		return out
	}
	step := 100 / float64(intervals)
	for _, p := range percentages(totals, outOf) {
		i := int(math.Ceil(p/step)) - 1
		if i < 0 {
			i = 0
		}
		if i > intervals-1 {
			i = intervals - 1
		}
		out[i]++
	}
	return out
}

// DistributionLabels are the "lo-hi" captions of each Distribution bucket.
func DistributionLabels(intervals int) []string {
	if intervals <= 0 {
		intervals = DefaultIntervals
	}
	step := 100 / float64(intervals)
	out := make([]string, intervals)
	for i := range out {
		out[i] = fmt.Sprintf("%g-%g", math.Round(float64(i)*step*100)/100, math.Round(float64(i+1)*step*100)/100)
	}
	return out
}

// Summary is the statistics block shown beside the grade chart.
type Summary struct {
	Average       float64 `json:"average"`
	Median        float64 `json:"median"`
	NumFails      int     `json:"num_fails"`
	NumZeros      int     `json:"num_zeros"`
	GroupingsSize int     `json:"groupings_size"`
}

// Summarize computes Summary over completed totals. Percentages are rounded
// to two places.
func Summarize(totals []float64, outOf float64, groupings int) Summary {
	return Summary{
		Average:       math.Round(Average(totals, outOf)*100) / 100,
		Median:        math.Round(Median(totals, outOf)*100) / 100,
		NumFails:      Fails(totals, outOf),
		NumZeros:      Zeros(totals, outOf),
		GroupingsSize: groupings,
	}
}
