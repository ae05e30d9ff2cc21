// Package stats holds the numeric primitives shared by the pattern engines.
package stats

import (
	"math"
	"sort"
	"time"
)

const hoursPerDay = 24.0

// Mode returns the most frequent value, preferring the first one seen on ties.
// It returns 0 for an empty slice.
func Mode(values []int) int {
	if len(values) == 0 {
		return 0
	}

	counts := make(map[int]int, len(values))
	best, bestCount := values[0], 0
	for _, v := range values {
		counts[v]++
	}
	for _, v := range values {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// Mean returns the arithmetic mean, or 0 for an empty slice.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// PopulationStdDev returns the population standard deviation, or 0 for fewer than two values.
func PopulationStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(values) / float64(len(values)))
}

// SampleStdDev returns the sample standard deviation, or 0 for fewer than two values.
func SampleStdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	return math.Sqrt(sumSquares(values) / float64(len(values)-1))
}

func sumSquares(values []float64) float64 {
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return ss
}

// Round rounds half away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}

// Clamp limits v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// Ints converts integers to floats.
func Ints(values []int) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = float64(v)
	}
	return out
}

// MinMax returns the smallest and largest values, or zeros for an empty slice.
func MinMax(values []int) (int, int) {
	if len(values) == 0 {
		return 0, 0
	}
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

// DaysBetween returns the fractional number of days from a to b.
func DaysBetween(a, b time.Time) float64 {
	return b.Sub(a).Hours() / hoursPerDay
}

// WholeDaysSince returns the number of whole days elapsed from from to to, flooring partial days.
func WholeDaysSince(from, to time.Time) int {
	return int(math.Floor(DaysBetween(from, to)))
}

// AddDays shifts t by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

// SortTimes returns a sorted copy of times.
func SortTimes(times []time.Time) []time.Time {
	sorted := make([]time.Time, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Before(sorted[j])
	})
	return sorted
}

// DayGaps returns the gaps between consecutive sorted timestamps, rounded to whole days.
func DayGaps(times []time.Time) []int {
	if len(times) < 2 {
		return nil
	}
	sorted := SortTimes(times)
	gaps := make([]int, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		gaps = append(gaps, Round(DaysBetween(sorted[i-1], sorted[i])))
	}
	return gaps
}

// DropOutliers removes gaps longer than maxDays and same-day repeats.
func DropOutliers(gaps []int, maxDays int) []int {
	kept := make([]int, 0, len(gaps))
	for _, g := range gaps {
		if g <= 0 || g > maxDays {
			continue
		}
		kept = append(kept, g)
	}
	return kept
}

// RoundToMultiple rounds v to the nearest multiple of step.
func RoundToMultiple(v, step int) int {
	if step <= 0 {
		return v
	}
	return Round(float64(v)/float64(step)) * step
}
