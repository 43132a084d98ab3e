package structure

import (
	"math"
)

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func variance(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	m := mean(xs)
	var sum float64
	for _, x := range xs {
		sum += (x - m) * (x - m)
	}
	return sum / float64(len(xs))
}

// gapStats summarizes gaps. Negative gaps are clamped to zero, values are
// rounded to bucket, and the most frequent bucket wins with ties going to the
// smaller value.
func gapStats(gaps []float64, bucket float64) Stats {
	if len(gaps) == 0 {
		return Stats{}
	}
	samples := make([]float64, len(gaps))
	for i, g := range gaps {
		samples[i] = math.Max(0, g)
	}

	counts := make(map[int64]int, len(samples))
	for _, g := range samples {
		counts[int64(math.Round(g/bucket))]++
	}
	var (
		best      int64
		bestCount int
	)
	for b, c := range counts {
		if c > bestCount || (c == bestCount && b < best) {
			best, bestCount = b, c
		}
	}
	return Stats{
		Samples: samples,
		Average: mean(samples),
		Mode:    float64(best) * bucket,
	}
}
