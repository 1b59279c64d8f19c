package stats

import "sort"

// Gini returns the Gini coefficient of values.
//
// Values are sorted ascending and the discrete formula
// G = (2·Σ(i·x_i) − (n+1)·Σx_i) / (n·Σx_i) is applied with 1-based i.
// Returns 0 for fewer than two values or when the values sum to zero.
func Gini(values []float64) float64 {
	n := len(values)
	if n <= 1 {
		return 0
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	var sum, weighted float64
	for i, v := range sorted {
		sum += v
		weighted += float64(i+1) * v
	}
	if sum == 0 {
		return 0
	}

	nf := float64(n)
	return (2*weighted - (nf+1)*sum) / (nf * sum)
}
