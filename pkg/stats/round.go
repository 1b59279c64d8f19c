// Package stats provides the numeric building blocks used by the statistics layer:
// half-up rounding, Gini concentration, Pearson correlation, nearest-rank percentiles
// and calendar-aligned bucketing.
package stats

import (
	"math"
	"math/big"
	"strconv"
)

var (
	hundred = big.NewRat(100, 1)
	half    = big.NewRat(1, 2)
)

// Round2 rounds x half-up (away from zero) to two decimal places.
//
// Rounding is done on the shortest decimal representation of x, so 1.005 becomes
// 1.01 instead of the 1.0 that naive float arithmetic produces.
func Round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}

	r, ok := new(big.Rat).SetString(strconv.FormatFloat(math.Abs(x), 'g', -1, 64))
	if !ok {
		return x
	}

	r.Mul(r, hundred)
	r.Add(r, half)

	// floor(r) for a non-negative rational is the integer quotient num / denom
	q := new(big.Int).Quo(r.Num(), r.Denom())
	out, _ := new(big.Rat).SetFrac(q, big.NewInt(100)).Float64()

	if x < 0 {
		return -out
	}
	return out
}

// Percent returns part/total*100 rounded to two decimals, or 0 when total is 0.
func Percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round2(float64(part) * 100 / float64(total))
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
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
