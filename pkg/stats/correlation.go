package stats

import "math"

// Pearson returns the Pearson correlation coefficient of xs and ys.
//
// ok is false when the slices differ in length, hold fewer than two points, or either
// series has zero variance; the coefficient is meaningless in those cases.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	n := len(xs)
	if n < 2 || n != len(ys) {
		return 0, false
	}

	mx, my := Mean(xs), Mean(ys)

	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}

	r = sxy / math.Sqrt(sxx*syy)
	// guard against float drift just outside [-1, 1]
	return math.Max(-1, math.Min(1, r)), true
}

// Interpret describes the strength and direction of a correlation coefficient.
func Interpret(r float64) string {
	abs := math.Abs(r)

	var strength string
	switch {
	case abs < 0.1:
		return "no correlation"
	case abs < 0.3:
		strength = "weak"
	case abs < 0.5:
		strength = "moderate"
	case abs < 0.7:
		strength = "fairly strong"
	default:
		strength = "strong"
	}

	if r < 0 {
		return strength + " negative correlation"
	}
	return strength + " positive correlation"
}
