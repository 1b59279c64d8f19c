package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGini(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, 0.0, Gini(nil))
	})

	t.Run("single value", func(t *testing.T) {
		assert.Equal(t, 0.0, Gini([]float64{7}))
	})

	t.Run("all zero", func(t *testing.T) {
		assert.Equal(t, 0.0, Gini([]float64{0, 0, 0}))
	})

	t.Run("all equal non-zero", func(t *testing.T) {
		assert.InDelta(t, 0.0, Gini([]float64{5, 5, 5, 5}), 1e-12)
	})

	t.Run("single non-zero among n", func(t *testing.T) {
		for _, n := range []int{2, 4, 10, 100} {
			values := make([]float64, n)
			values[n/2] = 12
			assert.InDelta(t, float64(n-1)/float64(n), Gini(values), 1e-12, "n=%d", n)
		}
	})

	t.Run("order does not matter", func(t *testing.T) {
		a := Gini([]float64{1, 2, 3, 10})
		b := Gini([]float64{10, 3, 1, 2})
		assert.InDelta(t, a, b, 1e-12)
	})

	t.Run("known value", func(t *testing.T) {
		// sorted 1,2,3,4: (2*30 - 5*10) / (4*10) = 0.25
		assert.InDelta(t, 0.25, Gini([]float64{4, 3, 2, 1}), 1e-12)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		values := []float64{3, 1, 2}
		Gini(values)
		assert.Equal(t, []float64{3, 1, 2}, values)
	})
}
