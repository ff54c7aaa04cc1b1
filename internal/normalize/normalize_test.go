package normalize

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMinMax_LinearScaling(t *testing.T) {
	assert.Equal(t, 0.0, MinMax(10, 10, 20))
	assert.Equal(t, 1.0, MinMax(20, 10, 20))
	assert.InDelta(t, 0.5, MinMax(15, 10, 20), 1e-9)
	assert.InDelta(t, 0.25, MinMax(12.5, 10, 20), 1e-9)
}

func TestMinMax_ClampsOutOfRange(t *testing.T) {
	assert.Equal(t, 0.0, MinMax(-100, 10, 20))
	assert.Equal(t, 1.0, MinMax(1e9, 10, 20))
}

func TestMinMax_DegenerateRangeIsNeutral(t *testing.T) {
	for _, x := range []float64{-5, 0, 7, 1e12} {
		assert.Equal(t, 0.5, MinMax(x, 3, 3))
	}
}

func TestMinMax_SwappedBounds(t *testing.T) {
	// Reversed bounds are tolerated rather than producing negatives.
	assert.InDelta(t, 0.5, MinMax(15, 20, 10), 1e-9)
}

func TestOptimalPoint_PeakAndDecay(t *testing.T) {
	assert.Equal(t, 1.0, OptimalPoint(140, 140, 40))
	assert.InDelta(t, 0.5, OptimalPoint(160, 140, 40), 1e-9)
	assert.InDelta(t, 0.5, OptimalPoint(120, 140, 40), 1e-9)
	assert.Equal(t, 0.0, OptimalPoint(180, 140, 40))
	assert.Equal(t, 0.0, OptimalPoint(300, 140, 40))
}

func TestOptimalPoint_ZeroDeviation(t *testing.T) {
	assert.Equal(t, 1.0, OptimalPoint(5, 5, 0))
	assert.Equal(t, 0.0, OptimalPoint(5.0001, 5, 0))
	assert.Equal(t, 0.0, OptimalPoint(5, 5.0001, -1))
}

func TestClamp01_NeverNaN(t *testing.T) {
	assert.Equal(t, 0.5, Clamp01(math.NaN()))
	assert.Equal(t, 1.0, Clamp01(math.Inf(1)))
	assert.Equal(t, 0.0, Clamp01(math.Inf(-1)))
}

func TestBounds_Property(t *testing.T) {
	// Sweep a coarse grid; every output must stay in [0,1].
	vals := []float64{-1e6, -3.7, 0, 0.001, 1, 42, 1e6}
	for _, v := range vals {
		for _, lo := range vals {
			for _, hi := range vals {
				got := MinMax(v, lo, hi)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 1.0)
			}
		}
		for _, opt := range vals {
			for _, dev := range vals {
				got := OptimalPoint(v, opt, dev)
				assert.GreaterOrEqual(t, got, 0.0)
				assert.LessOrEqual(t, got, 1.0)
			}
		}
	}
}
