package cutstock

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSeedPattern(t *testing.T) {
	inst := classicInstance(t)
	want := []Pattern{{2, 0, 0}, {0, 2, 0}, {0, 0, 3}}
	for i := range inst.Demands {
		assert.Equal(t, want[i], SeedPattern(inst, i))
	}
}

func TestSeedPatternExactDivision(t *testing.T) {
	inst, err := NewInstance(1, []float64{0.1, 1}, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, Pattern{10, 0}, SeedPattern(inst, 0))
	assert.Equal(t, Pattern{0, 1}, SeedPattern(inst, 1))
}

func TestRoundPattern(t *testing.T) {
	p, err := RoundPattern([]float64{0.9999999, 2.0000001, -1e-9}, 1e-6)
	require.NoError(t, err)
	assert.Equal(t, Pattern{1, 2, 0}, p)

	_, err = RoundPattern([]float64{0.5}, 1e-6)
	assert.ErrorIs(t, err, ErrNonIntegralPattern)

	_, err = RoundPattern([]float64{-1}, 1e-6)
	assert.ErrorIs(t, err, ErrNonIntegralPattern)
}

func TestPatternMeasures(t *testing.T) {
	inst := classicInstance(t)
	p := Pattern{0, 1, 2}
	assert.InDelta(t, 98.0, p.Length(inst), 1e-9)
	assert.InDelta(t, 2.0, p.Waste(inst), 1e-9)
	assert.Equal(t, 3, p.Pieces())
	assert.True(t, p.Fits(inst))
	assert.False(t, Pattern{1, 2, 0}.Fits(inst))
	assert.Equal(t, "0,1,2", p.Key())
	assert.Equal(t, "[0 1 2]", p.String())
}

func TestPatternPool(t *testing.T) {
	pool := NewPatternPool()
	p := Pattern{1, 0, 1}
	assert.Equal(t, 0, pool.Add(p))
	assert.Equal(t, 1, pool.Add(Pattern{0, 1, 2}))

	// the pool keeps its own copy
	p[0] = 7
	assert.Equal(t, Pattern{1, 0, 1}, pool.At(0))

	assert.True(t, pool.Contains(Pattern{0, 1, 2}))
	assert.False(t, pool.Contains(Pattern{2, 0, 0}))

	assert.Equal(t, 2, pool.Add(Pattern{0, 1, 2}))
	assert.Equal(t, 3, pool.Len())
	assert.Equal(t, 2, pool.Distinct())

	out := pool.Patterns()
	out[0][0] = 9
	assert.Equal(t, Pattern{1, 0, 1}, pool.At(0))

	want := mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, 1, 1,
		1, 2, 2,
	})
	assert.True(t, mat.Equal(want, pool.Matrix(3)))
}

func TestResultProduction(t *testing.T) {
	inst := classicInstance(t)
	res := &Result{
		Patterns: []Pattern{{2, 0, 0}, {0, 2, 0}, {0, 1, 2}},
		Usage:    []int{49, 206, 198},
	}
	if diff := cmp.Diff([]int{98, 610, 396}, res.Production(3)); diff != "" {
		t.Errorf("production mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, res.CoversDemand(inst))
	assert.Equal(t, 453, res.BoardsUsed())

	res.Usage[1] = 205
	assert.False(t, res.CoversDemand(inst))
}
