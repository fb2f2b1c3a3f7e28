package main

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cutting_stock_cg/src/cutstock"
)

func TestGenerateInstance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	inst, err := GenerateInstance(rng, 20, 250, 0.1, 0.6, 30)
	require.NoError(t, err)
	require.Equal(t, 20, inst.NumTypes())
	for _, d := range inst.Demands {
		assert.GreaterOrEqual(t, d.Size, 25.0)
		assert.LessOrEqual(t, d.Size, 150.0)
		assert.Equal(t, d.Size, float64(int(d.Size)))
		assert.GreaterOrEqual(t, d.Quantity, 1.0)
		assert.LessOrEqual(t, d.Quantity, 30.0)
	}

	var buf bytes.Buffer
	require.NoError(t, cutstock.WriteInstance(&buf, inst))
	back, err := cutstock.ReadInstance(&buf)
	require.NoError(t, err)
	assert.Equal(t, inst, back)
}

func TestGenerateInstanceIsSeeded(t *testing.T) {
	a, err := GenerateInstance(rand.New(rand.NewSource(7)), 5, 100, 0.2, 0.4, 10)
	require.NoError(t, err)
	b, err := GenerateInstance(rand.New(rand.NewSource(7)), 5, 100, 0.2, 0.4, 10)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestGenerateInstanceFullBoard(t *testing.T) {
	inst, err := GenerateInstance(rand.New(rand.NewSource(1)), 3, 10, 1, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []float64{10, 10, 10}, inst.Sizes())
}
