package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	sma := SMA(values, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	sma = SMA(values, 2)
	require.NotNil(t, sma)
	assert.InDelta(t, 4.5, *sma, 1e-9)
}

func TestSMA_InsufficientData(t *testing.T) {
	assert.Nil(t, SMA([]float64{1, 2, 3}, 5))
	assert.Nil(t, SMA(nil, 5))
	assert.Nil(t, SMA([]float64{1, 2, 3}, 0))
}

func TestEWMA_SeededAtFirstSample(t *testing.T) {
	values := []float64{10, 10, 10, 10}

	out := EWMA(values, 12)
	require.Len(t, out, 4)
	for _, v := range out {
		assert.InDelta(t, 10.0, v, 1e-9)
	}
}

func TestEWMA_Recursion(t *testing.T) {
	// span=3 -> alpha=0.5
	out := EWMA([]float64{2, 4, 8}, 3)
	require.Len(t, out, 3)
	assert.InDelta(t, 2.0, out[0], 1e-9)
	assert.InDelta(t, 3.0, out[1], 1e-9)
	assert.InDelta(t, 5.5, out[2], 1e-9)
}

func TestMACD_Uptrend(t *testing.T) {
	// A steady uptrend keeps the fast average above the slow one.
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 10 + float64(i)*0.5
	}

	line, signal := MACD(closes)
	require.NotNil(t, line)
	require.NotNil(t, signal)
	assert.Greater(t, *line, 0.0)
	assert.Greater(t, *line, *signal)
}

func TestMACD_Empty(t *testing.T) {
	line, signal := MACD(nil)
	assert.Nil(t, line)
	assert.Nil(t, signal)
}

func TestReturn(t *testing.T) {
	values := make([]float64, 25)
	for i := range values {
		values[i] = 100
	}
	values[len(values)-1] = 118

	r := Return(values, 20)
	require.NotNil(t, r)
	assert.InDelta(t, 0.18, *r, 1e-9)
}

func TestReturn_InsufficientData(t *testing.T) {
	assert.Nil(t, Return([]float64{1, 2, 3}, 20))
	assert.Nil(t, Return([]float64{0, 0, 0}, 2))
}
