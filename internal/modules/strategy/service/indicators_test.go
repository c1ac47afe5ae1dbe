package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSMAAt(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5}

	assert.Equal(t, 4.0, SMAAt(values, 3, 4)) // (3+4+5)/3
	assert.Equal(t, 1.5, SMAAt(values, 2, 1))

	assert.True(t, math.IsNaN(SMAAt(values, 3, 1)), "window does not fit")
	assert.True(t, math.IsNaN(SMAAt(values, 0, 4)), "zero period")
	assert.True(t, math.IsNaN(SMAAt(values, 3, 7)), "index out of range")
}

func TestRSIExtremes(t *testing.T) {
	allGains := []float64{1, 2, 3, 4, 5, 6}
	assert.Equal(t, 100.0, RSI(allGains, 3))

	allLosses := []float64{6, 5, 4, 3, 2, 1}
	assert.Equal(t, 0.0, RSI(allLosses, 3))
}

func TestRSIBalancedSeriesIsNeutral(t *testing.T) {
	// Alternating equal gains and losses settle near 50.
	values := []float64{10, 11, 10, 11, 10, 11, 10, 11, 10, 11}
	rsi := RSI(values, 4)
	assert.InDelta(t, 50, rsi, 10)
}

func TestRSIInsufficientData(t *testing.T) {
	assert.True(t, math.IsNaN(RSI([]float64{1, 2, 3}, 3)))
	assert.True(t, math.IsNaN(RSI([]float64{1, 2, 3, 4}, 0)))
}

func TestATR(t *testing.T) {
	closes := []float64{10, 10, 10, 10}
	highs := []float64{11, 11, 11, 11}
	lows := []float64{9, 9, 9, 9}

	// Range is 2 on every candle and closes never gap.
	assert.InDelta(t, 2.0, ATR(highs, lows, closes, 3), 1e-9)

	assert.True(t, math.IsNaN(ATR(highs, lows, closes, 4)), "needs period+1 closes")
	assert.True(t, math.IsNaN(ATR(highs[:2], lows, closes, 2)), "mismatched lengths")
}

func TestATRPicksUpGaps(t *testing.T) {
	// A close-to-close gap larger than the candle range dominates.
	closes := []float64{10, 20}
	highs := []float64{10.5, 20.5}
	lows := []float64{9.5, 19.5}
	assert.InDelta(t, 10.5, ATR(highs, lows, closes, 1), 1e-9)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 2.0, Mean([]float64{1, 2, 3}))
	assert.True(t, math.IsNaN(Mean(nil)))
}
