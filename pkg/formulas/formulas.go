// Package formulas provides technical indicator calculations used by the
// screening pipeline.
package formulas

import (
	"github.com/markcheno/go-talib"
)

// SMA calculates the Simple Moving Average over the trailing window.
//
// Returns the latest value, or nil if there is not enough data.
func SMA(values []float64, length int) *float64 {
	if length <= 0 || len(values) < length {
		return nil
	}

	sma := talib.Sma(values, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

// EWMA calculates a span-based exponentially weighted moving average series,
// seeded at the first sample.
//
// Smoothing factor: alpha = 2 / (span + 1). Seeding at the first sample yields
// usable values from the start of the series, which the screener relies on for
// short histories where a full warm-up lookback is not available.
func EWMA(values []float64, span int) []float64 {
	if span <= 0 || len(values) == 0 {
		return nil
	}

	alpha := 2.0 / (float64(span) + 1.0)
	out := make([]float64, len(values))
	out[0] = values[0]
	for i := 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// MACD calculates the latest MACD line and signal values.
//
// MACD line = EWMA12(closes) - EWMA26(closes); signal = EWMA9(line).
// Returns nil, nil if the series is empty.
func MACD(closes []float64) (line, signal *float64) {
	if len(closes) == 0 {
		return nil, nil
	}

	fast := EWMA(closes, 12)
	slow := EWMA(closes, 26)

	diff := make([]float64, len(closes))
	for i := range closes {
		diff[i] = fast[i] - slow[i]
	}
	sig := EWMA(diff, 9)

	l := diff[len(diff)-1]
	s := sig[len(sig)-1]
	return &l, &s
}

// Return calculates the fractional return over the trailing periods:
// last / last[-periods] - 1. Returns nil if there is not enough data or the
// reference price is zero.
func Return(values []float64, periods int) *float64 {
	if periods <= 0 || len(values) < periods+1 {
		return nil
	}

	ref := values[len(values)-1-periods]
	if ref == 0 {
		return nil
	}

	r := values[len(values)-1]/ref - 1
	return &r
}

// isNaN checks if a float64 is NaN
func isNaN(f float64) bool {
	return f != f
}
