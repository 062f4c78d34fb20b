// Package indicator provides trailing-window technical indicators over price
// series. Each function returns a slice aligned with its input; positions
// inside an indicator's warm-up window hold NaN, so callers can test
// definedness with math.IsNaN before acting on a value.
package indicator

import "math"

// SMA computes the simple moving average of values over the given period.
// The result is defined from index period-1 onward; a window containing an
// undefined value is itself undefined, so an SMA over another indicator only
// starts once that indicator's warm-up has passed.
func SMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 {
		return out
	}
	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		defined := true
		for j := i - period + 1; j <= i; j++ {
			if math.IsNaN(values[j]) {
				defined = false
				break
			}
			sum += values[j]
		}
		if defined {
			out[i] = sum / float64(period)
		}
	}
	return out
}

// EMA computes the exponential moving average of values over the given
// period, seeded with the simple average of the first period defined values
// and smoothed with alpha = 2/(period+1). A leading run of NaN shifts the
// seed window forward, which lets EMA stack on top of another indicator.
func EMA(values []float64, period int) []float64 {
	out := nans(len(values))
	if period <= 0 {
		return out
	}
	start := 0
	for start < len(values) && math.IsNaN(values[start]) {
		start++
	}
	if len(values)-start < period {
		return out
	}
	sum := 0.0
	for i := start; i < start+period; i++ {
		sum += values[i]
	}
	seed := start + period - 1
	out[seed] = sum / float64(period)
	alpha := 2.0 / float64(period+1)
	for i := seed + 1; i < len(values); i++ {
		out[i] = alpha*values[i] + (1-alpha)*out[i-1]
	}
	return out
}

// DEMA computes the double exponential moving average,
// 2*EMA(v) - EMA(EMA(v)), which tracks price with less lag than a single
// EMA of the same period. Defined from index 2*(period-1) onward.
func DEMA(values []float64, period int) []float64 {
	ema1 := EMA(values, period)
	ema2 := EMA(ema1, period)
	out := nans(len(values))
	for i := range out {
		if math.IsNaN(ema1[i]) || math.IsNaN(ema2[i]) {
			continue
		}
		out[i] = 2*ema1[i] - ema2[i]
	}
	return out
}

// ATR computes the average true range using Wilder smoothing: the true range
// needs the previous close, so it exists from index 1; the first ATR value is
// the simple average of the first period true ranges, placed at index period,
// and subsequent values follow (prev*(period-1) + tr) / period.
func ATR(high, low, close []float64, period int) []float64 {
	n := len(close)
	out := nans(n)
	if period <= 0 || n < period+1 {
		return out
	}
	tr := make([]float64, n)
	for i := 1; i < n; i++ {
		hl := high[i] - low[i]
		hc := math.Abs(high[i] - close[i-1])
		lc := math.Abs(low[i] - close[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	sum := 0.0
	for i := 1; i <= period; i++ {
		sum += tr[i]
	}
	out[period] = sum / float64(period)
	for i := period + 1; i < n; i++ {
		out[i] = (out[i-1]*float64(period-1) + tr[i]) / float64(period)
	}
	return out
}

// Crossover reports per-bar crossing of fast over slow: +1 on the bar where
// fast moves from at-or-below to above slow, -1 on the mirrored downward
// cross, 0 otherwise. Bars where either series is undefined at t or t-1
// report 0.
func Crossover(fast, slow []float64) []int {
	n := min(len(fast), len(slow))
	out := make([]int, n)
	for i := 1; i < n; i++ {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) ||
			math.IsNaN(fast[i-1]) || math.IsNaN(slow[i-1]) {
			continue
		}
		switch {
		case fast[i-1] <= slow[i-1] && fast[i] > slow[i]:
			out[i] = 1
		case fast[i-1] >= slow[i-1] && fast[i] < slow[i]:
			out[i] = -1
		}
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}
