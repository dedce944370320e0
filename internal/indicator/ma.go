package indicator

import "math"

// SMA returns the simple moving average of values. Entry i holds the mean of
// values[i-period+1..i]; entries without a full finite window are NaN.
func SMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			sum += v
		}

		out[i] = sum / float64(period)
	}

	return out
}

// EMA returns the exponential moving average of values with smoothing 2/(period+1).
// The average is seeded with the SMA of the first period finite values, so
// leading NaN entries (another indicator's warm-up) are skipped.
func EMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	start := firstFinite(values)
	if start < 0 || start+period > len(values) {
		return out
	}

	seed := 0.0
	for _, v := range values[start : start+period] {
		seed += v
	}

	k := 2.0 / float64(period+1)
	prev := seed / float64(period)
	out[start+period-1] = prev

	for i := start + period; i < len(values); i++ {
		prev = values[i]*k + prev*(1-k)
		out[i] = prev
	}

	return out
}

// WMA returns the linearly weighted moving average, the newest bar weighted period.
func WMA(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	denominator := float64(period*(period+1)) / 2

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for j := 0; j < period; j++ {
			sum += values[i-period+1+j] * float64(j+1)
		}

		out[i] = sum / denominator
	}

	return out
}

// wilder applies Wilder's smoothing, seeded with the mean of the first period
// finite values.
func wilder(values []float64, period int) []float64 {
	out := nanSlice(len(values))

	start := firstFinite(values)
	if period <= 0 || start < 0 || start+period > len(values) {
		return out
	}

	prev := 0.0
	for _, v := range values[start : start+period] {
		prev += v
	}

	prev /= float64(period)
	out[start+period-1] = prev

	for i := start + period; i < len(values); i++ {
		prev = (prev*float64(period-1) + values[i]) / float64(period)
		out[i] = prev
	}

	return out
}

func nanSlice(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}

	return out
}

func firstFinite(values []float64) int {
	for i, v := range values {
		if isFinite(v) {
			return i
		}
	}

	return -1
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
