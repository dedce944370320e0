package indicator

import "math"

// StdDev returns the rolling population standard deviation over period values.
func StdDev(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	mean := SMA(values, period)

	for i := period - 1; i < len(values); i++ {
		sum := 0.0
		for _, v := range values[i-period+1 : i+1] {
			d := v - mean[i]
			sum += d * d
		}

		out[i] = math.Sqrt(sum / float64(period))
	}

	return out
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|). The first
// bar has no previous close and uses high-low.
func TrueRange(high, low, closes []float64) []float64 {
	out := make([]float64, len(closes))

	for i := range closes {
		out[i] = high[i] - low[i]
		if i == 0 {
			continue
		}

		out[i] = math.Max(out[i], math.Max(math.Abs(high[i]-closes[i-1]), math.Abs(low[i]-closes[i-1])))
	}

	return out
}

// Highest returns the rolling maximum over period values.
func Highest(values []float64, period int) []float64 {
	return rolling(values, period, math.Max)
}

// Lowest returns the rolling minimum over period values.
func Lowest(values []float64, period int) []float64 {
	return rolling(values, period, math.Min)
}

// RateOfChange returns 100*(v[i]-v[i-period])/v[i-period]. A zero base yields 0.
func RateOfChange(values []float64, period int) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	for i := period; i < len(values); i++ {
		base := values[i-period]
		if base == 0 {
			out[i] = 0

			continue
		}

		out[i] = 100 * (values[i] - base) / base
	}

	return out
}

// TypicalPrice returns (high+low+close)/3 per bar.
func TypicalPrice(high, low, closes []float64) []float64 {
	out := make([]float64, len(closes))
	for i := range closes {
		out[i] = (high[i] + low[i] + closes[i]) / 3
	}

	return out
}

// VWAP returns the rolling volume weighted average of the typical price. A window
// without volume falls back to the typical price of the bar.
func VWAP(high, low, closes, volume []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 {
		return out
	}

	tp := TypicalPrice(high, low, closes)

	for i := period - 1; i < len(closes); i++ {
		priceVolume, totalVolume := 0.0, 0.0
		for j := i - period + 1; j <= i; j++ {
			priceVolume += tp[j] * volume[j]
			totalVolume += volume[j]
		}

		if totalVolume == 0 {
			out[i] = tp[i]

			continue
		}

		out[i] = priceVolume / totalVolume
	}

	return out
}

// Returns returns the bar-to-bar simple returns; entry i is closes[i+1]/closes[i]-1.
func Returns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}

	out := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		if closes[i-1] == 0 {
			continue
		}

		out[i-1] = closes[i]/closes[i-1] - 1
	}

	return out
}

// RealizedVolatility returns the population standard deviation of the returns
// between the last window closes. ok is false when fewer than window closes exist.
func RealizedVolatility(closes []float64, window int) (float64, bool) {
	if window < 2 || len(closes) < window {
		return 0, false
	}

	returns := Returns(closes[len(closes)-window:])

	mean := 0.0
	for _, r := range returns {
		mean += r
	}

	mean /= float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += (r - mean) * (r - mean)
	}

	return math.Sqrt(variance / float64(len(returns))), true
}

// bandPosition returns (v-lower)/(upper-lower), or 0.5 when the band has no width.
func bandPosition(v, lower, upper float64) float64 {
	if upper == lower {
		return 0.5
	}

	return (v - lower) / (upper - lower)
}

func rolling(values []float64, period int, pick func(a, b float64) float64) []float64 {
	out := nanSlice(len(values))
	if period <= 0 {
		return out
	}

	for i := period - 1; i < len(values); i++ {
		v := values[i-period+1]
		for _, x := range values[i-period+2 : i+1] {
			v = pick(v, x)
		}

		out[i] = v
	}

	return out
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}

	return math.Max(0, math.Min(1, v))
}
