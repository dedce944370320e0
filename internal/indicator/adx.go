package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ADX implements the Average Directional Index with its directional indicators.
type ADX struct {
	period int
	// trendThreshold is the ADX level above which a trend is considered strong
	trendThreshold float64
}

// NewADX creates a new ADX indicator with default configuration.
func NewADX() Indicator {
	return &ADX{
		period:         14,
		trendThreshold: 25,
	}
}

// Name returns the name of the indicator.
func (a *ADX) Name() types.IndicatorType {
	return types.IndicatorTypeADX
}

// Config configures the indicator. Expected parameters: period (int), trendThreshold (float64).
func (a *ADX) Config(params ...any) error {
	if err := intParam(params, 0, "period", &a.period); err != nil {
		return err
	}

	return floatParam(params, 1, "trendThreshold", &a.trendThreshold)
}

// Calculate returns named values adx, plus_di and minus_di. Above the trend
// threshold the direction follows the dominant DI; strength is min(ADX/50, 1).
func (a *ADX) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, a.Name()); err != nil {
		return nil, err
	}

	n := series.Len()
	if n < 2 {
		return []types.IndicatorResult{}, nil
	}

	plusDM, minusDM := nanSlice(n), nanSlice(n)
	tr := nanSlice(n)
	trueRange := TrueRange(series.High, series.Low, series.Close)

	for i := 1; i < n; i++ {
		up := series.High[i] - series.High[i-1]
		down := series.Low[i-1] - series.Low[i]

		plusDM[i], minusDM[i] = 0, 0
		if up > down && up > 0 {
			plusDM[i] = up
		}

		if down > up && down > 0 {
			minusDM[i] = down
		}

		tr[i] = trueRange[i]
	}

	smoothedTR := wilder(tr, a.period)
	smoothedPlus := wilder(plusDM, a.period)
	smoothedMinus := wilder(minusDM, a.period)

	plusDI, minusDI, dx := nanSlice(n), nanSlice(n), nanSlice(n)

	for i := a.period; i < n; i++ {
		plusDI[i], minusDI[i] = 0, 0
		if smoothedTR[i] != 0 {
			plusDI[i] = 100 * smoothedPlus[i] / smoothedTR[i]
			minusDI[i] = 100 * smoothedMinus[i] / smoothedTR[i]
		}

		dx[i] = 0
		if sum := plusDI[i] + minusDI[i]; sum != 0 {
			dx[i] = 100 * math.Abs(plusDI[i]-minusDI[i]) / sum
		}
	}

	adx := wilder(dx, a.period)

	start := 2*a.period - 1
	results := make([]types.IndicatorResult, 0, max(n-start, 0))

	for i := start; i < n; i++ {
		signal := types.DirectionNeutral

		if adx[i] > a.trendThreshold {
			switch {
			case plusDI[i] > minusDI[i]:
				signal = types.DirectionBuy
			case minusDI[i] > plusDI[i]:
				signal = types.DirectionSell
			}
		}

		value := types.Named(map[string]float64{
			"adx":      adx[i],
			"plus_di":  plusDI[i],
			"minus_di": minusDI[i],
		})
		results = append(results, series.result(i, value, signal, adx[i]/50))
	}

	return results, nil
}
