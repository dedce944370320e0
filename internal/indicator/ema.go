package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// EMATrend compares a fast and a slow exponential moving average.
type EMATrend struct {
	fastPeriod int
	slowPeriod int
}

// NewEMATrend creates a new EMA trend indicator with periods 20 and 50.
func NewEMATrend() Indicator {
	return &EMATrend{
		fastPeriod: 20,
		slowPeriod: 50,
	}
}

// Name returns the name of the indicator.
func (e *EMATrend) Name() types.IndicatorType {
	return types.IndicatorTypeEMA
}

// Config configures the indicator. Expected parameters: fastPeriod (int), slowPeriod (int).
func (e *EMATrend) Config(params ...any) error {
	if err := intParam(params, 0, "fastPeriod", &e.fastPeriod); err != nil {
		return err
	}

	return intParam(params, 1, "slowPeriod", &e.slowPeriod)
}

// Calculate returns named values fast and slow. The direction follows the sign of
// the spread (fast-slow)/slow, strength is min(100*|spread|, 1).
func (e *EMATrend) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, false, e.Name()); err != nil {
		return nil, err
	}

	fast := EMA(series.Close, e.fastPeriod)
	slow := EMA(series.Close, e.slowPeriod)

	start := max(e.fastPeriod, e.slowPeriod) - 1
	results := make([]types.IndicatorResult, 0, max(series.Len()-start, 0))

	for i := start; i < series.Len(); i++ {
		spread := 0.0
		if slow[i] != 0 {
			spread = (fast[i] - slow[i]) / slow[i]
		}

		signal := types.DirectionNeutral

		switch {
		case spread > 0:
			signal = types.DirectionBuy
		case spread < 0:
			signal = types.DirectionSell
		}

		value := types.Named(map[string]float64{"fast": fast[i], "slow": slow[i]})
		results = append(results, series.result(i, value, signal, 100*math.Abs(spread)))
	}

	return results, nil
}
