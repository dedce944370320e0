package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ATR represents the Average True Range indicator.
type ATR struct {
	period int
}

// NewATR creates a new ATR indicator with default configuration.
func NewATR() Indicator {
	return &ATR{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (a *ATR) Name() types.IndicatorType {
	return types.IndicatorTypeATR
}

// Config configures the ATR indicator. Expected parameters: period (int).
func (a *ATR) Config(params ...any) error {
	return intParam(params, 0, "period", &a.period)
}

// Calculate returns Wilder-smoothed true range. ATR has no direction; strength is
// the ATR as a fraction of price, reaching 1 at 5%.
func (a *ATR) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, a.Name()); err != nil {
		return nil, err
	}

	values := CalculateATR(series.High, series.Low, series.Close, a.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-a.period+1, 0))

	for i := a.period - 1; i < series.Len(); i++ {
		strength := 0.0
		if series.Close[i] != 0 {
			strength = values[i] / series.Close[i] / 0.05
		}

		results = append(results, series.result(i, types.Scalar(values[i]), types.DirectionNeutral, strength))
	}

	return results, nil
}

// CalculateATR returns Wilder's ATR aligned with the input, NaN before index period-1.
func CalculateATR(high, low, closes []float64, period int) []float64 {
	return wilder(TrueRange(high, low, closes), period)
}
