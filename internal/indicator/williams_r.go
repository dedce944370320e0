package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// WilliamsR implements Williams %R, ranging from -100 (at the low) to 0 (at the high).
type WilliamsR struct {
	period int
}

// NewWilliamsR creates a new Williams %R indicator with default configuration.
func NewWilliamsR() Indicator {
	return &WilliamsR{period: 14}
}

// Name returns the name of the indicator.
func (w *WilliamsR) Name() types.IndicatorType {
	return types.IndicatorTypeWilliamsR
}

// Config configures the indicator. Expected parameters: period (int).
func (w *WilliamsR) Config(params ...any) error {
	return intParam(params, 0, "period", &w.period)
}

// Calculate marks %R below -80 as oversold and above -20 as overbought.
func (w *WilliamsR) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, w.Name()); err != nil {
		return nil, err
	}

	highest := Highest(series.High, w.period)
	lowest := Lowest(series.Low, w.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-w.period+1, 0))

	for i := w.period - 1; i < series.Len(); i++ {
		value := -100 * (1 - bandPosition(series.Close[i], lowest[i], highest[i]))

		signal, strength := types.DirectionNeutral, 0.2

		switch {
		case value < -95:
			signal, strength = types.DirectionBuy, 0.9
		case value < -80:
			signal, strength = types.DirectionBuy, 0.7
		case value > -5:
			signal, strength = types.DirectionSell, 0.9
		case value > -20:
			signal, strength = types.DirectionSell, 0.7
		}

		results = append(results, series.result(i, types.Scalar(value), signal, strength))
	}

	return results, nil
}
