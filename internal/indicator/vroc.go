package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// VROC implements the Volume Rate of Change.
type VROC struct {
	period int
	// threshold is the VROC, in percent, above which volume is expanding
	threshold float64
}

// NewVROC creates a new VROC indicator with default configuration.
func NewVROC() Indicator {
	return &VROC{
		period:    14,
		threshold: 25,
	}
}

// Name returns the name of the indicator.
func (v *VROC) Name() types.IndicatorType {
	return types.IndicatorTypeVROC
}

// Config configures the indicator. Expected parameters: period (int), threshold (float64).
func (v *VROC) Config(params ...any) error {
	if err := intParam(params, 0, "period", &v.period); err != nil {
		return err
	}

	return floatParam(params, 1, "threshold", &v.threshold)
}

// Calculate reports expanding volume in the direction price moved over the same
// period; strength reaches 1 at a 100% volume increase.
func (v *VROC) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, true, v.Name()); err != nil {
		return nil, err
	}

	values := RateOfChange(series.Volume, v.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-v.period, 0))

	for i := v.period; i < series.Len(); i++ {
		signal, strength := types.DirectionNeutral, 0.2

		if values[i] > v.threshold {
			strength = values[i] / 100

			switch {
			case series.Close[i] > series.Close[i-v.period]:
				signal = types.DirectionBuy
			case series.Close[i] < series.Close[i-v.period]:
				signal = types.DirectionSell
			}
		}

		results = append(results, series.result(i, types.Scalar(values[i]), signal, strength))
	}

	return results, nil
}
