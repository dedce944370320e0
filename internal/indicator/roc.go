package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ROC implements the price Rate of Change in percent.
type ROC struct {
	period int
	// threshold is the minimum absolute ROC, in percent, treated as momentum
	threshold float64
}

// NewROC creates a new ROC indicator with default configuration.
func NewROC() Indicator {
	return &ROC{
		period:    12,
		threshold: 0.5,
	}
}

// Name returns the name of the indicator.
func (r *ROC) Name() types.IndicatorType {
	return types.IndicatorTypeROC
}

// Config configures the indicator. Expected parameters: period (int), threshold (float64).
func (r *ROC) Config(params ...any) error {
	if err := intParam(params, 0, "period", &r.period); err != nil {
		return err
	}

	return floatParam(params, 1, "threshold", &r.threshold)
}

// Calculate follows the momentum direction; strength grows linearly to 1 at 10%.
func (r *ROC) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, false, r.Name()); err != nil {
		return nil, err
	}

	values := RateOfChange(series.Close, r.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-r.period, 0))

	for i := r.period; i < series.Len(); i++ {
		signal := types.DirectionNeutral

		switch {
		case values[i] >= r.threshold:
			signal = types.DirectionBuy
		case values[i] <= -r.threshold:
			signal = types.DirectionSell
		}

		results = append(results, series.result(i, types.Scalar(values[i]), signal, math.Abs(values[i])/10))
	}

	return results, nil
}
