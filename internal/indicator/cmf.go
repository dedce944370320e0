package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// CMF implements the Chaikin Money Flow.
type CMF struct {
	period int
}

// NewCMF creates a new CMF indicator with default configuration.
func NewCMF() Indicator {
	return &CMF{period: 20}
}

// Name returns the name of the indicator.
func (c *CMF) Name() types.IndicatorType {
	return types.IndicatorTypeCMF
}

// Config configures the indicator. Expected parameters: period (int).
func (c *CMF) Config(params ...any) error {
	return intParam(params, 0, "period", &c.period)
}

// Calculate treats CMF above 0.1 as buying pressure and below -0.1 as selling
// pressure, strength reaching 1 at |CMF| = 0.25.
func (c *CMF) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, true, c.Name()); err != nil {
		return nil, err
	}

	results := make([]types.IndicatorResult, 0, max(series.Len()-c.period+1, 0))

	for i := c.period - 1; i < series.Len(); i++ {
		flow, volume := 0.0, 0.0
		for j := i - c.period + 1; j <= i; j++ {
			flow += closeLocation(series, j) * series.Volume[j]
			volume += series.Volume[j]
		}

		value := 0.0
		if volume != 0 {
			value = flow / volume
		}

		signal := types.DirectionNeutral

		switch {
		case value > 0.1:
			signal = types.DirectionBuy
		case value < -0.1:
			signal = types.DirectionSell
		}

		results = append(results, series.result(i, types.Scalar(value), signal, math.Abs(value)/0.25))
	}

	return results, nil
}
