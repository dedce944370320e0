package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// CCI implements the Commodity Channel Index.
type CCI struct {
	period int
}

// NewCCI creates a new CCI indicator with default configuration.
func NewCCI() Indicator {
	return &CCI{period: 20}
}

// Name returns the name of the indicator.
func (c *CCI) Name() types.IndicatorType {
	return types.IndicatorTypeCCI
}

// Config configures the indicator. Expected parameters: period (int).
func (c *CCI) Config(params ...any) error {
	return intParam(params, 0, "period", &c.period)
}

// Calculate marks CCI below -100 as oversold and above 100 as overbought,
// strength reaching 1 at |CCI| = 200.
func (c *CCI) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, c.Name()); err != nil {
		return nil, err
	}

	tp := TypicalPrice(series.High, series.Low, series.Close)
	mean := SMA(tp, c.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-c.period+1, 0))

	for i := c.period - 1; i < series.Len(); i++ {
		deviation := 0.0
		for _, v := range tp[i-c.period+1 : i+1] {
			deviation += math.Abs(v - mean[i])
		}

		deviation /= float64(c.period)

		value := 0.0
		if deviation != 0 {
			value = (tp[i] - mean[i]) / (0.015 * deviation)
		}

		signal, strength := types.DirectionNeutral, math.Abs(value)/200

		switch {
		case value < -100:
			signal = types.DirectionBuy
		case value > 100:
			signal = types.DirectionSell
		}

		results = append(results, series.result(i, types.Scalar(value), signal, strength))
	}

	return results, nil
}
