package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// VWAPDeviation measures how far price trades from its rolling VWAP.
type VWAPDeviation struct {
	period    int
	threshold float64
}

// NewVWAPDeviation creates a new VWAP deviation indicator over 20 bars with a 2% threshold.
func NewVWAPDeviation() Indicator {
	return &VWAPDeviation{
		period:    20,
		threshold: 0.02,
	}
}

// Name returns the name of the indicator.
func (v *VWAPDeviation) Name() types.IndicatorType {
	return types.IndicatorTypeVWAP
}

// Config configures the indicator. Expected parameters: period (int), threshold (float64).
func (v *VWAPDeviation) Config(params ...any) error {
	if err := intParam(params, 0, "period", &v.period); err != nil {
		return err
	}

	return floatParam(params, 1, "threshold", &v.threshold)
}

// Calculate returns named values vwap and deviation ((close-vwap)/vwap). Trading
// more than the threshold below VWAP is a buy, above a sell; strength scales
// with the deviation and saturates at 5%.
func (v *VWAPDeviation) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, true, v.Name()); err != nil {
		return nil, err
	}

	vwap := VWAP(series.High, series.Low, series.Close, series.Volume, v.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-v.period+1, 0))

	for i := v.period - 1; i < series.Len(); i++ {
		deviation := 0.0
		if vwap[i] != 0 {
			deviation = (series.Close[i] - vwap[i]) / vwap[i]
		}

		signal := types.DirectionNeutral

		switch {
		case deviation < -v.threshold:
			signal = types.DirectionBuy
		case deviation > v.threshold:
			signal = types.DirectionSell
		}

		strength := math.Min(math.Abs(deviation), 0.05) / 0.05
		value := types.Named(map[string]float64{"vwap": vwap[i], "deviation": deviation})
		results = append(results, series.result(i, value, signal, strength))
	}

	return results, nil
}
