package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Stochastic implements the Stochastic Oscillator (%K and its %D smoothing).
type Stochastic struct {
	kPeriod int
	dPeriod int
}

// NewStochastic creates a new Stochastic Oscillator with default configuration.
func NewStochastic() Indicator {
	return &Stochastic{
		kPeriod: 14,
		dPeriod: 3,
	}
}

// Name returns the name of the indicator.
func (s *Stochastic) Name() types.IndicatorType {
	return types.IndicatorTypeStochastic
}

// Config configures the oscillator. Expected parameters: kPeriod (int), dPeriod (int).
func (s *Stochastic) Config(params ...any) error {
	if err := intParam(params, 0, "kPeriod", &s.kPeriod); err != nil {
		return err
	}

	return intParam(params, 1, "dPeriod", &s.dPeriod)
}

// Calculate returns named values k and d. The verdict follows %K: below 20 is
// oversold, above 80 overbought, and a %K/%D cross in that zone adds strength.
func (s *Stochastic) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, s.Name()); err != nil {
		return nil, err
	}

	highest := Highest(series.High, s.kPeriod)
	lowest := Lowest(series.Low, s.kPeriod)

	k := nanSlice(series.Len())
	for i := s.kPeriod - 1; i < series.Len(); i++ {
		k[i] = 100 * bandPosition(series.Close[i], lowest[i], highest[i])
	}

	d := SMA(k, s.dPeriod)

	start := s.kPeriod + s.dPeriod - 2
	results := make([]types.IndicatorResult, 0, max(series.Len()-start, 0))

	for i := start; i < series.Len(); i++ {
		signal, strength := ScoreStochastic(k[i])

		crossedUp := i > start && k[i-1] <= d[i-1] && k[i] > d[i]
		crossedDown := i > start && k[i-1] >= d[i-1] && k[i] < d[i]

		if (signal == types.DirectionBuy && crossedUp) || (signal == types.DirectionSell && crossedDown) {
			strength += 0.2
		}

		value := types.Named(map[string]float64{"k": k[i], "d": d[i]})
		results = append(results, series.result(i, value, signal, strength))
	}

	return results, nil
}

// ScoreStochastic scores one stochastic line (either %K or %D).
func ScoreStochastic(value float64) (types.Direction, float64) {
	switch {
	case value < 20:
		return types.DirectionBuy, 0.5 + (20-value)/40
	case value > 80:
		return types.DirectionSell, 0.5 + (value-80)/40
	default:
		return types.DirectionNeutral, 0.2
	}
}
