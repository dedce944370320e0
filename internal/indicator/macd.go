package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// MACD implements the Moving Average Convergence Divergence indicator.
type MACD struct {
	fastPeriod   int
	slowPeriod   int
	signalPeriod int
}

// NewMACD creates a new MACD indicator with default configuration.
func NewMACD() Indicator {
	return &MACD{
		fastPeriod:   12,
		slowPeriod:   26,
		signalPeriod: 9,
	}
}

// Name returns the name of the indicator.
func (m *MACD) Name() types.IndicatorType {
	return types.IndicatorTypeMACD
}

// Config configures the MACD indicator.
// Expected parameters: fastPeriod (int), slowPeriod (int), signalPeriod (int).
func (m *MACD) Config(params ...any) error {
	if err := intParam(params, 0, "fastPeriod", &m.fastPeriod); err != nil {
		return err
	}

	if err := intParam(params, 1, "slowPeriod", &m.slowPeriod); err != nil {
		return err
	}

	return intParam(params, 2, "signalPeriod", &m.signalPeriod)
}

// Calculate returns named values macd, signal and histogram. A buy is a cross of
// the MACD line above the signal line with a positive histogram, a sell the
// mirror image. Strength is |histogram|/|macd| capped at 1.
func (m *MACD) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, false, m.Name()); err != nil {
		return nil, err
	}

	fast := EMA(series.Close, m.fastPeriod)
	slow := EMA(series.Close, m.slowPeriod)

	line := nanSlice(series.Len())
	for i := range line {
		line[i] = fast[i] - slow[i]
	}

	signalLine := EMA(line, m.signalPeriod)

	start := max(m.fastPeriod, m.slowPeriod) + m.signalPeriod - 2
	results := make([]types.IndicatorResult, 0, max(series.Len()-start, 0))

	for i := start; i < series.Len(); i++ {
		histogram := line[i] - signalLine[i]

		strength := 1.0
		if line[i] != 0 {
			strength = math.Abs(histogram) / math.Abs(line[i])
		}

		signal := types.DirectionNeutral

		if i > start {
			crossedUp := line[i-1] <= signalLine[i-1] && line[i] > signalLine[i]
			crossedDown := line[i-1] >= signalLine[i-1] && line[i] < signalLine[i]

			switch {
			case crossedUp && histogram > 0:
				signal = types.DirectionBuy
			case crossedDown && histogram < 0:
				signal = types.DirectionSell
			}
		}

		if signal == types.DirectionNeutral {
			strength *= 0.5
		}

		value := types.Named(map[string]float64{
			"macd":      line[i],
			"signal":    signalLine[i],
			"histogram": histogram,
		})
		results = append(results, series.result(i, value, signal, strength))
	}

	return results, nil
}
