package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

const (
	// BandSqueezeWidth is the relative band width below which the bands are squeezed.
	BandSqueezeWidth = 0.1
	// BandExpansionWidth is the relative band width above which the bands are expanding.
	BandExpansionWidth = 0.2
)

// BollingerBands implements the Indicator interface for Bollinger Bands.
type BollingerBands struct {
	period int     // Number of periods for moving average
	stdDev float64 // Number of standard deviations
}

// NewBollingerBands creates a new Bollinger Bands indicator with default configuration.
func NewBollingerBands() Indicator {
	return &BollingerBands{
		period: 20,  // Default period
		stdDev: 2.0, // Default standard deviation
	}
}

// Name returns the name of the indicator.
func (bb *BollingerBands) Name() types.IndicatorType {
	return types.IndicatorTypeBollingerBands
}

// Config configures the Bollinger Bands indicator. Expected parameters: period (int), stdDev (float64).
func (bb *BollingerBands) Config(params ...any) error {
	if err := intParam(params, 0, "period", &bb.period); err != nil {
		return err
	}

	return floatParam(params, 1, "stdDev", &bb.stdDev)
}

// Calculate returns named values upper, middle, lower, position, width, squeeze
// and expansion. position is (close-lower)/(upper-lower), 0.5 for a zero-width
// band; width is (upper-lower)/middle. squeeze is 1 when width is below
// BandSqueezeWidth and expansion is 1 when it is above BandExpansionWidth.
// Below 0.1 is a buy and above 0.9 a sell, strength proportional to the
// distance past the threshold.
func (bb *BollingerBands) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, false, bb.Name()); err != nil {
		return nil, err
	}

	middle := SMA(series.Close, bb.period)
	deviation := StdDev(series.Close, bb.period)
	results := make([]types.IndicatorResult, 0, max(series.Len()-bb.period+1, 0))

	for i := bb.period - 1; i < series.Len(); i++ {
		upper := middle[i] + bb.stdDev*deviation[i]
		lower := middle[i] - bb.stdDev*deviation[i]
		position := bandPosition(series.Close[i], lower, upper)

		width := 0.0
		if middle[i] != 0 {
			width = (upper - lower) / middle[i]
		}

		signal, strength := types.DirectionNeutral, 0.2

		switch {
		case position < 0.1:
			signal, strength = types.DirectionBuy, (0.1-position)*10
		case position > 0.9:
			signal, strength = types.DirectionSell, (position-0.9)*10
		}

		value := types.Named(map[string]float64{
			"upper":     upper,
			"middle":    middle[i],
			"lower":     lower,
			"position":  position,
			"width":     width,
			"squeeze":   flag(width < BandSqueezeWidth),
			"expansion": flag(width > BandExpansionWidth),
		})
		results = append(results, series.result(i, value, signal, strength))
	}

	return results, nil
}

// BandRegime classifies a relative band width.
func BandRegime(width float64) string {
	switch {
	case width < BandSqueezeWidth:
		return "squeeze"
	case width > BandExpansionWidth:
		return "expansion"
	default:
		return "normal"
	}
}

func flag(b bool) float64 {
	if b {
		return 1
	}

	return 0
}
