package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

const defaultDivergenceWindow = 10

// scoreCumulative compares the trend of a running volume total with the price
// trend over window bars. A new high (low) of the total over the window, or a
// net rise (fall) when neither, sets the volume trend. When price agrees the
// result is a confirmation at 0.6, otherwise a divergence at 0.8; either way the
// signal follows the volume trend.
func scoreCumulative(series Series, values []float64, window int) []types.IndicatorResult {
	results := make([]types.IndicatorResult, 0, max(series.Len()-window+1, 0))

	for i := window - 1; i < series.Len(); i++ {
		first := i - window + 1
		previousHigh, previousLow := values[first], values[first]

		for _, v := range values[first:i] {
			previousHigh = max(previousHigh, v)
			previousLow = min(previousLow, v)
		}

		volumeTrend := 0

		switch {
		case window > 1 && values[i] > previousHigh:
			volumeTrend = 1
		case window > 1 && values[i] < previousLow:
			volumeTrend = -1
		case values[i] > values[first]:
			volumeTrend = 1
		case values[i] < values[first]:
			volumeTrend = -1
		}

		priceTrend := 0

		switch {
		case series.Close[i] > series.Close[first]:
			priceTrend = 1
		case series.Close[i] < series.Close[first]:
			priceTrend = -1
		}

		signal, strength := types.DirectionNeutral, 0.2

		if volumeTrend != 0 {
			signal = types.DirectionBuy
			if volumeTrend < 0 {
				signal = types.DirectionSell
			}

			strength = 0.6
			if priceTrend != 0 && priceTrend != volumeTrend {
				strength = 0.8
			}
		}

		results = append(results, series.result(i, types.Scalar(values[i]), signal, strength))
	}

	return results
}

// OBV implements On-Balance Volume.
type OBV struct {
	window int
}

// NewOBV creates a new OBV indicator comparing trends over 10 bars.
func NewOBV() Indicator {
	return &OBV{window: defaultDivergenceWindow}
}

// Name returns the name of the indicator.
func (o *OBV) Name() types.IndicatorType {
	return types.IndicatorTypeOBV
}

// Config configures the indicator. Expected parameters: window (int).
func (o *OBV) Config(params ...any) error {
	return intParam(params, 0, "window", &o.window)
}

// Calculate adds volume on up closes and subtracts it on down closes.
func (o *OBV) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, true, o.Name()); err != nil {
		return nil, err
	}

	values := make([]float64, series.Len())
	for i := 1; i < series.Len(); i++ {
		values[i] = values[i-1]

		switch {
		case series.Close[i] > series.Close[i-1]:
			values[i] += series.Volume[i]
		case series.Close[i] < series.Close[i-1]:
			values[i] -= series.Volume[i]
		}
	}

	return scoreCumulative(series, values, o.window), nil
}

// ADLine implements the Accumulation/Distribution line.
type ADLine struct {
	window int
}

// NewADLine creates a new A/D line comparing trends over 10 bars.
func NewADLine() Indicator {
	return &ADLine{window: defaultDivergenceWindow}
}

// Name returns the name of the indicator.
func (a *ADLine) Name() types.IndicatorType {
	return types.IndicatorTypeADLine
}

// Config configures the indicator. Expected parameters: window (int).
func (a *ADLine) Config(params ...any) error {
	return intParam(params, 0, "window", &a.window)
}

// Calculate accumulates the close location value times volume.
func (a *ADLine) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, true, a.Name()); err != nil {
		return nil, err
	}

	values := make([]float64, series.Len())
	total := 0.0

	for i := range values {
		total += closeLocation(series, i) * series.Volume[i]
		values[i] = total
	}

	return scoreCumulative(series, values, a.window), nil
}

// PVT implements the Price Volume Trend.
type PVT struct {
	window int
}

// NewPVT creates a new PVT indicator comparing trends over 10 bars.
func NewPVT() Indicator {
	return &PVT{window: defaultDivergenceWindow}
}

// Name returns the name of the indicator.
func (p *PVT) Name() types.IndicatorType {
	return types.IndicatorTypePVT
}

// Config configures the indicator. Expected parameters: window (int).
func (p *PVT) Config(params ...any) error {
	return intParam(params, 0, "window", &p.window)
}

// Calculate accumulates volume scaled by the relative close change.
func (p *PVT) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, true, p.Name()); err != nil {
		return nil, err
	}

	values := make([]float64, series.Len())
	for i := 1; i < series.Len(); i++ {
		values[i] = values[i-1]
		if series.Close[i-1] != 0 {
			values[i] += series.Volume[i] * (series.Close[i] - series.Close[i-1]) / series.Close[i-1]
		}
	}

	return scoreCumulative(series, values, p.window), nil
}

// closeLocation is ((close-low)-(high-close))/(high-low), 0 for a bar without range.
func closeLocation(series Series, i int) float64 {
	spread := series.High[i] - series.Low[i]
	if spread == 0 {
		return 0
	}

	return ((series.Close[i] - series.Low[i]) - (series.High[i] - series.Close[i])) / spread
}
