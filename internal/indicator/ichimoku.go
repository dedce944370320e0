package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// Ichimoku implements the Ichimoku Kinko Hyo lines. The cloud is evaluated at
// the current bar without the forward displacement.
type Ichimoku struct {
	tenkanPeriod int
	kijunPeriod  int
	senkouPeriod int
}

// NewIchimoku creates a new Ichimoku indicator with periods 9, 26 and 52.
func NewIchimoku() Indicator {
	return &Ichimoku{
		tenkanPeriod: 9,
		kijunPeriod:  26,
		senkouPeriod: 52,
	}
}

// Name returns the name of the indicator.
func (ic *Ichimoku) Name() types.IndicatorType {
	return types.IndicatorTypeIchimoku
}

// Config configures the indicator.
// Expected parameters: tenkanPeriod (int), kijunPeriod (int), senkouPeriod (int).
func (ic *Ichimoku) Config(params ...any) error {
	if err := intParam(params, 0, "tenkanPeriod", &ic.tenkanPeriod); err != nil {
		return err
	}

	if err := intParam(params, 1, "kijunPeriod", &ic.kijunPeriod); err != nil {
		return err
	}

	return intParam(params, 2, "senkouPeriod", &ic.senkouPeriod)
}

// Calculate returns named values tenkan, kijun, senkou_a and senkou_b. Price above
// the cloud is bullish, 0.8 when tenkan is also above kijun; below is the mirror.
func (ic *Ichimoku) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, ic.Name()); err != nil {
		return nil, err
	}

	tenkan := midpoint(series, ic.tenkanPeriod)
	kijun := midpoint(series, ic.kijunPeriod)
	senkouB := midpoint(series, ic.senkouPeriod)

	start := max(ic.tenkanPeriod, ic.kijunPeriod, ic.senkouPeriod) - 1
	results := make([]types.IndicatorResult, 0, max(series.Len()-start, 0))

	for i := start; i < series.Len(); i++ {
		senkouA := (tenkan[i] + kijun[i]) / 2
		top, bottom := math.Max(senkouA, senkouB[i]), math.Min(senkouA, senkouB[i])
		price := series.Close[i]

		signal, strength := types.DirectionNeutral, 0.2

		switch {
		case price > top && tenkan[i] > kijun[i]:
			signal, strength = types.DirectionBuy, 0.8
		case price > top:
			signal, strength = types.DirectionBuy, 0.6
		case price < bottom && tenkan[i] < kijun[i]:
			signal, strength = types.DirectionSell, 0.8
		case price < bottom:
			signal, strength = types.DirectionSell, 0.6
		}

		value := types.Named(map[string]float64{
			"tenkan":   tenkan[i],
			"kijun":    kijun[i],
			"senkou_a": senkouA,
			"senkou_b": senkouB[i],
		})
		results = append(results, series.result(i, value, signal, strength))
	}

	return results, nil
}

func midpoint(series Series, period int) []float64 {
	highest := Highest(series.High, period)
	lowest := Lowest(series.Low, period)

	out := make([]float64, series.Len())
	for i := range out {
		out[i] = (highest[i] + lowest[i]) / 2
	}

	return out
}
