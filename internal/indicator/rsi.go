package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// RSI represents the Relative Strength Index indicator.
type RSI struct {
	period int
}

// NewRSI creates a new RSI indicator with default configuration.
func NewRSI() Indicator {
	return &RSI{
		period: 14, // Default period
	}
}

// Name returns the name of the indicator.
func (r *RSI) Name() types.IndicatorType {
	return types.IndicatorTypeRSI
}

// Config configures the RSI indicator. Expected parameters: period (int).
func (r *RSI) Config(params ...any) error {
	return intParam(params, 0, "period", &r.period)
}

// Calculate scores each bar from index period onward:
// below 20 or above 80 scores 0.9, below 30 or above 70 scores 0.7.
func (r *RSI) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, false, false, r.Name()); err != nil {
		return nil, err
	}

	values := CalculateRSI(series.Close, r.period)
	results := make([]types.IndicatorResult, 0, len(values))

	for i := r.period; i < len(values); i++ {
		signal, strength := scoreRSI(values[i])
		results = append(results, series.result(i, types.Scalar(values[i]), signal, strength))
	}

	return results, nil
}

// CalculateRSI returns Wilder's RSI aligned with closes; the first period entries are NaN.
// A window without losses reads 100, a window without any movement reads 50.
func CalculateRSI(closes []float64, period int) []float64 {
	out := nanSlice(len(closes))
	if period <= 0 || len(closes) <= period {
		return out
	}

	avgGain, avgLoss := 0.0, 0.0

	for i := 1; i <= period; i++ {
		gain, loss := priceChange(closes[i] - closes[i-1])
		avgGain += gain
		avgLoss += loss
	}

	avgGain /= float64(period)
	avgLoss /= float64(period)
	out[period] = rsiFromAverages(avgGain, avgLoss)

	for i := period + 1; i < len(closes); i++ {
		gain, loss := priceChange(closes[i] - closes[i-1])
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
		out[i] = rsiFromAverages(avgGain, avgLoss)
	}

	return out
}

func priceChange(change float64) (gain, loss float64) {
	if change > 0 {
		return change, 0
	}

	return 0, -change
}

func rsiFromAverages(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		if avgGain == 0 {
			return 50
		}

		return 100
	}

	rs := avgGain / avgLoss

	return 100 - (100 / (1 + rs))
}

func scoreRSI(value float64) (types.Direction, float64) {
	switch {
	case value < 20:
		return types.DirectionBuy, 0.9
	case value < 30:
		return types.DirectionBuy, 0.7
	case value > 80:
		return types.DirectionSell, 0.9
	case value > 70:
		return types.DirectionSell, 0.7
	default:
		return types.DirectionNeutral, 0.2
	}
}
