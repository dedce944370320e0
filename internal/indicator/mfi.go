package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
)

// MFI implements the Money Flow Index, a volume weighted RSI.
type MFI struct {
	period int
}

// NewMFI creates a new MFI indicator with default configuration.
func NewMFI() Indicator {
	return &MFI{period: 14}
}

// Name returns the name of the indicator.
func (m *MFI) Name() types.IndicatorType {
	return types.IndicatorTypeMFI
}

// Config configures the indicator. Expected parameters: period (int).
func (m *MFI) Config(params ...any) error {
	return intParam(params, 0, "period", &m.period)
}

// Calculate marks MFI below 20 as oversold and above 80 as overbought.
func (m *MFI) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, true, m.Name()); err != nil {
		return nil, err
	}

	tp := TypicalPrice(series.High, series.Low, series.Close)
	results := make([]types.IndicatorResult, 0, max(series.Len()-m.period, 0))

	for i := m.period; i < series.Len(); i++ {
		positive, negative := 0.0, 0.0

		for j := i - m.period + 1; j <= i; j++ {
			flow := tp[j] * series.Volume[j]

			switch {
			case tp[j] > tp[j-1]:
				positive += flow
			case tp[j] < tp[j-1]:
				negative += flow
			}
		}

		value := rsiFromAverages(positive, negative)

		signal, strength := types.DirectionNeutral, 0.2

		switch {
		case value < 20:
			signal, strength = types.DirectionBuy, 0.8
		case value > 80:
			signal, strength = types.DirectionSell, 0.8
		}

		results = append(results, series.result(i, types.Scalar(value), signal, strength))
	}

	return results, nil
}
