package indicator

import (
	"math"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// ParabolicSAR implements Wilder's Parabolic Stop and Reverse.
type ParabolicSAR struct {
	step    float64
	maxStep float64
}

// NewParabolicSAR creates a new Parabolic SAR with default acceleration 0.02 up to 0.2.
func NewParabolicSAR() Indicator {
	return &ParabolicSAR{
		step:    0.02,
		maxStep: 0.2,
	}
}

// Name returns the name of the indicator.
func (p *ParabolicSAR) Name() types.IndicatorType {
	return types.IndicatorTypeParabolicSAR
}

// Config configures the indicator. Expected parameters: step (float64), maxStep (float64).
func (p *ParabolicSAR) Config(params ...any) error {
	if err := floatParam(params, 0, "step", &p.step); err != nil {
		return err
	}

	return floatParam(params, 1, "maxStep", &p.maxStep)
}

// Calculate returns the SAR from the second bar onward. Price above the SAR is a
// buy and below a sell; a reversal bar scores 0.8, a continuing trend 0.5.
func (p *ParabolicSAR) Calculate(series Series) ([]types.IndicatorResult, error) {
	if err := validateSeries(series, true, false, p.Name()); err != nil {
		return nil, err
	}

	if series.Len() < 2 {
		return []types.IndicatorResult{}, nil
	}

	rising := series.Close[1] >= series.Close[0]
	acceleration := p.step

	sar, extreme := series.Low[0], series.High[0]
	if !rising {
		sar, extreme = series.High[0], series.Low[0]
	}

	results := make([]types.IndicatorResult, 0, series.Len()-1)

	for i := 1; i < series.Len(); i++ {
		sar += acceleration * (extreme - sar)
		reversed := false

		if rising {
			sar = math.Min(sar, series.Low[i-1])
			if i > 1 {
				sar = math.Min(sar, series.Low[i-2])
			}

			if series.Low[i] < sar {
				rising, reversed = false, true
				sar, extreme, acceleration = extreme, series.Low[i], p.step
			} else if series.High[i] > extreme {
				extreme = series.High[i]
				acceleration = math.Min(acceleration+p.step, p.maxStep)
			}
		} else {
			sar = math.Max(sar, series.High[i-1])
			if i > 1 {
				sar = math.Max(sar, series.High[i-2])
			}

			if series.High[i] > sar {
				rising, reversed = true, true
				sar, extreme, acceleration = extreme, series.High[i], p.step
			} else if series.Low[i] < extreme {
				extreme = series.Low[i]
				acceleration = math.Min(acceleration+p.step, p.maxStep)
			}
		}

		signal := types.DirectionSell
		if rising {
			signal = types.DirectionBuy
		}

		strength := 0.5
		if reversed {
			strength = 0.8
		}

		results = append(results, series.result(i, types.Scalar(sar), signal, strength))
	}

	return results, nil
}
