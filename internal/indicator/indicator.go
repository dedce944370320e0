package indicator

import (
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Indicator interface defines methods that any technical indicator scorer must implement.
type Indicator interface {
	// Name returns the name of the indicator
	Name() types.IndicatorType
	// Config sets the indicator parameters, positional and indicator specific
	Config(params ...any) error
	// Calculate scores every bar that has enough history. Results begin at
	// index lookback-1; a series shorter than that yields no results.
	Calculate(series Series) ([]types.IndicatorResult, error)
}

// intParam reads an optional positional int parameter. Float values are
// truncated so configs decoded from JSON or YAML work.
func intParam(params []any, index int, name string, target *int) error {
	if index >= len(params) {
		return nil
	}

	var value int

	switch v := params[index].(type) {
	case int:
		value = v
	case float64:
		value = int(v)
	default:
		return errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected int", name)
	}

	if value <= 0 {
		return errors.Newf(errors.ErrCodeInvalidPeriod, "%s must be a positive integer, got %d", name, value)
	}

	*target = value

	return nil
}

// floatParam reads an optional positional positive float parameter.
func floatParam(params []any, index int, name string, target *float64) error {
	if index >= len(params) {
		return nil
	}

	var value float64

	switch v := params[index].(type) {
	case float64:
		value = v
	case int:
		value = float64(v)
	default:
		return errors.Newf(errors.ErrCodeInvalidType, "invalid type for %s parameter, expected float64", name)
	}

	if !isFinite(value) || value <= 0 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "%s must be a positive number, got %v", name, value)
	}

	*target = value

	return nil
}

func validateSeries(series Series, needHighLow, needVolume bool, name types.IndicatorType) error {
	if err := series.Validate(); err != nil {
		return errors.Wrapf(errors.ErrCodeIndicatorCalculation, err, "%s", name)
	}

	if needHighLow && !series.hasHighLow() {
		return errors.Newf(errors.ErrCodeMissingParameter, "%s requires high and low prices", name)
	}

	if needVolume && !series.hasVolume() {
		return errors.Newf(errors.ErrCodeMissingParameter, "%s requires volume", name)
	}

	return nil
}
