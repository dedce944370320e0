package types

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Candle is one OHLCV bar.
type Candle struct {
	Symbol string    `json:"symbol" yaml:"symbol" csv:"symbol"`
	Time   time.Time `json:"time" yaml:"time" csv:"time"`
	Open   float64   `json:"open" yaml:"open" csv:"open"`
	High   float64   `json:"high" yaml:"high" csv:"high"`
	Low    float64   `json:"low" yaml:"low" csv:"low"`
	Close  float64   `json:"close" yaml:"close" csv:"close"`
	Volume float64   `json:"volume" yaml:"volume" csv:"volume"`
}

// Validate checks that every field is finite and the bar is internally consistent.
func (c Candle) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"open", c.Open},
		{"high", c.High},
		{"low", c.Low},
		{"close", c.Close},
		{"volume", c.Volume},
	}

	for _, field := range fields {
		if math.IsNaN(field.value) || math.IsInf(field.value, 0) {
			return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s at %s has non-finite %s", c.Symbol, c.Time.Format(time.RFC3339), field.name)
		}
	}

	if c.Volume < 0 {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s has negative volume %v", c.Symbol, c.Volume)
	}

	if c.High < c.Low {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s high %v is below low %v", c.Symbol, c.High, c.Low)
	}

	if c.High < math.Max(c.Open, c.Close) || c.Low > math.Min(c.Open, c.Close) {
		return errors.Newf(errors.ErrCodeInvalidCandle, "candle %s open/close lie outside the high-low range", c.Symbol)
	}

	return nil
}
