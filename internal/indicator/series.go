package indicator

import (
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Series holds OHLCV columns, oldest first. Scorers read it and never modify it.
type Series struct {
	Time   []time.Time
	Open   []float64
	High   []float64
	Low    []float64
	Close  []float64
	Volume []float64
}

// NewSeries splits candles into columns.
func NewSeries(candles []types.Candle) Series {
	s := Series{
		Time:   make([]time.Time, len(candles)),
		Open:   make([]float64, len(candles)),
		High:   make([]float64, len(candles)),
		Low:    make([]float64, len(candles)),
		Close:  make([]float64, len(candles)),
		Volume: make([]float64, len(candles)),
	}

	for i, c := range candles {
		s.Time[i] = c.Time
		s.Open[i] = c.Open
		s.High[i] = c.High
		s.Low[i] = c.Low
		s.Close[i] = c.Close
		s.Volume[i] = c.Volume
	}

	return s
}

// Len returns the number of bars.
func (s Series) Len() int {
	return len(s.Close)
}

// Validate checks that all populated columns have the same length. Time, Open and
// Volume may be left empty when a scorer works on bare price arrays.
func (s Series) Validate() error {
	n := len(s.Close)

	columns := map[string]int{
		"high": len(s.High),
		"low":  len(s.Low),
	}
	if len(s.Time) > 0 {
		columns["time"] = len(s.Time)
	}

	if len(s.Open) > 0 {
		columns["open"] = len(s.Open)
	}

	if len(s.Volume) > 0 {
		columns["volume"] = len(s.Volume)
	}

	for name, length := range columns {
		if length != n && !(length == 0 && (name == "high" || name == "low")) {
			return errors.Newf(errors.ErrCodeInvalidParameter, "series column %s has %d bars, close has %d", name, length, n)
		}
	}

	return nil
}

// timeAt returns the bar timestamp, or the zero time when the series has no time column.
func (s Series) timeAt(i int) time.Time {
	if i < len(s.Time) {
		return s.Time[i]
	}

	return time.Time{}
}

func (s Series) hasHighLow() bool {
	return len(s.High) == len(s.Close) && len(s.Low) == len(s.Close)
}

func (s Series) hasVolume() bool {
	return len(s.Volume) == len(s.Close)
}

func (s Series) result(i int, value types.IndicatorValue, signal types.Direction, strength float64) types.IndicatorResult {
	return types.IndicatorResult{
		Index:    i,
		Time:     s.timeAt(i),
		Value:    value,
		Signal:   signal,
		Strength: clamp01(strength),
	}
}
