package strategy

import (
	"fmt"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const (
	// VolumeAverageWindow is the number of previous bars averaged by the volume filter.
	VolumeAverageWindow = 20
	// MinVolumeRatio is the fraction of average volume a bar needs to pass the volume filter.
	MinVolumeRatio = 0.8
	// MinATRRatio is the ATR, as a fraction of price, a bar needs to pass the volatility filter.
	MinATRRatio = 0.001

	atrPeriod = 14
)

// Filter names reported when a bar is rejected.
const (
	FilterTime       = "time"
	FilterVolatility = "volatility"
	FilterTrend      = "trend"
	FilterVolume     = "volume"
	FilterRule       = "rule"
)

// TimeWindow is a daily UTC window in minutes since midnight. End is exclusive
// and may be 1440 for a window running to the end of the day; a window whose
// start is after its end wraps past midnight.
type TimeWindow struct {
	Start int
	End   int
}

// endOfDay is accepted as an end bound only.
const endOfDay = "24:00"

// ParseTimeWindow parses "HH:MM-HH:MM". The end may be 24:00.
func ParseTimeWindow(window string) (TimeWindow, error) {
	parts := strings.Split(strings.TrimSpace(window), "-")
	if len(parts) != 2 {
		return TimeWindow{}, errors.Newf(errors.ErrCodeInvalidTimeWindow, "time window %q must be formatted HH:MM-HH:MM", window)
	}

	bounds := make([]int, 2)

	for i, part := range parts {
		part = strings.TrimSpace(part)
		if i == 1 && part == endOfDay {
			bounds[i] = 24 * 60
			continue
		}

		t, err := time.Parse("15:04", part)
		if err != nil {
			return TimeWindow{}, errors.Wrapf(errors.ErrCodeInvalidTimeWindow, err, "time window %q has an invalid time %q", window, part)
		}

		bounds[i] = t.Hour()*60 + t.Minute()
	}

	return TimeWindow{Start: bounds[0], End: bounds[1]}, nil
}

// Contains reports whether t falls inside the window. Equal bounds cover the whole day.
func (w TimeWindow) Contains(t time.Time) bool {
	utc := t.UTC()
	minute := utc.Hour()*60 + utc.Minute()

	switch {
	case w.Start == w.End:
		return true
	case w.Start < w.End:
		return minute >= w.Start && minute < w.End
	default:
		return minute >= w.Start || minute < w.End
	}
}

// InTimeWindows reports whether t falls inside any of the windows. No windows allows every time.
func InTimeWindows(windows []string, t time.Time) (bool, error) {
	if len(windows) == 0 {
		return true, nil
	}

	for _, raw := range windows {
		window, err := ParseTimeWindow(raw)
		if err != nil {
			return false, err
		}

		if window.Contains(t) {
			return true, nil
		}
	}

	return false, nil
}

// FilterInput is the data the filters look at for one bar.
type FilterInput struct {
	Candle          types.Candle
	History         []types.Candle
	Readings        map[types.IndicatorType]types.IndicatorReading
	MarketCondition types.MarketCondition
}

// FilterOutcome reports which filter, if any, rejected the bar.
type FilterOutcome struct {
	Passed bool
	Filter string
	Reason string
}

func passed() FilterOutcome {
	return FilterOutcome{Passed: true, Filter: "", Reason: ""}
}

func rejected(filter, reason string) FilterOutcome {
	return FilterOutcome{Passed: false, Filter: filter, Reason: reason}
}

// ApplyFilters runs the enabled filters in order: time window, volatility, trend, volume.
func ApplyFilters(filters Filters, in FilterInput) FilterOutcome {
	ok, err := InTimeWindows(filters.TimeFilters, in.Candle.Time)
	if err != nil {
		return rejected(FilterTime, err.Error())
	}

	if !ok {
		return rejected(FilterTime, fmt.Sprintf("%s is outside the trading windows", in.Candle.Time.UTC().Format("15:04")))
	}

	if filters.VolatilityFilter && !PassesVolatilityFilter(in) {
		return rejected(FilterVolatility, "ATR is below 0.1% of price")
	}

	if filters.TrendFilter && in.MarketCondition == types.MarketConditionRanging {
		return rejected(FilterTrend, "market is ranging")
	}

	if filters.VolumeFilter && !PassesVolumeFilter(in.History, in.Candle) {
		return rejected(FilterVolume, "volume is below 80% of the 20 bar average")
	}

	return passed()
}

// PassesVolatilityFilter fails a bar whose ATR is below 0.1% of its close. The ATR
// reading is used when present, otherwise ATR is computed from history. Without
// enough data the bar passes.
func PassesVolatilityFilter(in FilterInput) bool {
	atr, ok := currentATR(in.Readings, in.History)
	if !ok || in.Candle.Close <= 0 {
		return true
	}

	return atr/in.Candle.Close >= MinATRRatio
}

// PassesVolumeFilter fails a bar whose volume is below 80% of the average of the
// previous 20 bars. Without 20 previous bars the bar passes.
func PassesVolumeFilter(history []types.Candle, candle types.Candle) bool {
	average, ok := averageVolume(history, candle, VolumeAverageWindow)
	if !ok {
		return true
	}

	return candle.Volume >= MinVolumeRatio*average
}

// averageVolume averages the window bars before candle. history may or may not
// already end with candle.
func averageVolume(history []types.Candle, candle types.Candle, window int) (float64, bool) {
	previous := history
	if n := len(previous); n > 0 && previous[n-1].Time.Equal(candle.Time) {
		previous = previous[:n-1]
	}

	if len(previous) < window {
		return 0, false
	}

	total := 0.0
	for _, c := range previous[len(previous)-window:] {
		total += c.Volume
	}

	return total / float64(window), true
}

func currentATR(readings map[types.IndicatorType]types.IndicatorReading, history []types.Candle) (float64, bool) {
	if reading, ok := readings[types.IndicatorTypeATR]; ok {
		if atr, ok := reading.Value.Scalar(); ok {
			return atr, true
		}
	}

	if len(history) < atrPeriod {
		return 0, false
	}

	series := indicator.NewSeries(history)
	values := indicator.CalculateATR(series.High, series.Low, series.Close, atrPeriod)

	return values[len(values)-1], true
}
