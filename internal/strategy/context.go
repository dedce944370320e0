package strategy

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

const (
	// MarketConditionWindow is the number of bars used to classify the market.
	MarketConditionWindow = 20
	// VolatileThreshold is the realized volatility above which a market is volatile.
	VolatileThreshold = 0.03
	// TrendingThreshold is the net move over the window above which a market is trending.
	TrendingThreshold = 0.02
)

// StrategyContext is the rolling situational state handed to rules.
type StrategyContext struct {
	Symbol          string
	Timeframe       string
	Candles         []types.Candle
	Signals         []types.StrategySignal
	MarketCondition types.MarketCondition
	Session         types.TradingSession
}

// Clone returns a deep copy of the context.
func (c StrategyContext) Clone() StrategyContext {
	clone := c
	clone.Candles = append([]types.Candle(nil), c.Candles...)

	clone.Signals = make([]types.StrategySignal, len(c.Signals))
	for i, signal := range c.Signals {
		clone.Signals[i] = signal.Clone()
	}

	return clone
}

// ClassifyMarketCondition looks at the last 20 bars: unknown with fewer, volatile
// when realized volatility exceeds 3%, trending when the net move exceeds 2%,
// ranging otherwise. Volatility is checked first.
func ClassifyMarketCondition(candles []types.Candle) types.MarketCondition {
	if len(candles) < MarketConditionWindow {
		return types.MarketConditionUnknown
	}

	window := candles[len(candles)-MarketConditionWindow:]
	closes := make([]float64, len(window))

	for i, candle := range window {
		closes[i] = candle.Close
	}

	volatility, _ := indicator.RealizedVolatility(closes, MarketConditionWindow)
	if volatility > VolatileThreshold {
		return types.MarketConditionVolatile
	}

	if closes[0] != 0 && math.Abs(closes[len(closes)-1]/closes[0]-1) > TrendingThreshold {
		return types.MarketConditionTrending
	}

	return types.MarketConditionRanging
}

// ClassifySession buckets the UTC hour: 0-8 asian, 8-12 overlap, 12-16 london,
// 16-20 overlap, 20-24 newyork.
func ClassifySession(t time.Time) types.TradingSession {
	hour := t.UTC().Hour()

	switch {
	case hour < 8:
		return types.TradingSessionAsian
	case hour < 12:
		return types.TradingSessionOverlap
	case hour < 16:
		return types.TradingSessionLondon
	case hour < 20:
		return types.TradingSessionOverlap
	case hour < 24:
		return types.TradingSessionNewYork
	default:
		return types.TradingSessionQuiet
	}
}
