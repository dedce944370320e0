package types

import "time"

// SignalType is the published trading decision.
type SignalType string

const (
	SignalTypeLong  SignalType = "LONG"
	SignalTypeShort SignalType = "SHORT"
	SignalTypeHold  SignalType = "HOLD"
)

// SignalStrength buckets a confidence score.
type SignalStrength string

const (
	SignalStrengthWeak     SignalStrength = "WEAK"
	SignalStrengthModerate SignalStrength = "MODERATE"
	SignalStrengthStrong   SignalStrength = "STRONG"
)

// StrengthFromConfidence maps confidence to a strength bucket:
// >= 0.8 strong, >= 0.6 moderate, otherwise weak.
func StrengthFromConfidence(confidence float64) SignalStrength {
	switch {
	case confidence >= 0.8:
		return SignalStrengthStrong
	case confidence >= 0.6:
		return SignalStrengthModerate
	default:
		return SignalStrengthWeak
	}
}

// MarketCondition is the regime of the recent price history.
type MarketCondition string

const (
	MarketConditionTrending MarketCondition = "trending"
	MarketConditionRanging  MarketCondition = "ranging"
	MarketConditionVolatile MarketCondition = "volatile"
	MarketConditionUnknown  MarketCondition = "unknown"
)

// TradingSession is the UTC trading session a candle falls in.
type TradingSession string

const (
	TradingSessionAsian   TradingSession = "asian"
	TradingSessionLondon  TradingSession = "london"
	TradingSessionNewYork TradingSession = "newyork"
	TradingSessionOverlap TradingSession = "overlap"
	TradingSessionQuiet   TradingSession = "quiet"
)

// SignalMetadata carries the risk parameters and context of a signal.
type SignalMetadata struct {
	Symbol          string          `json:"symbol" yaml:"symbol"`
	Timeframe       string          `json:"timeframe" yaml:"timeframe"`
	StrategyName    string          `json:"strategy_name" yaml:"strategy_name"`
	StopLoss        *float64        `json:"stop_loss,omitempty" yaml:"stop_loss,omitempty"`
	TakeProfit      *float64        `json:"take_profit,omitempty" yaml:"take_profit,omitempty"`
	RiskReward      *float64        `json:"risk_reward,omitempty" yaml:"risk_reward,omitempty"`
	EntryConditions []string        `json:"entry_conditions" yaml:"entry_conditions"`
	ExitConditions  []string        `json:"exit_conditions" yaml:"exit_conditions"`
	MarketCondition MarketCondition `json:"market_condition" yaml:"market_condition"`
	Session         TradingSession  `json:"session" yaml:"session"`
}

// StrategySignal is one published trading decision. It is treated as immutable once emitted.
type StrategySignal struct {
	ID         string             `json:"id" yaml:"id"`
	Type       SignalType         `json:"type" yaml:"type"`
	Strength   SignalStrength     `json:"strength" yaml:"strength"`
	Confidence float64            `json:"confidence" yaml:"confidence"`
	Price      float64            `json:"price" yaml:"price"`
	Timestamp  time.Time          `json:"timestamp" yaml:"timestamp"`
	Reasoning  []string           `json:"reasoning" yaml:"reasoning"`
	Indicators []IndicatorReading `json:"indicators" yaml:"indicators"`
	Metadata   SignalMetadata     `json:"metadata" yaml:"metadata"`
}

// Clone returns a deep copy so callers cannot mutate engine-owned history.
func (s StrategySignal) Clone() StrategySignal {
	clone := s
	clone.Reasoning = append([]string(nil), s.Reasoning...)
	clone.Metadata.EntryConditions = append([]string(nil), s.Metadata.EntryConditions...)
	clone.Metadata.ExitConditions = append([]string(nil), s.Metadata.ExitConditions...)
	clone.Metadata.StopLoss = copyFloat(s.Metadata.StopLoss)
	clone.Metadata.TakeProfit = copyFloat(s.Metadata.TakeProfit)
	clone.Metadata.RiskReward = copyFloat(s.Metadata.RiskReward)

	clone.Indicators = make([]IndicatorReading, len(s.Indicators))
	for i, reading := range s.Indicators {
		clone.Indicators[i] = reading.Clone()
	}

	return clone
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
