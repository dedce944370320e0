package engine

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

var testStart = time.Date(2024, 3, 4, 0, 0, 0, 0, time.UTC)

const (
	kindAlwaysLong strategy.RuleKind = "always_long"
	kindNeutral    strategy.RuleKind = "neutral"
	kindGate       strategy.RuleKind = "gate"
	kindFlaky      strategy.RuleKind = "flaky"
)

func fixedRule(signal types.Direction, confidence float64, reasoning string) strategy.RuleEvaluatorFunc {
	return func(strategy.RuleInput) (strategy.RuleResult, error) {
		return strategy.RuleResult{Signal: signal, Confidence: confidence, Reasoning: reasoning}, nil
	}
}

func testRegistry() *strategy.RuleRegistry {
	registry := strategy.NewRuleRegistry()
	registry.Replace(kindAlwaysLong, fixedRule(types.DirectionBuy, 0.9, "always long"))
	registry.Replace(kindNeutral, fixedRule(types.DirectionNeutral, 0, "no opinion"))
	registry.Replace(kindGate, fixedRule(types.DirectionNeutral, 0.2, "gate closed"))

	return registry
}

func testRule(id string, kind strategy.RuleKind, category strategy.RuleCategory, weight float64) strategy.StrategyRule {
	return strategy.StrategyRule{
		ID:       id,
		Name:     id,
		Category: category,
		Kind:     kind,
		Weight:   weight,
		Enabled:  true,
		Params:   nil,
	}
}

func testConfig(rules ...strategy.StrategyRule) strategy.StrategyConfig {
	return strategy.StrategyConfig{
		Name:               "Test Strategy",
		Version:            "1.0.0",
		Description:        "",
		EngineVersion:      "",
		Rules:              rules,
		RequiredIndicators: []types.IndicatorType{types.IndicatorTypeRSI},
		MinConfidence:      0.6,
		MaxSignalsPerHour:  3,
		RiskRewardRatio:    2,
		StopLossMethod:     strategy.StopLossPercentage,
		TakeProfitMethod:   strategy.TakeProfitFixedRatio,
		Filters: strategy.Filters{
			TimeFilters:      []string{},
			VolatilityFilter: false,
			TrendFilter:      false,
			VolumeFilter:     false,
		},
		Parameters: map[string]float64{strategy.ParamStopLossPercent: 0.02},
	}
}

func testCandle(minute int, price float64) types.Candle {
	return types.Candle{
		Symbol: "BTCUSDT",
		Time:   testStart.Add(time.Duration(minute) * time.Minute),
		Open:   price,
		High:   price * 1.01,
		Low:    price * 0.99,
		Close:  price,
		Volume: 100,
	}
}

func rsiReading(value float64, at time.Time) types.IndicatorReading {
	return types.IndicatorReading{
		Name:       types.IndicatorTypeRSI,
		Value:      types.Scalar(value),
		Signal:     types.DirectionBuy,
		Strength:   0.8,
		Confidence: optional.None[float64](),
		Timestamp:  at,
	}
}

func fixedClock(t time.Time) strategy.Clock {
	return func() time.Time { return t }
}
