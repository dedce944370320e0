package strategy

import (
	"sort"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Preset names accepted by Preset.
const (
	PresetConfluence = "confluence"
	PresetTrend      = "trend"
)

var presets = map[string]func() StrategyConfig{
	PresetConfluence: MultiIndicatorConfluence,
	PresetTrend:      TrendFollowing,
}

// MultiIndicatorConfluence requires agreement between momentum, trend and
// volume indicators before taking a position.
func MultiIndicatorConfluence() StrategyConfig {
	return StrategyConfig{
		Name:          "Multi-Indicator Confluence",
		Version:       "1.0.0",
		Description:   "Combines RSI, MACD, Bollinger Bands, Stochastic and volume for high-probability entries",
		EngineVersion: "",
		Rules: []StrategyRule{
			entryRule("rsi_oversold_overbought", "RSI Extremes", RuleKindRSIExtremes, 0.25),
			entryRule("macd_crossover", "MACD Crossover", RuleKindMACDCrossover, 0.25),
			entryRule("bollinger_reversion", "Bollinger Band Reversion", RuleKindBollingerReversion, 0.2),
			entryRule("volume_confirmation", "Volume Confirmation", RuleKindVolumeConfirmation, 0.15),
			entryRule("stochastic_cross", "Stochastic Cross", RuleKindStochasticCross, 0.15),
		},
		RequiredIndicators: []types.IndicatorType{
			types.IndicatorTypeRSI,
			types.IndicatorTypeMACD,
			types.IndicatorTypeBollingerBands,
			types.IndicatorTypeStochastic,
		},
		MinConfidence:     0.65,
		MaxSignalsPerHour: 4,
		RiskRewardRatio:   2,
		StopLossMethod:    StopLossATR,
		TakeProfitMethod:  TakeProfitFixedRatio,
		Filters: Filters{
			TimeFilters:      []string{},
			VolatilityFilter: true,
			TrendFilter:      false,
			VolumeFilter:     true,
		},
		Parameters: map[string]float64{
			ParamATRMultiplier:   DefaultATRMultiplier,
			ParamStopLossPercent: DefaultStopLossPercent,
		},
	}
}

// TrendFollowing trades in the direction of an established trend and flags
// exits on RSI extremes.
func TrendFollowing() StrategyConfig {
	exit := entryRule("rsi_exit", "RSI Exhaustion Exit", RuleKindRSIExtremes, 0.2)
	exit.Category = RuleCategoryExit

	return StrategyConfig{
		Name:          "Trend Following",
		Version:       "1.0.0",
		Description:   "Follows strong trends confirmed by EMA alignment, ADX and MACD",
		EngineVersion: "",
		Rules: []StrategyRule{
			entryRule("ema_trend", "EMA Trend Alignment", RuleKindEMATrend, 0.35),
			entryRule("adx_strength", "ADX Trend Strength", RuleKindADXTrend, 0.3),
			entryRule("macd_momentum", "MACD Momentum", RuleKindMACDCrossover, 0.2),
			entryRule("volume_confirmation", "Volume Confirmation", RuleKindVolumeConfirmation, 0.15),
			exit,
		},
		RequiredIndicators: []types.IndicatorType{
			types.IndicatorTypeEMA,
			types.IndicatorTypeADX,
			types.IndicatorTypeMACD,
		},
		MinConfidence:     0.6,
		MaxSignalsPerHour: 3,
		RiskRewardRatio:   2.5,
		StopLossMethod:    StopLossATR,
		TakeProfitMethod:  TakeProfitTrailing,
		Filters: Filters{
			TimeFilters:      []string{},
			VolatilityFilter: true,
			TrendFilter:      true,
			VolumeFilter:     false,
		},
		Parameters: map[string]float64{
			ParamATRMultiplier:   DefaultATRMultiplier,
			ParamStopLossPercent: DefaultStopLossPercent,
		},
	}
}

// Preset returns a fresh copy of a named preset.
func Preset(name string) (StrategyConfig, error) {
	build, ok := presets[name]
	if !ok {
		return StrategyConfig{}, errors.Newf(errors.ErrCodeUnknownPreset, "unknown preset %q", name)
	}

	return build(), nil
}

// PresetNames lists the preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func entryRule(id, name string, kind RuleKind, weight float64) StrategyRule {
	return StrategyRule{
		ID:       id,
		Name:     name,
		Category: RuleCategoryEntry,
		Kind:     kind,
		Weight:   weight,
		Enabled:  true,
		Params:   nil,
	}
}
