package strategy

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/shopspring/decimal"
)

const (
	// DefaultStopLossPercent is the fallback stop distance as a fraction of price.
	DefaultStopLossPercent = 0.02
	// DefaultATRMultiplier scales ATR into a stop distance.
	DefaultATRMultiplier = 2.0
	// DefaultRiskRewardRatio is used when the config carries no positive ratio.
	DefaultRiskRewardRatio = 2.0
	// TrailingTargetMultiple is the initial target of a trailing take-profit, in units of risk.
	TrailingTargetMultiple = 1.5
	// LevelWindow is the number of bars searched for support and resistance.
	LevelWindow = 20
	// LevelOffset moves support and resistance levels by 0.1%.
	LevelOffset = 0.001

	minDynamicStop = 0.01
	maxDynamicStop = 0.05
	highVolatility = 0.03
	lowVolatility  = 0.01
)

// RiskInput is what the stop-loss and take-profit calculations work from.
type RiskInput struct {
	Side            types.SignalType
	Price           float64
	History         []types.Candle
	ATR             optional.Option[float64]
	RiskRewardRatio float64
	Parameters      map[string]float64
}

// RiskLevels are the protective prices attached to a LONG or SHORT signal.
type RiskLevels struct {
	StopLoss   float64
	TakeProfit float64
	RiskReward float64
}

// CalculateRiskLevels computes stop-loss, take-profit and the resulting reward/risk
// ratio. ok is false for HOLD signals, which carry no levels.
func CalculateRiskLevels(stopMethod StopLossMethod, targetMethod TakeProfitMethod, in RiskInput) (RiskLevels, bool) {
	if in.Side != types.SignalTypeLong && in.Side != types.SignalTypeShort {
		return RiskLevels{}, false
	}

	stopLoss := CalculateStopLoss(stopMethod, in)
	takeProfit := CalculateTakeProfit(targetMethod, in, stopLoss)

	price := decimal.NewFromFloat(in.Price)
	risk := price.Sub(decimal.NewFromFloat(stopLoss)).Abs()
	reward := decimal.NewFromFloat(takeProfit).Sub(price).Abs()

	ratio := 0.0
	if !risk.IsZero() {
		ratio = reward.Div(risk).Round(4).InexactFloat64()
	}

	return RiskLevels{StopLoss: stopLoss, TakeProfit: takeProfit, RiskReward: ratio}, true
}

// CalculateStopLoss places the stop on the losing side of price:
//   - atr: price -/+ ATR * atrMultiplier
//   - percentage: price * (1 -/+ stopLossPercent)
//   - support_resistance: lowest low / highest high of the last 20 bars, moved 0.1% outward
//   - dynamic: 2x realized volatility of the last 20 bars, clamped to [1%, 5%]
//
// Missing data or an unknown method falls back to a 2% stop.
func CalculateStopLoss(method StopLossMethod, in RiskInput) float64 {
	price := decimal.NewFromFloat(in.Price)
	fallback := percentStop(in.Side, price, decimal.NewFromFloat(DefaultStopLossPercent))

	switch method {
	case StopLossATR:
		atr, ok := riskATR(in)
		if !ok {
			return fallback
		}

		distance := decimal.NewFromFloat(atr).Mul(decimal.NewFromFloat(paramOr(in.Parameters, ParamATRMultiplier, DefaultATRMultiplier)))

		return away(in.Side, price, distance).InexactFloat64()
	case StopLossPercentage:
		pct := decimal.NewFromFloat(paramOr(in.Parameters, ParamStopLossPercent, DefaultStopLossPercent))

		return percentStop(in.Side, price, pct)
	case StopLossSupportResistance:
		support, resistance, ok := levels(in.History)
		if !ok {
			return fallback
		}

		offset := decimal.NewFromFloat(LevelOffset)
		if in.Side == types.SignalTypeLong {
			return decimal.NewFromFloat(support).Mul(decimal.NewFromInt(1).Sub(offset)).InexactFloat64()
		}

		return decimal.NewFromFloat(resistance).Mul(decimal.NewFromInt(1).Add(offset)).InexactFloat64()
	case StopLossDynamic:
		volatility, ok := indicator.RealizedVolatility(closes(in.History), LevelWindow)
		if !ok {
			return fallback
		}

		pct := decimal.NewFromFloat(2 * volatility)
		pct = decimal.Max(pct, decimal.NewFromFloat(minDynamicStop))
		pct = decimal.Min(pct, decimal.NewFromFloat(maxDynamicStop))

		return percentStop(in.Side, price, pct)
	default:
		return fallback
	}
}

// CalculateTakeProfit places the target on the winning side using risk = |price - stopLoss|:
//   - fixed_ratio: risk * riskRewardRatio
//   - trailing: risk * 1.5 as the initial target
//   - resistance: the 20 bar high (LONG) or low (SHORT) moved 0.1% inward, or
//     fixed_ratio when that level is not beyond price
//   - dynamic: riskRewardRatio scaled by 0.8 above 3% realized volatility and 1.2 below 1%
//
// An unknown method falls back to fixed_ratio.
func CalculateTakeProfit(method TakeProfitMethod, in RiskInput, stopLoss float64) float64 {
	price := decimal.NewFromFloat(in.Price)
	risk := price.Sub(decimal.NewFromFloat(stopLoss)).Abs()

	ratio := in.RiskRewardRatio
	if ratio <= 0 {
		ratio = DefaultRiskRewardRatio
	}

	fixed := toward(in.Side, price, risk.Mul(decimal.NewFromFloat(ratio))).InexactFloat64()

	switch method {
	case TakeProfitTrailing:
		return toward(in.Side, price, risk.Mul(decimal.NewFromFloat(TrailingTargetMultiple))).InexactFloat64()
	case TakeProfitResistance:
		support, resistance, ok := levels(in.History)
		if !ok {
			return fixed
		}

		offset := decimal.NewFromFloat(LevelOffset)

		if in.Side == types.SignalTypeLong {
			target := decimal.NewFromFloat(resistance).Mul(decimal.NewFromInt(1).Sub(offset))
			if target.LessThanOrEqual(price) {
				return fixed
			}

			return target.InexactFloat64()
		}

		target := decimal.NewFromFloat(support).Mul(decimal.NewFromInt(1).Add(offset))
		if target.GreaterThanOrEqual(price) {
			return fixed
		}

		return target.InexactFloat64()
	case TakeProfitDynamic:
		adjusted := decimal.NewFromFloat(ratio)

		if volatility, ok := indicator.RealizedVolatility(closes(in.History), LevelWindow); ok {
			switch {
			case volatility > highVolatility:
				adjusted = adjusted.Mul(decimal.NewFromFloat(0.8))
			case volatility < lowVolatility:
				adjusted = adjusted.Mul(decimal.NewFromFloat(1.2))
			}
		}

		return toward(in.Side, price, risk.Mul(adjusted)).InexactFloat64()
	default:
		return fixed
	}
}

func percentStop(side types.SignalType, price, pct decimal.Decimal) float64 {
	return away(side, price, price.Mul(pct)).InexactFloat64()
}

// away moves price by distance against the position.
func away(side types.SignalType, price, distance decimal.Decimal) decimal.Decimal {
	if side == types.SignalTypeShort {
		return price.Add(distance)
	}

	return price.Sub(distance)
}

// toward moves price by distance in favour of the position.
func toward(side types.SignalType, price, distance decimal.Decimal) decimal.Decimal {
	if side == types.SignalTypeShort {
		return price.Sub(distance)
	}

	return price.Add(distance)
}

func levels(history []types.Candle) (support, resistance float64, ok bool) {
	if len(history) < LevelWindow {
		return 0, 0, false
	}

	window := history[len(history)-LevelWindow:]
	support, resistance = window[0].Low, window[0].High

	for _, candle := range window[1:] {
		support = min(support, candle.Low)
		resistance = max(resistance, candle.High)
	}

	return support, resistance, true
}

func riskATR(in RiskInput) (float64, bool) {
	if atr, err := in.ATR.Take(); err == nil && atr > 0 {
		return atr, true
	}

	atr, ok := currentATR(nil, in.History)
	if !ok || atr <= 0 {
		return 0, false
	}

	return atr, true
}

func closes(candles []types.Candle) []float64 {
	out := make([]float64, len(candles))
	for i, candle := range candles {
		out[i] = candle.Close
	}

	return out
}

func paramOr(params map[string]float64, name string, fallback float64) float64 {
	if v, ok := params[name]; ok && v > 0 {
		return v
	}

	return fallback
}
