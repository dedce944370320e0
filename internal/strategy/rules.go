package strategy

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

func builtinEvaluators() map[RuleKind]RuleEvaluator {
	return map[RuleKind]RuleEvaluator{
		RuleKindRSIExtremes:        RuleEvaluatorFunc(evaluateRSIExtremes),
		RuleKindMACDCrossover:      RuleEvaluatorFunc(evaluateMACDCrossover),
		RuleKindBollingerReversion: RuleEvaluatorFunc(evaluateBollingerReversion),
		RuleKindEMATrend:           RuleEvaluatorFunc(evaluateEMATrend),
		RuleKindStochasticCross:    RuleEvaluatorFunc(evaluateStochasticCross),
		RuleKindADXTrend:           RuleEvaluatorFunc(evaluateADXTrend),
		RuleKindVolumeConfirmation: RuleEvaluatorFunc(evaluateVolumeConfirmation),
		RuleKindOBVDivergence:      RuleEvaluatorFunc(evaluateOBVDivergence),
		RuleKindVWAPDeviation:      RuleEvaluatorFunc(evaluateVWAPDeviation),
		RuleKindSessionWindow:      RuleEvaluatorFunc(evaluateSessionWindow),
	}
}

// scalarReading returns the scalar value of a reading. ok is false when the
// reading is missing; a reading of the wrong shape is an error.
func scalarReading(in RuleInput, name types.IndicatorType) (float64, bool, error) {
	reading, ok := in.Readings[name]
	if !ok {
		return 0, false, nil
	}

	value, ok := reading.Value.Scalar()
	if !ok {
		return 0, false, errors.Newf(errors.ErrCodeRuleEvaluationFailed, "%s reading is not a scalar", name)
	}

	return value, true, nil
}

// namedReading returns the requested components of a named reading.
func namedReading(in RuleInput, name types.IndicatorType, keys ...string) (map[string]float64, bool, error) {
	reading, ok := in.Readings[name]
	if !ok {
		return nil, false, nil
	}

	values := make(map[string]float64, len(keys))

	for _, key := range keys {
		v, ok := reading.Value.Get(key)
		if !ok {
			return nil, false, errors.Newf(errors.ErrCodeRuleEvaluationFailed, "%s reading has no %q component", name, key)
		}

		values[key] = v
	}

	return values, true, nil
}

// evaluateRSIExtremes: below 20 buy 0.95, below 30 buy 0.75, above 80 sell 0.95, above 70 sell 0.75.
func evaluateRSIExtremes(in RuleInput) (RuleResult, error) {
	rsi, ok, err := scalarReading(in, types.IndicatorTypeRSI)
	if err != nil || !ok {
		return NeutralResult("RSI unavailable"), err
	}

	var (
		extremeLow  = in.Param("extremeOversold", 20)
		low         = in.Param("oversold", 30)
		high        = in.Param("overbought", 70)
		extremeHigh = in.Param("extremeOverbought", 80)
	)

	switch {
	case rsi < extremeLow:
		return RuleResult{types.DirectionBuy, 0.95, fmt.Sprintf("RSI extremely oversold (%.2f)", rsi)}, nil
	case rsi < low:
		return RuleResult{types.DirectionBuy, 0.75, fmt.Sprintf("RSI oversold (%.2f)", rsi)}, nil
	case rsi > extremeHigh:
		return RuleResult{types.DirectionSell, 0.95, fmt.Sprintf("RSI extremely overbought (%.2f)", rsi)}, nil
	case rsi > high:
		return RuleResult{types.DirectionSell, 0.75, fmt.Sprintf("RSI overbought (%.2f)", rsi)}, nil
	default:
		return NeutralResult(fmt.Sprintf("RSI neutral (%.2f)", rsi)), nil
	}
}

// evaluateMACDCrossover trusts the scorer's crossover verdict and otherwise
// follows the histogram at 0.5.
func evaluateMACDCrossover(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeMACD, "macd", "signal", "histogram")
	if err != nil || !ok {
		return NeutralResult("MACD unavailable"), err
	}

	reading := in.Readings[types.IndicatorTypeMACD]
	histogram := values["histogram"]

	switch {
	case reading.Signal == types.DirectionBuy:
		return RuleResult{types.DirectionBuy, 0.6 + 0.3*reading.Strength, fmt.Sprintf("MACD bullish crossover (histogram %.4f)", histogram)}, nil
	case reading.Signal == types.DirectionSell:
		return RuleResult{types.DirectionSell, 0.6 + 0.3*reading.Strength, fmt.Sprintf("MACD bearish crossover (histogram %.4f)", histogram)}, nil
	case histogram > 0:
		return RuleResult{types.DirectionBuy, 0.5, fmt.Sprintf("MACD above signal line (histogram %.4f)", histogram)}, nil
	case histogram < 0:
		return RuleResult{types.DirectionSell, 0.5, fmt.Sprintf("MACD below signal line (histogram %.4f)", histogram)}, nil
	default:
		return NeutralResult("MACD flat"), nil
	}
}

// evaluateBollingerReversion buys near the lower band and sells near the upper
// band. A squeeze adds 0.05 to the confidence of an edge touch. A close outside
// expanding bands is a possible breakout and drops to 0.7.
func evaluateBollingerReversion(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeBollingerBands, "position", "width")
	if err != nil || !ok {
		return NeutralResult("Bollinger Bands unavailable"), err
	}

	position := values["position"]
	regime := bandRegime(in.Readings[types.IndicatorTypeBollingerBands].Value, values["width"])

	var (
		signal     types.Direction
		confidence float64
		where      string
	)

	switch {
	case position < 0:
		signal, confidence, where = types.DirectionBuy, 0.9, "below lower"
	case position < 0.1:
		signal, confidence, where = types.DirectionBuy, 0.75, "at lower"
	case position > 1:
		signal, confidence, where = types.DirectionSell, 0.9, "above upper"
	case position > 0.9:
		signal, confidence, where = types.DirectionSell, 0.75, "at upper"
	default:
		if regime == "normal" {
			return NeutralResult(fmt.Sprintf("Price inside Bollinger Bands (position %.2f)", position)), nil
		}

		return NeutralResult(fmt.Sprintf("Price inside Bollinger Bands (position %.2f, bands in %s)", position, regime)), nil
	}

	outside := position < 0 || position > 1

	switch {
	case regime == "squeeze":
		return RuleResult{signal, confidence + 0.05, fmt.Sprintf("Price %s Bollinger Band (position %.2f, bands squeezed)", where, position)}, nil
	case regime == "expansion" && outside:
		return RuleResult{signal, 0.7, fmt.Sprintf("Price %s expanding Bollinger Band (position %.2f, possible breakout)", where, position)}, nil
	default:
		return RuleResult{signal, confidence, fmt.Sprintf("Price %s Bollinger Band (position %.2f)", where, position)}, nil
	}
}

// bandRegime prefers the scorer's squeeze and expansion flags and falls back
// to classifying width for readings that do not carry them.
func bandRegime(value types.IndicatorValue, width float64) string {
	squeeze, hasSqueeze := value.Get("squeeze")
	expansion, hasExpansion := value.Get("expansion")

	if !hasSqueeze || !hasExpansion {
		return indicator.BandRegime(width)
	}

	switch {
	case squeeze == 1:
		return "squeeze"
	case expansion == 1:
		return "expansion"
	default:
		return "normal"
	}
}

// evaluateEMATrend follows the sign of s = (fast-slow)/slow with confidence min(100*|s|, 0.9).
func evaluateEMATrend(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeEMA, "fast", "slow")
	if err != nil || !ok {
		return NeutralResult("EMA trend unavailable"), err
	}

	fast, slow := values["fast"], values["slow"]
	if slow == 0 {
		return NeutralResult("EMA trend undefined"), nil
	}

	spread := (fast - slow) / slow
	confidence := math.Min(100*math.Abs(spread), 0.9)

	switch {
	case spread > 0:
		return RuleResult{types.DirectionBuy, confidence, fmt.Sprintf("Fast EMA above slow EMA by %.2f%%", 100*spread)}, nil
	case spread < 0:
		return RuleResult{types.DirectionSell, confidence, fmt.Sprintf("Fast EMA below slow EMA by %.2f%%", -100*spread)}, nil
	default:
		return NeutralResult("EMAs converged"), nil
	}
}

// evaluateStochasticCross buys in the oversold zone, more confidently when %K leads %D.
func evaluateStochasticCross(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeStochastic, "k", "d")
	if err != nil || !ok {
		return NeutralResult("Stochastic unavailable"), err
	}

	k, d := values["k"], values["d"]
	oversold := in.Param("oversold", 20)
	overbought := in.Param("overbought", 80)

	switch {
	case k < oversold && k > d:
		return RuleResult{types.DirectionBuy, 0.8, fmt.Sprintf("Stochastic bullish cross in oversold zone (%%K %.2f)", k)}, nil
	case k < oversold:
		return RuleResult{types.DirectionBuy, 0.6, fmt.Sprintf("Stochastic oversold (%%K %.2f)", k)}, nil
	case k > overbought && k < d:
		return RuleResult{types.DirectionSell, 0.8, fmt.Sprintf("Stochastic bearish cross in overbought zone (%%K %.2f)", k)}, nil
	case k > overbought:
		return RuleResult{types.DirectionSell, 0.6, fmt.Sprintf("Stochastic overbought (%%K %.2f)", k)}, nil
	default:
		return NeutralResult(fmt.Sprintf("Stochastic neutral (%%K %.2f)", k)), nil
	}
}

// evaluateADXTrend follows the dominant directional indicator once ADX shows a trend.
func evaluateADXTrend(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeADX, "adx", "plus_di", "minus_di")
	if err != nil || !ok {
		return NeutralResult("ADX unavailable"), err
	}

	adx := values["adx"]
	threshold := in.Param("threshold", 25)

	if adx <= threshold {
		return NeutralResult(fmt.Sprintf("No trend (ADX %.2f)", adx)), nil
	}

	confidence := math.Min(0.5+(adx-threshold)/50, 0.95)

	switch {
	case values["plus_di"] > values["minus_di"]:
		return RuleResult{types.DirectionBuy, confidence, fmt.Sprintf("Strong uptrend (ADX %.2f)", adx)}, nil
	case values["minus_di"] > values["plus_di"]:
		return RuleResult{types.DirectionSell, confidence, fmt.Sprintf("Strong downtrend (ADX %.2f)", adx)}, nil
	default:
		return NeutralResult(fmt.Sprintf("Trend without direction (ADX %.2f)", adx)), nil
	}
}

// evaluateVolumeConfirmation backs the candle's direction when its volume is
// well above the average of the previous 20 bars.
func evaluateVolumeConfirmation(in RuleInput) (RuleResult, error) {
	average, ok := averageVolume(in.Context.Candles, in.Candle, VolumeAverageWindow)
	if !ok || average == 0 {
		return NeutralResult("Not enough volume history"), nil
	}

	ratio := in.Candle.Volume / average

	confidence := 0.0

	switch {
	case ratio >= in.Param("strongRatio", 1.5):
		confidence = 0.8
	case ratio >= in.Param("ratio", 1.2):
		confidence = 0.65
	default:
		return NeutralResult(fmt.Sprintf("Volume %.2fx average", ratio)), nil
	}

	switch {
	case in.Candle.Close > in.Candle.Open:
		return RuleResult{types.DirectionBuy, confidence, fmt.Sprintf("Buying volume %.2fx average", ratio)}, nil
	case in.Candle.Close < in.Candle.Open:
		return RuleResult{types.DirectionSell, confidence, fmt.Sprintf("Selling volume %.2fx average", ratio)}, nil
	default:
		return NeutralResult(fmt.Sprintf("High volume %.2fx average without direction", ratio)), nil
	}
}

// evaluateOBVDivergence passes the OBV scorer verdict through.
func evaluateOBVDivergence(in RuleInput) (RuleResult, error) {
	reading, ok := in.Readings[types.IndicatorTypeOBV]
	if !ok {
		return NeutralResult("OBV unavailable"), nil
	}

	kind := "confirmation"
	if reading.Strength >= 0.8 {
		kind = "divergence"
	}

	switch reading.Signal {
	case types.DirectionBuy:
		return RuleResult{types.DirectionBuy, reading.Strength, "OBV bullish " + kind}, nil
	case types.DirectionSell:
		return RuleResult{types.DirectionSell, reading.Strength, "OBV bearish " + kind}, nil
	default:
		return NeutralResult("OBV flat"), nil
	}
}

// evaluateVWAPDeviation fades large deviations from VWAP.
func evaluateVWAPDeviation(in RuleInput) (RuleResult, error) {
	values, ok, err := namedReading(in, types.IndicatorTypeVWAP, "deviation")
	if err != nil || !ok {
		return NeutralResult("VWAP unavailable"), err
	}

	deviation := values["deviation"]
	threshold := in.Param("threshold", 0.02)
	confidence := 0.5 + 0.45*math.Min(math.Abs(deviation)/0.05, 1)

	switch {
	case deviation < -threshold:
		return RuleResult{types.DirectionBuy, confidence, fmt.Sprintf("Price %.2f%% below VWAP", -100*deviation)}, nil
	case deviation > threshold:
		return RuleResult{types.DirectionSell, confidence, fmt.Sprintf("Price %.2f%% above VWAP", 100*deviation)}, nil
	default:
		return NeutralResult(fmt.Sprintf("Price near VWAP (%.2f%%)", 100*deviation)), nil
	}
}

// evaluateSessionWindow is a filter: confidence 1 inside [startHour, endHour) UTC
// and 0 outside. The window wraps past midnight when startHour > endHour.
func evaluateSessionWindow(in RuleInput) (RuleResult, error) {
	start := in.Param("startHour", 0)
	end := in.Param("endHour", 24)

	if start < 0 || start > 24 || end < 0 || end > 24 {
		return RuleResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "session window hours %v-%v are outside 0-24", start, end) //nolint:exhaustruct // error path
	}

	t := in.Candle.Time.UTC()
	hour := float64(t.Hour()) + float64(t.Minute())/60

	inside := hour >= start && hour < end
	if start > end {
		inside = hour >= start || hour < end
	}

	if inside {
		return RuleResult{types.DirectionNeutral, 1, fmt.Sprintf("Inside trading hours %02.0f-%02.0f UTC", start, end)}, nil
	}

	return NeutralResult(fmt.Sprintf("Outside trading hours %02.0f-%02.0f UTC", start, end)), nil
}
