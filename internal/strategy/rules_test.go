package strategy

import (
	"testing"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type RulesTestSuite struct {
	suite.Suite
	registry *RuleRegistry
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesTestSuite))
}

func (suite *RulesTestSuite) SetupTest() {
	suite.registry = NewDefaultRuleRegistry()
}

func (suite *RulesTestSuite) evaluate(kind RuleKind, in RuleInput) (RuleResult, error) {
	evaluator, err := suite.registry.Get(kind)
	suite.Require().NoError(err)

	return evaluator.Evaluate(in)
}

func (suite *RulesTestSuite) TestRegistry() {
	suite.Len(suite.registry.Kinds(), 10)

	err := suite.registry.Register(RuleKindRSIExtremes, RuleEvaluatorFunc(evaluateRSIExtremes))
	suite.Equal(errors.ErrCodeRuleAlreadyExists, errors.GetCode(err))

	_, err = suite.registry.Get("unknown")
	suite.Equal(errors.ErrCodeRuleNotFound, errors.GetCode(err))

	suite.registry.Replace(RuleKindRSIExtremes, RuleEvaluatorFunc(func(RuleInput) (RuleResult, error) {
		return RuleResult{Signal: types.DirectionSell, Confidence: 0.1, Reasoning: "replaced"}, nil
	}))

	result, err := suite.evaluate(RuleKindRSIExtremes, RuleInput{})
	suite.NoError(err)
	suite.Equal("replaced", result.Reasoning)
}

func (suite *RulesTestSuite) TestKindIndicators() {
	suite.Equal([]types.IndicatorType{types.IndicatorTypeBollingerBands}, RuleKindBollingerReversion.Indicators())
	suite.Equal([]types.IndicatorType{types.IndicatorTypeVWAP}, RuleKindVWAPDeviation.Indicators())
	suite.Nil(RuleKindVolumeConfirmation.Indicators())
	suite.Nil(RuleKind("custom").Indicators())
}

func (suite *RulesTestSuite) TestRSIExtremes() {
	tests := []struct {
		rsi        float64
		signal     types.Direction
		confidence float64
	}{
		{rsi: 15, signal: types.DirectionBuy, confidence: 0.95},
		{rsi: 25, signal: types.DirectionBuy, confidence: 0.75},
		{rsi: 50, signal: types.DirectionNeutral, confidence: 0},
		{rsi: 75, signal: types.DirectionSell, confidence: 0.75},
		{rsi: 85, signal: types.DirectionSell, confidence: 0.95},
	}

	for _, tc := range tests {
		in := RuleInput{Readings: readingsOf(newScalarReading(types.IndicatorTypeRSI, tc.rsi, types.DirectionNeutral, 0.2))}

		result, err := suite.evaluate(RuleKindRSIExtremes, in)
		suite.NoError(err)
		suite.Equal(tc.signal, result.Signal, "rsi %v", tc.rsi)
		suite.Equal(tc.confidence, result.Confidence, "rsi %v", tc.rsi)
	}
}

func (suite *RulesTestSuite) TestRSIThresholdParams() {
	in := RuleInput{
		Rule:     StrategyRule{Params: map[string]float64{"oversold": 40}},
		Readings: readingsOf(newScalarReading(types.IndicatorTypeRSI, 35, types.DirectionNeutral, 0.2)),
	}

	result, err := suite.evaluate(RuleKindRSIExtremes, in)
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(0.75, result.Confidence)
}

func (suite *RulesTestSuite) TestMissingReadingIsNeutral() {
	for _, kind := range []RuleKind{
		RuleKindRSIExtremes, RuleKindMACDCrossover, RuleKindBollingerReversion, RuleKindEMATrend,
		RuleKindStochasticCross, RuleKindADXTrend, RuleKindOBVDivergence, RuleKindVWAPDeviation,
	} {
		result, err := suite.evaluate(kind, RuleInput{})
		suite.NoError(err, kind)
		suite.Equal(types.DirectionNeutral, result.Signal, kind)
		suite.Zero(result.Confidence, kind)
	}
}

func (suite *RulesTestSuite) TestWrongShapeIsAnError() {
	in := RuleInput{Readings: readingsOf(
		newNamedReading(types.IndicatorTypeRSI, map[string]float64{"k": 1}, types.DirectionNeutral, 0),
		newScalarReading(types.IndicatorTypeMACD, 1, types.DirectionNeutral, 0),
	)}

	_, err := suite.evaluate(RuleKindRSIExtremes, in)
	suite.Equal(errors.ErrCodeRuleEvaluationFailed, errors.GetCode(err))

	_, err = suite.evaluate(RuleKindMACDCrossover, in)
	suite.Equal(errors.ErrCodeRuleEvaluationFailed, errors.GetCode(err))
}

func (suite *RulesTestSuite) TestEMATrend() {
	tests := []struct {
		name       string
		fast       float64
		signal     types.Direction
		confidence float64
	}{
		{name: "small bullish spread", fast: 100.5, signal: types.DirectionBuy, confidence: 0.5},
		{name: "capped bullish spread", fast: 103, signal: types.DirectionBuy, confidence: 0.9},
		{name: "bearish spread", fast: 99.8, signal: types.DirectionSell, confidence: 0.2},
		{name: "converged", fast: 100, signal: types.DirectionNeutral, confidence: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			in := RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeEMA,
				map[string]float64{"fast": tc.fast, "slow": 100}, types.DirectionNeutral, 0))}

			result, err := suite.evaluate(RuleKindEMATrend, in)
			suite.NoError(err)
			suite.Equal(tc.signal, result.Signal)
			suite.InDelta(tc.confidence, result.Confidence, 1e-9)
		})
	}
}

func (suite *RulesTestSuite) TestMACDCrossover() {
	macd := map[string]float64{"macd": 1, "signal": 0.5, "histogram": 0.5}

	result, err := suite.evaluate(RuleKindMACDCrossover, RuleInput{Readings: readingsOf(
		newNamedReading(types.IndicatorTypeMACD, macd, types.DirectionBuy, 0.5))})
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.InDelta(0.75, result.Confidence, 1e-9)

	result, err = suite.evaluate(RuleKindMACDCrossover, RuleInput{Readings: readingsOf(
		newNamedReading(types.IndicatorTypeMACD, macd, types.DirectionNeutral, 0.25))})
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(0.5, result.Confidence)
}

func (suite *RulesTestSuite) TestBollingerReversion() {
	tests := []struct {
		position   float64
		signal     types.Direction
		confidence float64
	}{
		{position: -0.2, signal: types.DirectionBuy, confidence: 0.9},
		{position: 0.05, signal: types.DirectionBuy, confidence: 0.75},
		{position: 0.5, signal: types.DirectionNeutral, confidence: 0},
		{position: 0.95, signal: types.DirectionSell, confidence: 0.75},
		{position: 1.3, signal: types.DirectionSell, confidence: 0.9},
	}

	for _, tc := range tests {
		in := RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeBollingerBands,
			map[string]float64{"position": tc.position, "width": 0.15}, types.DirectionNeutral, 0))}

		result, err := suite.evaluate(RuleKindBollingerReversion, in)
		suite.NoError(err)
		suite.Equal(tc.signal, result.Signal, "position %v", tc.position)
		suite.Equal(tc.confidence, result.Confidence, "position %v", tc.position)
	}
}

func (suite *RulesTestSuite) TestBollingerBandRegimes() {
	tests := []struct {
		name       string
		values     map[string]float64
		signal     types.Direction
		confidence float64
		reasoning  string
	}{
		{
			name:       "squeeze flag raises an edge touch",
			values:     map[string]float64{"position": 0.05, "width": 0.05, "squeeze": 1, "expansion": 0},
			signal:     types.DirectionBuy,
			confidence: 0.8,
			reasoning:  "bands squeezed",
		},
		{
			name:       "squeeze derived from width",
			values:     map[string]float64{"position": 1.2, "width": 0.08},
			signal:     types.DirectionSell,
			confidence: 0.95,
			reasoning:  "bands squeezed",
		},
		{
			name:       "close outside expanding bands",
			values:     map[string]float64{"position": -0.3, "width": 0.5, "squeeze": 0, "expansion": 1},
			signal:     types.DirectionBuy,
			confidence: 0.7,
			reasoning:  "possible breakout",
		},
		{
			name:       "edge touch inside expanding bands",
			values:     map[string]float64{"position": 0.95, "width": 0.3, "squeeze": 0, "expansion": 1},
			signal:     types.DirectionSell,
			confidence: 0.75,
			reasoning:  "at upper",
		},
		{
			name:       "flags win over width",
			values:     map[string]float64{"position": 0.05, "width": 0.05, "squeeze": 0, "expansion": 0},
			signal:     types.DirectionBuy,
			confidence: 0.75,
			reasoning:  "at lower",
		},
		{
			name:       "inside expanding bands",
			values:     map[string]float64{"position": 0.5, "width": 0.4},
			signal:     types.DirectionNeutral,
			confidence: 0,
			reasoning:  "bands in expansion",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			in := RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeBollingerBands, tc.values, types.DirectionNeutral, 0))}

			result, err := suite.evaluate(RuleKindBollingerReversion, in)
			suite.NoError(err)
			suite.Equal(tc.signal, result.Signal)
			suite.InDelta(tc.confidence, result.Confidence, 1e-9)
			suite.Contains(result.Reasoning, tc.reasoning)
		})
	}
}

func (suite *RulesTestSuite) TestStochasticCross() {
	result, err := suite.evaluate(RuleKindStochasticCross, RuleInput{Readings: readingsOf(
		newNamedReading(types.IndicatorTypeStochastic, map[string]float64{"k": 15, "d": 10}, types.DirectionBuy, 0.9))})
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(0.8, result.Confidence)

	result, err = suite.evaluate(RuleKindStochasticCross, RuleInput{Readings: readingsOf(
		newNamedReading(types.IndicatorTypeStochastic, map[string]float64{"k": 85, "d": 80}, types.DirectionSell, 0.7))})
	suite.NoError(err)
	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(0.6, result.Confidence)
}

func (suite *RulesTestSuite) TestADXTrend() {
	result, err := suite.evaluate(RuleKindADXTrend, RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeADX,
		map[string]float64{"adx": 40, "plus_di": 30, "minus_di": 10}, types.DirectionBuy, 0.8))})
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.InDelta(0.8, result.Confidence, 1e-9)

	result, err = suite.evaluate(RuleKindADXTrend, RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeADX,
		map[string]float64{"adx": 90, "plus_di": 10, "minus_di": 30}, types.DirectionSell, 1))})
	suite.NoError(err)
	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(0.95, result.Confidence)

	result, err = suite.evaluate(RuleKindADXTrend, RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeADX,
		map[string]float64{"adx": 20, "plus_di": 30, "minus_di": 10}, types.DirectionNeutral, 0.4))})
	suite.NoError(err)
	suite.Equal(types.DirectionNeutral, result.Signal)
}

func (suite *RulesTestSuite) TestVolumeConfirmation() {
	history := flatCandles(20, 100)
	candle := types.Candle{
		Symbol: "BTCUSDT",
		Time:   testStart.Add(20 * time.Minute),
		Open:   100,
		High:   102,
		Low:    99,
		Close:  101,
		Volume: 1600,
	}

	in := RuleInput{Candle: candle, Context: StrategyContext{Candles: append(history, candle)}}

	result, err := suite.evaluate(RuleKindVolumeConfirmation, in)
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.Equal(0.8, result.Confidence)

	in.Candle.Volume = 1250
	in.Candle.Close = 99.5
	in.Candle.Low = 99

	result, err = suite.evaluate(RuleKindVolumeConfirmation, in)
	suite.NoError(err)
	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(0.65, result.Confidence)

	result, err = suite.evaluate(RuleKindVolumeConfirmation, RuleInput{Candle: candle})
	suite.NoError(err)
	suite.Equal(types.DirectionNeutral, result.Signal)
}

func (suite *RulesTestSuite) TestOBVDivergence() {
	result, err := suite.evaluate(RuleKindOBVDivergence, RuleInput{Readings: readingsOf(
		newScalarReading(types.IndicatorTypeOBV, 1000, types.DirectionSell, 0.8))})
	suite.NoError(err)
	suite.Equal(types.DirectionSell, result.Signal)
	suite.Equal(0.8, result.Confidence)
	suite.Contains(result.Reasoning, "divergence")
}

func (suite *RulesTestSuite) TestVWAPDeviation() {
	in := RuleInput{Readings: readingsOf(newNamedReading(types.IndicatorTypeVWAP,
		map[string]float64{"vwap": 100, "deviation": -0.05}, types.DirectionBuy, 1))}

	result, err := suite.evaluate(RuleKindVWAPDeviation, in)
	suite.NoError(err)
	suite.Equal(types.DirectionBuy, result.Signal)
	suite.InDelta(0.95, result.Confidence, 1e-9)

	in.Readings = readingsOf(newNamedReading(types.IndicatorTypeVWAP,
		map[string]float64{"vwap": 100, "deviation": 0.01}, types.DirectionNeutral, 0.2))

	result, err = suite.evaluate(RuleKindVWAPDeviation, in)
	suite.NoError(err)
	suite.Equal(types.DirectionNeutral, result.Signal)
}

func (suite *RulesTestSuite) TestSessionWindow() {
	at := func(hour int) types.Candle {
		return types.Candle{Time: time.Date(2024, 1, 1, hour, 30, 0, 0, time.UTC)}
	}

	day := StrategyRule{Params: map[string]float64{"startHour": 8, "endHour": 16}}
	night := StrategyRule{Params: map[string]float64{"startHour": 22, "endHour": 2}}

	tests := []struct {
		name       string
		rule       StrategyRule
		hour       int
		confidence float64
	}{
		{name: "inside day window", rule: day, hour: 10, confidence: 1},
		{name: "outside day window", rule: day, hour: 20, confidence: 0},
		{name: "inside wrapped window", rule: night, hour: 23, confidence: 1},
		{name: "inside wrapped window after midnight", rule: night, hour: 1, confidence: 1},
		{name: "outside wrapped window", rule: night, hour: 12, confidence: 0},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			result, err := suite.evaluate(RuleKindSessionWindow, RuleInput{Rule: tc.rule, Candle: at(tc.hour)})
			suite.NoError(err)
			suite.Equal(tc.confidence, result.Confidence)
		})
	}

	_, err := suite.evaluate(RuleKindSessionWindow, RuleInput{
		Rule:   StrategyRule{Params: map[string]float64{"startHour": -1}},
		Candle: at(1),
	})
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
}
