package engine

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/mocks"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

type EngineTestSuite struct {
	suite.Suite
	metrics *metrics.Metrics
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

func (suite *EngineTestSuite) SetupTest() {
	suite.metrics = metrics.NewMetrics(nil)
}

func (suite *EngineTestSuite) newEngine(config strategy.StrategyConfig, opts ...Option) *Engine {
	opts = append([]Option{
		WithStrategy(config),
		WithRuleRegistry(testRegistry()),
		WithMetrics(suite.metrics),
		WithClock(fixedClock(testStart)),
	}, opts...)

	e, err := New(opts...)
	suite.Require().NoError(err)
	suite.T().Cleanup(func() { _ = e.Close() })

	return e
}

// feed sends one candle and one RSI reading and flushes.
func (suite *EngineTestSuite) feed(e *Engine, minute int, price float64) Result {
	candle := testCandle(minute, price)
	suite.Require().NoError(e.UpdateCandle(candle))
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, candle.Time)))

	result, err := e.Flush()
	suite.Require().NoError(err)

	return result
}

func (suite *EngineTestSuite) TestHourlyLimit() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))

	published, suppressed := 0, 0

	for i := range 10 {
		result := suite.feed(e, i, 100)
		suite.True(result.Evaluated)
		suite.Equal(types.SignalTypeLong, result.Signal.Type)

		if result.Published {
			published++
		} else {
			suppressed++
			suite.Equal(strategy.SuppressedHourlyLimit, result.Reason)
		}
	}

	suite.Equal(3, published)
	suite.Equal(7, suppressed)
	suite.Len(e.Signals(), 3)
	suite.Len(e.SignalHistory(), 3)

	performance := e.Performance()
	suite.Equal(10, performance.TotalSignals)
	suite.Equal(10, performance.LongSignals)
	suite.Equal(3, performance.PublishedSignals)
	suite.Equal(7, performance.SuppressedSignals)
	suite.InDelta(0.9, performance.AverageConfidence, 1e-9)
	suite.Equal("Test Strategy", performance.StrategyName)

	suite.Equal(3.0, testutil.ToFloat64(suite.metrics.SignalsPublished.WithLabelValues("LONG")))
	suite.Equal(7.0, testutil.ToFloat64(suite.metrics.SignalsSuppressed.WithLabelValues("LONG", strategy.SuppressedHourlyLimit)))
	suite.Equal(10.0, testutil.ToFloat64(suite.metrics.Evaluations))
}

func (suite *EngineTestSuite) TestPublishedSignal() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)), WithTimeframe("1m"))

	result := suite.feed(e, 10*60, 100)
	suite.Require().True(result.Published)

	signal := <-e.Signals()
	suite.Equal(result.Signal, signal)
	suite.NotEmpty(signal.ID)
	suite.Equal(types.SignalTypeLong, signal.Type)
	suite.Equal(types.SignalStrengthStrong, signal.Strength)
	suite.InDelta(0.9, signal.Confidence, 1e-9)
	suite.Equal(100.0, signal.Price)
	suite.Equal(testStart.Add(10*time.Hour), signal.Timestamp)
	suite.Equal([]string{"always long"}, signal.Reasoning)
	suite.Require().Len(signal.Indicators, 1)
	suite.Equal(types.IndicatorTypeRSI, signal.Indicators[0].Name)

	metadata := signal.Metadata
	suite.Equal("BTCUSDT", metadata.Symbol)
	suite.Equal("1m", metadata.Timeframe)
	suite.Equal("Test Strategy", metadata.StrategyName)
	suite.Equal([]string{"long"}, metadata.EntryConditions)
	suite.Equal(types.TradingSessionOverlap, metadata.Session)
	suite.Equal(types.MarketConditionUnknown, metadata.MarketCondition)
	suite.Require().NotNil(metadata.StopLoss)
	suite.Require().NotNil(metadata.TakeProfit)
	suite.Require().NotNil(metadata.RiskReward)
	suite.InDelta(98, *metadata.StopLoss, 1e-9)
	suite.InDelta(104, *metadata.TakeProfit, 1e-9)
	suite.InDelta(2, *metadata.RiskReward, 1e-9)
}

func (suite *EngineTestSuite) TestHoldCooldown() {
	config := testConfig(testRule("quiet", kindNeutral, strategy.RuleCategoryEntry, 1))
	config.MaxSignalsPerHour = 0
	e := suite.newEngine(config)

	first := suite.feed(e, 0, 100)
	suite.True(first.Published)
	suite.Equal(types.SignalTypeHold, first.Signal.Type)
	suite.Nil(first.Signal.Metadata.StopLoss)
	suite.Empty(first.Signal.Metadata.EntryConditions)

	second := suite.feed(e, 1, 100)
	suite.False(second.Published)
	suite.Equal(strategy.SuppressedHoldCooldown, second.Reason)
	suite.Equal(2, e.Performance().HoldSignals)
}

func (suite *EngineTestSuite) TestCandleClock() {
	config := testConfig(testRule("quiet", kindNeutral, strategy.RuleCategoryEntry, 1))
	config.MaxSignalsPerHour = 2
	e := suite.newEngine(config, WithCandleClock())

	// one minute apart clears the HOLD cooldown
	suite.True(suite.feed(e, 0, 100).Published)
	suite.True(suite.feed(e, 1, 100).Published)
	suite.False(suite.feed(e, 2, 100).Published)
	// an hour of candle time later the counter has reset
	suite.True(suite.feed(e, 61, 100).Published)
}

func (suite *EngineTestSuite) TestRuleFailureIsolation() {
	ctrl := gomock.NewController(suite.T())

	flaky := mocks.NewMockRuleEvaluator(ctrl)
	flaky.EXPECT().Evaluate(gomock.Any()).Return(strategy.RuleResult{}, fmt.Errorf("indicator feed broke")).Times(1)

	registry := testRegistry()
	registry.Replace(kindFlaky, flaky)

	var failures []error

	e := suite.newEngine(
		testConfig(
			testRule("flaky", kindFlaky, strategy.RuleCategoryEntry, 0.5),
			testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 0.5),
		),
		WithRuleRegistry(registry),
		WithCallbacks(Callbacks{OnSignal: nil, OnSuppressed: nil, OnError: func(err error) { failures = append(failures, err) }}),
	)

	result := suite.feed(e, 0, 100)
	suite.True(result.Published)
	suite.Equal(types.SignalTypeLong, result.Signal.Type)
	suite.InDelta(0.9, result.Signal.Confidence, 1e-9)

	suite.Require().Len(failures, 1)
	suite.True(errors.HasCode(failures[0], errors.ErrCodeRuleEvaluationFailed))
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.RuleFailures.WithLabelValues("flaky")))
}

func (suite *EngineTestSuite) TestMissingRequiredIndicator() {
	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.RequiredIndicators = []types.IndicatorType{types.IndicatorTypeRSI, types.IndicatorTypeMACD}
	e := suite.newEngine(config)

	result := suite.feed(e, 0, 100)
	suite.False(result.Evaluated)
	suite.Contains(result.Reason, "macd")
	suite.Zero(e.Performance().TotalSignals)
	suite.Empty(e.Signals())
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.MissingIndicators))
}

func (suite *EngineTestSuite) TestFilters() {
	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.Filters.TimeFilters = []string{"00:00-01:00"}
	e := suite.newEngine(config)

	result := suite.feed(e, 10*60, 100)
	suite.False(result.Evaluated)
	suite.Contains(result.Reason, "time filter")
	suite.Equal(1.0, testutil.ToFloat64(suite.metrics.FilterRejections.WithLabelValues(strategy.FilterTime)))

	suite.True(suite.feed(e, 30, 100).Evaluated)
}

func (suite *EngineTestSuite) TestFilterRule() {
	e := suite.newEngine(testConfig(
		testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1),
		testRule("gate", kindGate, strategy.RuleCategoryFilter, 0),
	))

	result := suite.feed(e, 0, 100)
	suite.False(result.Evaluated)
	suite.Equal("rule filter: gate: gate closed", result.Reason)

	suite.Require().NoError(e.SetStrategy(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))))
	suite.True(suite.feed(e, 1, 100).Published)
}

func (suite *EngineTestSuite) TestPendingBatch() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))

	result, err := e.Flush()
	suite.Require().NoError(err)
	suite.Equal(ReasonNotPending, result.Reason)

	suite.Require().NoError(e.UpdateCandle(testCandle(0, 100)))
	result, err = e.Flush()
	suite.Require().NoError(err)
	suite.Equal(ReasonNotPending, result.Reason)

	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, testStart)))
	result, err = e.Flush()
	suite.Require().NoError(err)
	suite.True(result.Evaluated)

	// a reading alone does not re-evaluate the same candle
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(30, testStart)))
	result, err = e.Flush()
	suite.Require().NoError(err)
	suite.False(result.Evaluated)
}

func (suite *EngineTestSuite) TestIdleWithoutStrategy() {
	e, err := New(WithMetrics(suite.metrics))
	suite.Require().NoError(err)
	defer e.Close()

	suite.Require().NoError(e.UpdateCandle(testCandle(0, 100)))
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, testStart)))

	result, err := e.Flush()
	suite.Require().NoError(err)
	suite.Equal(ReasonNoStrategy, result.Reason)

	_, err = e.Config()
	suite.Equal(errors.ErrCodeStrategyNotSet, errors.GetCode(err))
}

func (suite *EngineTestSuite) TestInvalidStrategy() {
	config := testConfig()

	_, err := New(WithStrategy(config))
	suite.Equal(errors.ErrCodeInvalidConfiguration, errors.GetCode(err))

	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))
	config = testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.Version = "one"
	suite.Equal(errors.ErrCodeInvalidVersion, errors.GetCode(e.SetStrategy(config)))
}

func (suite *EngineTestSuite) TestRejectsMalformedInput() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))

	candle := testCandle(0, 100)
	candle.Close = math.NaN()
	err := e.UpdateCandle(candle)
	suite.Equal(errors.ErrCodeInvalidCandle, errors.GetCode(err))

	candle = testCandle(0, 100)
	candle.High = 90
	suite.Equal(errors.ErrCodeInvalidCandle, errors.GetCode(e.UpdateCandle(candle)))
	suite.Empty(e.Context().Candles)

	reading := rsiReading(25, testStart)
	reading.Strength = 1.5
	suite.Equal(errors.ErrCodeInvalidReading, errors.GetCode(e.UpdateIndicatorReading(reading)))

	reading = rsiReading(math.Inf(1), testStart)
	suite.Equal(errors.ErrCodeInvalidReading, errors.GetCode(e.UpdateIndicatorReading(reading)))
	suite.Empty(e.Readings())

	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.RejectedInputs.WithLabelValues("candle")))
	suite.Equal(2.0, testutil.ToFloat64(suite.metrics.RejectedInputs.WithLabelValues("reading")))
}

func (suite *EngineTestSuite) TestBoundedHistories() {
	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.MaxSignalsPerHour = 0
	e := suite.newEngine(config, WithWindowSize(5), WithSignalHistorySize(2))

	for i := range 8 {
		suite.True(suite.feed(e, i, 100+float64(i)).Published)
	}

	ctx := e.Context()
	suite.Len(ctx.Candles, 5)
	suite.Equal(testStart.Add(3*time.Minute), ctx.Candles[0].Time)
	suite.Equal(types.TradingSessionAsian, ctx.Session)
	suite.Equal("BTCUSDT", ctx.Symbol)

	history := e.SignalHistory()
	suite.Require().Len(history, 2)
	suite.Equal(106.0, history[0].Price)
	suite.Equal(107.0, history[1].Price)
	suite.Len(ctx.Signals, 2)
}

func (suite *EngineTestSuite) TestSetStrategyResets() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))

	for i := range 4 {
		suite.feed(e, i, 100)
	}

	suite.Equal(4, e.Performance().TotalSignals)

	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.Name = "Swapped"
	suite.Require().NoError(e.SetStrategy(config))

	performance := e.Performance()
	suite.Zero(performance.TotalSignals)
	suite.Equal("Swapped", performance.StrategyName)
	suite.Empty(e.SignalHistory())
	suite.Len(e.Context().Candles, 4)
	suite.Len(e.Readings(), 1)

	// the limiter was reset as well
	suite.True(suite.feed(e, 4, 100).Published)
}

func (suite *EngineTestSuite) TestRuleEditsKeepState() {
	e := suite.newEngine(testConfig(
		testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1),
		testRule("quiet", kindNeutral, strategy.RuleCategoryEntry, 0.5),
	))

	for i := range 3 {
		suite.True(suite.feed(e, i, 100).Published)
	}

	suite.Require().NoError(e.SetRuleEnabled("long", false))

	config, err := e.Config()
	suite.Require().NoError(err)
	suite.False(config.Rules[0].Enabled)

	result := suite.feed(e, 3, 100)
	suite.Equal(types.SignalTypeHold, result.Signal.Type)
	suite.Equal(strategy.SuppressedHourlyLimit, result.Reason)

	suite.Require().NoError(e.SetRuleEnabled("long", true))
	suite.Require().NoError(e.SetRuleWeight("long", 0.4))

	config, err = e.Config()
	suite.Require().NoError(err)
	suite.True(config.Rules[0].Enabled)
	suite.Equal(0.4, config.Rules[0].Weight)

	// the limiter kept its count across the edits
	result = suite.feed(e, 4, 100)
	suite.Equal(types.SignalTypeLong, result.Signal.Type)
	suite.False(result.Published)
	suite.Equal(strategy.SuppressedHourlyLimit, result.Reason)

	performance := e.Performance()
	suite.Equal(5, performance.TotalSignals)
	suite.Equal(3, performance.PublishedSignals)
	suite.Equal("Test Strategy", performance.StrategyName)
	suite.Len(e.SignalHistory(), 3)
}

func (suite *EngineTestSuite) TestRuleEditErrors() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))

	suite.Equal(errors.ErrCodeRuleNotFound, errors.GetCode(e.SetRuleEnabled("missing", false)))
	suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(e.SetRuleWeight("long", 1.5)))

	config, err := e.Config()
	suite.Require().NoError(err)
	suite.Equal(1.0, config.Rules[0].Weight)

	idle, err := New(WithMetrics(suite.metrics))
	suite.Require().NoError(err)
	defer idle.Close()

	suite.Equal(errors.ErrCodeStrategyNotSet, errors.GetCode(idle.SetRuleEnabled("long", true)))

	suite.Require().NoError(e.Close())
	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(e.SetRuleWeight("long", 0.5)))
}

func (suite *EngineTestSuite) TestSignalCarriesReferencedReadings() {
	registry := testRegistry()
	registry.Replace(strategy.RuleKindMACDCrossover, fixedRule(types.DirectionBuy, 0.8, "macd up"))
	registry.Replace(strategy.RuleKindVWAPDeviation, fixedRule(types.DirectionSell, 0.3, "vwap stretched"))

	e := suite.newEngine(testConfig(
		testRule("macd", strategy.RuleKindMACDCrossover, strategy.RuleCategoryEntry, 1),
		testRule("vwap", strategy.RuleKindVWAPDeviation, strategy.RuleCategoryEntry, 1),
	), WithRuleRegistry(registry))

	candle := testCandle(0, 100)
	suite.Require().NoError(e.UpdateCandle(candle))
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, candle.Time)))

	for _, name := range []types.IndicatorType{types.IndicatorTypeMACD, types.IndicatorTypeVWAP, types.IndicatorTypeADX} {
		reading := rsiReading(1, candle.Time)
		reading.Name = name
		suite.Require().NoError(e.UpdateIndicatorReading(reading))
	}

	result, err := e.Flush()
	suite.Require().NoError(err)
	suite.Equal(types.SignalTypeLong, result.Signal.Type)

	names := make([]types.IndicatorType, 0, len(result.Signal.Indicators))
	for _, reading := range result.Signal.Indicators {
		names = append(names, reading.Name)
	}

	// required rsi plus the macd rule that voted long; vwap voted the other way
	suite.Equal([]types.IndicatorType{types.IndicatorTypeMACD, types.IndicatorTypeRSI}, names)
	suite.Len(e.Readings(), 4)
}

func (suite *EngineTestSuite) TestAccessorsReturnCopies() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))
	suite.feed(e, 0, 100)

	readings := e.Readings()
	reading := readings[types.IndicatorTypeRSI]
	reading.Strength = 0
	readings[types.IndicatorTypeRSI] = reading
	suite.Equal(0.8, e.Readings()[types.IndicatorTypeRSI].Strength)

	config, err := e.Config()
	suite.Require().NoError(err)
	config.Rules[0].Weight = 0
	config.Parameters[strategy.ParamStopLossPercent] = 0.5

	config, err = e.Config()
	suite.Require().NoError(err)
	suite.Equal(1.0, config.Rules[0].Weight)
	suite.Equal(0.02, config.Parameters[strategy.ParamStopLossPercent])

	history := e.SignalHistory()
	history[0].Reasoning[0] = "changed"
	suite.Equal("always long", e.SignalHistory()[0].Reasoning[0])

	ctx := e.Context()
	ctx.Candles[0].Close = 1
	suite.Equal(100.0, e.Context().Candles[0].Close)
}

func (suite *EngineTestSuite) TestCallbacks() {
	var (
		published  []types.StrategySignal
		suppressed []string
	)

	e := suite.newEngine(
		testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)),
		WithCallbacks(Callbacks{
			OnSignal:     func(signal types.StrategySignal) { published = append(published, signal) },
			OnSuppressed: func(_ types.StrategySignal, reason string) { suppressed = append(suppressed, reason) },
			OnError:      nil,
		}),
	)

	for i := range 4 {
		suite.feed(e, i, 100)
	}

	suite.Len(published, 3)
	suite.Equal([]string{strategy.SuppressedHourlyLimit}, suppressed)
}

func (suite *EngineTestSuite) TestFullChannelKeepsHistory() {
	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.MaxSignalsPerHour = 0
	e := suite.newEngine(config, WithBufferSize(1))

	suite.True(suite.feed(e, 0, 100).Published)
	suite.True(suite.feed(e, 1, 100).Published)

	suite.Len(e.Signals(), 1)
	suite.Len(e.SignalHistory(), 2)
}

func (suite *EngineTestSuite) TestClose() {
	e, err := New(WithStrategy(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))), WithRuleRegistry(testRegistry()))
	suite.Require().NoError(err)

	suite.Require().NoError(e.UpdateCandle(testCandle(0, 100)))
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, testStart)))
	_, err = e.Flush()
	suite.Require().NoError(err)

	suite.NoError(e.Close())
	suite.NoError(e.Close())

	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(e.UpdateCandle(testCandle(1, 100))))
	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(e.UpdateIndicatorReading(rsiReading(25, testStart))))
	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(e.SetStrategy(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)))))

	_, err = e.Flush()
	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(err))

	_, err = e.Config()
	suite.Equal(errors.ErrCodeEngineClosed, errors.GetCode(err))

	delivered := 0
	for range e.Signals() {
		delivered++
	}

	suite.Equal(1, delivered)
	suite.Empty(e.Readings())
	suite.Empty(e.SignalHistory())
	suite.NoError(e.Run(context.Background()))
}

func (suite *EngineTestSuite) TestRunDebounces() {
	e := suite.newEngine(testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1)), WithDebounce(10*time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- e.Run(ctx) }()

	suite.Require().NoError(e.UpdateCandle(testCandle(0, 100)))
	suite.Require().NoError(e.UpdateIndicatorReading(rsiReading(25, testStart)))

	select {
	case signal := <-e.Signals():
		suite.Equal(types.SignalTypeLong, signal.Type)
	case <-time.After(2 * time.Second):
		suite.Fail("no signal published by Run")
	}

	cancel()
	suite.ErrorIs(<-done, context.Canceled)
	suite.Equal(1, e.Performance().TotalSignals)
}

func (suite *EngineTestSuite) TestComputedIndicators() {
	ctrl := gomock.NewController(suite.T())

	custom := mocks.NewMockIndicator(ctrl)
	custom.EXPECT().Name().Return(types.IndicatorType("custom")).AnyTimes()
	custom.EXPECT().Calculate(gomock.Any()).DoAndReturn(func(series indicator.Series) ([]types.IndicatorResult, error) {
		last := series.Len() - 1

		return []types.IndicatorResult{{
			Index:    last,
			Time:     series.Time[last],
			Value:    types.Scalar(float64(series.Len())),
			Signal:   types.DirectionBuy,
			Strength: 0.5,
		}}, nil
	}).Times(60)

	registry := indicator.NewIndicatorRegistry()
	suite.Require().NoError(registry.RegisterIndicator(custom))

	config := testConfig(testRule("long", kindAlwaysLong, strategy.RuleCategoryEntry, 1))
	config.RequiredIndicators = []types.IndicatorType{types.IndicatorTypeRSI, types.IndicatorTypeMACD, "custom"}
	e := suite.newEngine(config, WithAutoIndicators(indicator.DefaultConfig()), WithIndicators(registry))

	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + 5*math.Sin(float64(i)/4)
	}

	evaluated := 0

	for _, candle := range mocks.GenerateFromCloses("BTCUSDT", testStart, time.Minute, closes, 0.002, 100) {
		suite.Require().NoError(e.UpdateCandle(candle))

		result, err := e.Flush()
		suite.Require().NoError(err)

		if result.Evaluated {
			evaluated++
		}
	}

	// the aggregator needs 50 bars
	suite.Equal(11, evaluated)

	readings := e.Readings()
	suite.Contains(readings, types.IndicatorTypeRSI)
	suite.Contains(readings, types.IndicatorTypeADX)
	suite.Contains(readings, types.IndicatorTypeOBV)

	value, ok := readings["custom"].Value.Scalar()
	suite.True(ok)
	suite.Equal(60.0, value)
}

func (suite *EngineTestSuite) TestReplayIsDeterministic() {
	config := strategy.MultiIndicatorConfluence()
	config.Filters = strategy.Filters{TimeFilters: []string{}, VolatilityFilter: false, TrendFilter: false, VolumeFilter: false}

	data, err := config.Marshal()
	suite.Require().NoError(err)

	reloaded, err := strategy.ParseConfig(data)
	suite.Require().NoError(err)

	generator := mocks.DefaultGeneratorConfig()
	generator.Volatility = 0.01
	candles := mocks.NewCandleGenerator(7).Generate(generator)

	first := suite.replay(config, candles)
	second := suite.replay(reloaded, candles)

	suite.Len(first, 151)
	suite.Equal(first, second)
}

func (suite *EngineTestSuite) replay(config strategy.StrategyConfig, candles []types.Candle) []Result {
	e, err := New(WithStrategy(config), WithAutoIndicators(indicator.DefaultConfig()), WithCandleClock())
	suite.Require().NoError(err)

	defer e.Close()

	results := []Result{}

	for _, candle := range candles {
		suite.Require().NoError(e.UpdateCandle(candle))

		result, err := e.Flush()
		suite.Require().NoError(err)

		if result.Evaluated {
			result.Signal.ID = ""
			results = append(results, result)
		}
	}

	return results
}
