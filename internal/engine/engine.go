package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

// Engine is the strategy evaluation pipeline. It owns the candle history, the
// latest indicator readings and the signal history of one strategy instance;
// every mutation happens under a single lock.
//
// The engine is idle until a strategy is set. Candles and readings are buffered
// and evaluated together by Flush, or by Run once updates have settled for the
// debounce interval.
type Engine struct {
	mu sync.Mutex

	config      *strategy.StrategyConfig
	evaluator   *strategy.Evaluator
	limiter     *strategy.RateLimiter
	performance *strategy.PerformanceTracker
	aggregator  *indicator.Aggregator

	candles  []types.Candle
	readings map[types.IndicatorType]types.IndicatorReading
	signals  []types.StrategySignal
	context  strategy.StrategyContext

	freshCandle bool
	lastUpdate  time.Time

	out    chan types.StrategySignal
	done   chan struct{}
	closed bool

	// options
	pendingConfig    *strategy.StrategyConfig
	aggregatorConfig *indicator.Config
	indicators       indicator.IndicatorRegistry
	rules            *strategy.RuleRegistry
	logger           *logger.Logger
	metrics          *metrics.Metrics
	clock            strategy.Clock
	callbacks        Callbacks
	timeframe        string
	windowSize       int
	historySize      int
	debounce         time.Duration
	bufferSize       int
}

// New creates an engine. When WithStrategy is given the strategy is validated
// and the engine starts evaluating immediately.
func New(opts ...Option) (*Engine, error) {
	e := &Engine{
		mu:               sync.Mutex{},
		config:           nil,
		evaluator:        nil,
		limiter:          nil,
		performance:      nil,
		aggregator:       nil,
		candles:          nil,
		readings:         make(map[types.IndicatorType]types.IndicatorReading),
		signals:          nil,
		context:          strategy.StrategyContext{}, //nolint:exhaustruct // filled on the first candle
		freshCandle:      false,
		lastUpdate:       time.Time{},
		out:              nil,
		done:             make(chan struct{}),
		closed:           false,
		pendingConfig:    nil,
		aggregatorConfig: nil,
		indicators:       nil,
		rules:            nil,
		logger:           nil,
		metrics:          nil,
		clock:            time.Now,
		callbacks:        Callbacks{OnSignal: nil, OnSuppressed: nil, OnError: nil},
		timeframe:        "",
		windowSize:       DefaultWindowSize,
		historySize:      DefaultSignalHistorySize,
		debounce:         DefaultDebounce,
		bufferSize:       DefaultBufferSize,
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.logger == nil {
		e.logger = logger.NewNopLogger()
	}

	if e.metrics == nil {
		e.metrics = metrics.NewMetrics(nil)
	}

	if e.rules == nil {
		e.rules = strategy.NewDefaultRuleRegistry()
	}

	if e.windowSize <= 0 {
		e.windowSize = DefaultWindowSize
	}

	if e.historySize <= 0 {
		e.historySize = DefaultSignalHistorySize
	}

	if e.debounce <= 0 {
		e.debounce = DefaultDebounce
	}

	if e.bufferSize < 0 {
		e.bufferSize = DefaultBufferSize
	}

	e.out = make(chan types.StrategySignal, e.bufferSize)
	e.context.Timeframe = e.timeframe
	e.evaluator = strategy.NewEvaluator(e.rules, e.logger, e.onRuleError)
	e.limiter = strategy.NewRateLimiter(0, e.clock)
	e.performance = strategy.NewPerformanceTracker("")

	if e.aggregatorConfig != nil {
		e.aggregator = indicator.NewAggregator(*e.aggregatorConfig, e.logger)
	}

	if e.pendingConfig != nil {
		if err := e.pendingConfig.Validate(); err != nil {
			return nil, err
		}

		e.setStrategy(*e.pendingConfig)
		e.pendingConfig = nil
	}

	return e, nil
}

// SetStrategy swaps the active strategy. Performance counters, the emission
// limiter and the signal history are reset; candle history and readings are kept.
func (e *Engine) SetStrategy(config strategy.StrategyConfig) error {
	clone := config.Clone()
	if err := clone.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed()
	}

	e.setStrategy(clone)

	return nil
}

func (e *Engine) setStrategy(config strategy.StrategyConfig) {
	e.config = &config
	e.limiter.Reset(config.MaxSignalsPerHour)
	e.performance.Reset(config.Name)
	e.signals = nil
	e.context.Signals = nil

	e.logger.Info("Strategy set",
		zap.String("name", config.Name),
		zap.String("version", config.Version),
		zap.Int("rules", len(config.Rules)),
	)
}

// SetRuleEnabled toggles a rule of the active strategy. Unlike SetStrategy it
// keeps the limiter, performance counters and signal history.
func (e *Engine) SetRuleEnabled(id string, enabled bool) error {
	return e.editStrategy(func(config *strategy.StrategyConfig) error {
		return config.SetRuleEnabled(id, enabled)
	})
}

// SetRuleWeight reweights a rule of the active strategy, keeping the rest of the
// engine state. The weight must lie in [0,1].
func (e *Engine) SetRuleWeight(id string, weight float64) error {
	return e.editStrategy(func(config *strategy.StrategyConfig) error {
		return config.SetRuleWeight(id, weight)
	})
}

// editStrategy applies edit to a copy of the active strategy and installs the
// copy only when the edit succeeds.
func (e *Engine) editStrategy(edit func(config *strategy.StrategyConfig) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed()
	}

	if e.config == nil {
		return errors.New(errors.ErrCodeStrategyNotSet, "no strategy is set")
	}

	config := e.config.Clone()
	if err := edit(&config); err != nil {
		return err
	}

	e.config = &config

	e.logger.Info("Strategy edited", zap.String("name", config.Name))

	return nil
}

// UpdateCandle appends a candle to the history. Malformed candles are rejected
// with ErrCodeInvalidCandle and leave the state untouched.
func (e *Engine) UpdateCandle(candle types.Candle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed()
	}

	if err := candle.Validate(); err != nil {
		e.metrics.RejectedInputs.WithLabelValues("candle").Inc()

		return err
	}

	e.candles = append(e.candles, candle)
	if over := len(e.candles) - e.windowSize; over > 0 {
		e.candles = e.candles[over:]
	}

	e.context.Symbol = candle.Symbol
	e.context.Candles = e.candles
	e.context.MarketCondition = strategy.ClassifyMarketCondition(e.candles)
	e.context.Session = strategy.ClassifySession(candle.Time)

	e.freshCandle = true
	e.lastUpdate = time.Now()
	e.metrics.CandlesIngested.Inc()

	e.computeIndicators()

	return nil
}

// UpdateIndicatorReading replaces the latest reading of an indicator. Malformed
// readings are rejected with ErrCodeInvalidReading.
func (e *Engine) UpdateIndicatorReading(reading types.IndicatorReading) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return errClosed()
	}

	if err := reading.Validate(); err != nil {
		e.metrics.RejectedInputs.WithLabelValues("reading").Inc()

		return err
	}

	e.storeReading(reading.Clone())
	e.lastUpdate = time.Now()

	return nil
}

// Flush evaluates the pending batch now. Nothing is evaluated unless a candle
// arrived since the last evaluation and at least one reading is known.
func (e *Engine) Flush() (Result, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return Result{}, errClosed() //nolint:exhaustruct // error path
	}

	return e.flush(), nil
}

// Run flushes pending updates once they have been quiet for the debounce
// interval. It returns when ctx is done or the engine is closed.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-e.done:
			return nil
		case <-ticker.C:
			e.mu.Lock()
			if !e.closed && e.freshCandle && time.Since(e.lastUpdate) >= e.debounce {
				e.flush()
			}
			e.mu.Unlock()
		}
	}
}

// Signals returns the channel published signals are sent on. It is closed by
// Close. A signal that finds the channel full is dropped from the channel but
// still recorded in the signal history.
func (e *Engine) Signals() <-chan types.StrategySignal {
	return e.out
}

// Readings returns a copy of the latest reading of every indicator.
func (e *Engine) Readings() map[types.IndicatorType]types.IndicatorReading {
	e.mu.Lock()
	defer e.mu.Unlock()

	readings := make(map[types.IndicatorType]types.IndicatorReading, len(e.readings))
	for name, reading := range e.readings {
		readings[name] = reading.Clone()
	}

	return readings
}

// Performance returns a snapshot of the running statistics.
func (e *Engine) Performance() types.StrategyPerformance {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.performance.Snapshot()
}

// Config returns a copy of the active strategy.
func (e *Engine) Config() (strategy.StrategyConfig, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return strategy.StrategyConfig{}, errClosed() //nolint:exhaustruct // error path
	}

	if e.config == nil {
		return strategy.StrategyConfig{}, errors.New(errors.ErrCodeStrategyNotSet, "no strategy is set") //nolint:exhaustruct // error path
	}

	return e.config.Clone(), nil
}

// Context returns a copy of the rolling strategy context.
func (e *Engine) Context() strategy.StrategyContext {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.context.Clone()
}

// SignalHistory returns copies of the published signals, oldest first.
func (e *Engine) SignalHistory() []types.StrategySignal {
	e.mu.Lock()
	defer e.mu.Unlock()

	history := make([]types.StrategySignal, len(e.signals))
	for i, signal := range e.signals {
		history[i] = signal.Clone()
	}

	return history
}

// Close stops the engine: the signal channel is closed, Run returns and the
// state is dropped. Later calls are no-ops; other operations fail with
// ErrCodeEngineClosed.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil
	}

	e.closed = true
	close(e.out)
	close(e.done)

	e.config = nil
	e.candles = nil
	e.readings = nil
	e.signals = nil
	e.context = strategy.StrategyContext{} //nolint:exhaustruct // dropped state

	e.logger.Info("Engine closed")

	return nil
}

func (e *Engine) storeReading(reading types.IndicatorReading) {
	e.readings[reading.Name] = reading
	e.metrics.ReadingsIngested.Inc()
}

// computeIndicators feeds readings computed from the candle history.
func (e *Engine) computeIndicators() {
	suite := types.Suite{}

	if e.aggregator != nil {
		suite = e.aggregator.Calculate(e.candles)
	}

	if e.indicators != nil {
		series := indicator.NewSeries(e.candles)

		for _, name := range e.indicators.ListIndicators() {
			ind, err := e.indicators.GetIndicator(name)
			if err != nil {
				continue
			}

			results, err := ind.Calculate(series)
			if err != nil {
				e.logger.Debug("Indicator not computed",
					zap.String("indicator", string(name)),
					zap.Error(err),
				)

				continue
			}

			suite[ind.Name()] = results
		}
	}

	for _, reading := range indicator.LatestReadings(suite) {
		if err := reading.Validate(); err != nil {
			e.logger.Warn("Dropping computed reading", zap.Error(err))

			continue
		}

		e.storeReading(reading)
	}
}

func (e *Engine) candleTime() time.Time {
	if len(e.candles) == 0 {
		return time.Time{}
	}

	return e.candles[len(e.candles)-1].Time
}

func (e *Engine) onRuleError(rule strategy.StrategyRule, err error) {
	e.metrics.RuleFailures.WithLabelValues(rule.ID).Inc()

	if e.callbacks.OnError != nil {
		e.callbacks.OnError(err)
	}
}

// signalReadings returns copies, ordered by name, of the readings the strategy
// requires and those the contributing rules look at.
func (e *Engine) signalReadings(config strategy.StrategyConfig, contributors []strategy.StrategyRule) []types.IndicatorReading {
	wanted := make(map[types.IndicatorType]bool, len(config.RequiredIndicators))
	for _, name := range config.RequiredIndicators {
		wanted[name] = true
	}

	for _, rule := range contributors {
		for _, name := range rule.Kind.Indicators() {
			wanted[name] = true
		}
	}

	readings := make([]types.IndicatorReading, 0, len(wanted))
	for name := range wanted {
		if reading, ok := e.readings[name]; ok {
			readings = append(readings, reading.Clone())
		}
	}

	sort.Slice(readings, func(i, j int) bool {
		return readings[i].Name < readings[j].Name
	})

	return readings
}

func errClosed() error {
	return errors.New(errors.ErrCodeEngineClosed, "engine is closed")
}
