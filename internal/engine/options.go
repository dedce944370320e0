package engine

import (
	"time"

	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
)

const (
	// DefaultWindowSize is the number of candles kept in the rolling history.
	DefaultWindowSize = 200
	// DefaultSignalHistorySize is the number of published signals kept.
	DefaultSignalHistorySize = 100
	// DefaultDebounce is how long Run waits for updates to settle before evaluating.
	DefaultDebounce = 100 * time.Millisecond
	// DefaultBufferSize is the capacity of the signal channel.
	DefaultBufferSize = 256
)

// OnSignalCallback is called for every published signal.
type OnSignalCallback func(signal types.StrategySignal)

// OnSuppressedCallback is called for every signal held back by the emission policy.
type OnSuppressedCallback func(signal types.StrategySignal, reason string)

// OnErrorCallback is called when a rule fails during evaluation.
type OnErrorCallback func(err error)

// Callbacks are invoked on the evaluating goroutine while the engine is locked.
// They must not call back into the engine. Nil callbacks are skipped.
type Callbacks struct {
	OnSignal     OnSignalCallback
	OnSuppressed OnSuppressedCallback
	OnError      OnErrorCallback
}

// Option configures an Engine.
type Option func(e *Engine)

// WithStrategy sets the initial strategy. New validates it.
func WithStrategy(config strategy.StrategyConfig) Option {
	return func(e *Engine) {
		c := config.Clone()
		e.pendingConfig = &c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *logger.Logger) Option {
	return func(e *Engine) {
		e.logger = log
	}
}

// WithMetrics sets the Prometheus collectors the engine reports to.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithClock sets the clock of the emission-rate limiter.
func WithClock(clock strategy.Clock) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithCandleClock drives the emission-rate limiter from the timestamp of the
// latest candle, which makes replays of historical data behave like live runs.
func WithCandleClock() Option {
	return func(e *Engine) {
		e.clock = e.candleTime
	}
}

// WithRuleRegistry replaces the built-in rule evaluators.
func WithRuleRegistry(registry *strategy.RuleRegistry) Option {
	return func(e *Engine) {
		e.rules = registry
	}
}

// WithAutoIndicators computes the configured indicator families from the
// candle history on every candle and feeds them as indicator readings.
func WithAutoIndicators(config indicator.Config) Option {
	return func(e *Engine) {
		e.aggregatorConfig = &config
	}
}

// WithIndicators computes every indicator in registry from the candle history
// on every candle, in addition to any auto indicators.
func WithIndicators(registry indicator.IndicatorRegistry) Option {
	return func(e *Engine) {
		e.indicators = registry
	}
}

// WithCallbacks sets the lifecycle callbacks.
func WithCallbacks(callbacks Callbacks) Option {
	return func(e *Engine) {
		e.callbacks = callbacks
	}
}

// WithTimeframe sets the timeframe reported in signal metadata.
func WithTimeframe(timeframe string) Option {
	return func(e *Engine) {
		e.timeframe = timeframe
	}
}

// WithWindowSize sets the candle history size.
func WithWindowSize(size int) Option {
	return func(e *Engine) {
		e.windowSize = size
	}
}

// WithSignalHistorySize sets the number of published signals kept.
func WithSignalHistorySize(size int) Option {
	return func(e *Engine) {
		e.historySize = size
	}
}

// WithDebounce sets the quiet period Run waits for before evaluating.
func WithDebounce(interval time.Duration) Option {
	return func(e *Engine) {
		e.debounce = interval
	}
}

// WithBufferSize sets the signal channel capacity.
func WithBufferSize(size int) Option {
	return func(e *Engine) {
		e.bufferSize = size
	}
}
