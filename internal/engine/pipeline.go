package engine

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

// Reasons reported for bars that were not evaluated.
const (
	ReasonNoStrategy = "no strategy is set"
	ReasonNotPending = "no fresh candle with indicator readings"
)

// Result reports what one flush did.
type Result struct {
	// Evaluated is true when the rules ran and produced a signal.
	Evaluated bool
	Signal    types.StrategySignal
	Published bool
	// Reason explains a skipped bar or a suppressed signal.
	Reason string
}

func skipped(reason string) Result {
	return Result{Evaluated: false, Signal: types.StrategySignal{}, Published: false, Reason: reason} //nolint:exhaustruct // no signal
}

func (e *Engine) flush() Result {
	if e.config == nil {
		return skipped(ReasonNoStrategy)
	}

	if !e.freshCandle || len(e.readings) == 0 {
		return skipped(ReasonNotPending)
	}

	e.freshCandle = false

	start := time.Now()
	defer func() {
		e.metrics.EvaluationDur.Observe(time.Since(start).Seconds())
	}()

	e.metrics.Evaluations.Inc()

	return e.evaluate(*e.config, e.candles[len(e.candles)-1])
}

// evaluate runs the pipeline for the latest candle: required indicators,
// filters, filter rules, entry and exit rules, risk levels and the emission policy.
func (e *Engine) evaluate(config strategy.StrategyConfig, candle types.Candle) Result {
	if missing := e.missingIndicators(config); len(missing) > 0 {
		e.logger.Warn("Skipping evaluation, required indicators have no reading",
			zap.String("strategy", config.Name),
			zap.Strings("missing", missing),
			zap.Time("time", candle.Time),
		)
		e.metrics.MissingIndicators.Inc()

		return skipped("missing required indicators: " + strings.Join(missing, ", "))
	}

	//nolint:exhaustruct // Rule is set by the evaluator for each rule
	in := strategy.RuleInput{
		Readings: e.readings,
		Candle:   candle,
		Context:  e.context,
	}

	outcome := strategy.ApplyFilters(config.Filters, strategy.FilterInput{
		Candle:          candle,
		History:         e.candles,
		Readings:        e.readings,
		MarketCondition: e.context.MarketCondition,
	})
	if outcome.Passed {
		outcome = e.evaluator.CheckFilterRules(config, in)
	}

	if !outcome.Passed {
		e.logger.Debug("Bar rejected by filter",
			zap.String("filter", outcome.Filter),
			zap.String("reason", outcome.Reason),
			zap.Time("time", candle.Time),
		)
		e.metrics.FilterRejections.WithLabelValues(outcome.Filter).Inc()

		return skipped(fmt.Sprintf("%s filter: %s", outcome.Filter, outcome.Reason))
	}

	decision := e.evaluator.Decide(config, in)
	signal := e.buildSignal(config, decision, candle)

	published, reason := e.limiter.Admit(signal.Type)
	e.performance.Record(signal, published)

	if !published {
		e.suppress(signal, reason)

		return Result{Evaluated: true, Signal: signal.Clone(), Published: false, Reason: reason}
	}

	e.publish(signal)

	return Result{Evaluated: true, Signal: signal.Clone(), Published: true, Reason: ""}
}

func (e *Engine) missingIndicators(config strategy.StrategyConfig) []string {
	missing := []string{}

	for _, name := range config.RequiredIndicators {
		if _, ok := e.readings[name]; !ok {
			missing = append(missing, string(name))
		}
	}

	return missing
}

func (e *Engine) buildSignal(config strategy.StrategyConfig, decision strategy.Decision, candle types.Candle) types.StrategySignal {
	signal := types.StrategySignal{
		ID:         uuid.NewString(),
		Type:       decision.Type,
		Strength:   types.StrengthFromConfidence(decision.Confidence),
		Confidence: decision.Confidence,
		Price:      candle.Close,
		Timestamp:  candle.Time,
		Reasoning:  decision.Reasoning,
		Indicators: e.signalReadings(config, decision.Contributors),
		Metadata: types.SignalMetadata{
			Symbol:          candle.Symbol,
			Timeframe:       e.timeframe,
			StrategyName:    config.Name,
			StopLoss:        nil,
			TakeProfit:      nil,
			RiskReward:      nil,
			EntryConditions: decision.EntryConditions,
			ExitConditions:  decision.ExitConditions,
			MarketCondition: e.context.MarketCondition,
			Session:         e.context.Session,
		},
	}

	atr := optional.None[float64]()
	if reading, ok := e.readings[types.IndicatorTypeATR]; ok {
		if value, ok := reading.Value.Scalar(); ok {
			atr = optional.Some(value)
		}
	}

	levels, ok := strategy.CalculateRiskLevels(config.StopLossMethod, config.TakeProfitMethod, strategy.RiskInput{
		Side:            decision.Type,
		Price:           candle.Close,
		History:         e.candles,
		ATR:             atr,
		RiskRewardRatio: config.RiskRewardRatio,
		Parameters:      config.Parameters,
	})
	if ok {
		stopLoss, takeProfit, riskReward := levels.StopLoss, levels.TakeProfit, levels.RiskReward
		signal.Metadata.StopLoss = &stopLoss
		signal.Metadata.TakeProfit = &takeProfit
		signal.Metadata.RiskReward = &riskReward
	}

	return signal
}

func (e *Engine) publish(signal types.StrategySignal) {
	e.signals = append(e.signals, signal)
	if over := len(e.signals) - e.historySize; over > 0 {
		e.signals = e.signals[over:]
	}

	e.context.Signals = e.signals
	e.metrics.SignalsPublished.WithLabelValues(string(signal.Type)).Inc()

	e.logger.Info("Signal published",
		zap.String("id", signal.ID),
		zap.String("type", string(signal.Type)),
		zap.String("strength", string(signal.Strength)),
		zap.Float64("confidence", signal.Confidence),
		zap.Float64("price", signal.Price),
		zap.Time("time", signal.Timestamp),
	)

	select {
	case e.out <- signal.Clone():
	default:
		e.logger.Warn("Signal channel is full, signal not delivered", zap.String("id", signal.ID))
	}

	if e.callbacks.OnSignal != nil {
		e.callbacks.OnSignal(signal.Clone())
	}
}

func (e *Engine) suppress(signal types.StrategySignal, reason string) {
	e.metrics.SignalsSuppressed.WithLabelValues(string(signal.Type), reason).Inc()

	e.logger.Debug("Signal suppressed",
		zap.String("type", string(signal.Type)),
		zap.Float64("confidence", signal.Confidence),
		zap.String("reason", reason),
	)

	if e.callbacks.OnSuppressed != nil {
		e.callbacks.OnSuppressed(signal.Clone(), reason)
	}
}
