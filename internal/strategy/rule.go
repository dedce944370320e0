package strategy

import (
	"sort"
	"sync"

	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// RuleKind names a built-in rule evaluator.
type RuleKind string

const (
	RuleKindRSIExtremes        RuleKind = "rsi_extremes"
	RuleKindMACDCrossover      RuleKind = "macd_crossover"
	RuleKindBollingerReversion RuleKind = "bollinger_reversion"
	RuleKindEMATrend           RuleKind = "ema_trend"
	RuleKindStochasticCross    RuleKind = "stochastic_cross"
	RuleKindADXTrend           RuleKind = "adx_trend"
	RuleKindVolumeConfirmation RuleKind = "volume_confirmation"
	RuleKindOBVDivergence      RuleKind = "obv_divergence"
	RuleKindVWAPDeviation      RuleKind = "vwap_deviation"
	RuleKindSessionWindow      RuleKind = "session_window"
)

var ruleIndicators = map[RuleKind][]types.IndicatorType{
	RuleKindRSIExtremes:        {types.IndicatorTypeRSI},
	RuleKindMACDCrossover:      {types.IndicatorTypeMACD},
	RuleKindBollingerReversion: {types.IndicatorTypeBollingerBands},
	RuleKindEMATrend:           {types.IndicatorTypeEMA},
	RuleKindStochasticCross:    {types.IndicatorTypeStochastic},
	RuleKindADXTrend:           {types.IndicatorTypeADX},
	RuleKindOBVDivergence:      {types.IndicatorTypeOBV},
	RuleKindVWAPDeviation:      {types.IndicatorTypeVWAP},
}

// Indicators returns the readings a built-in rule kind looks at. Candle-only
// and custom kinds return nil.
func (k RuleKind) Indicators() []types.IndicatorType {
	return ruleIndicators[k]
}

// RuleInput is everything a rule may look at for one bar.
type RuleInput struct {
	Rule     StrategyRule
	Readings map[types.IndicatorType]types.IndicatorReading
	Candle   types.Candle
	Context  StrategyContext
}

// Param returns a rule parameter, or fallback when it is not set.
func (in RuleInput) Param(name string, fallback float64) float64 {
	if v, ok := in.Rule.Params[name]; ok {
		return v
	}

	return fallback
}

// RuleResult is a rule's verdict for one bar.
type RuleResult struct {
	Signal     types.Direction `json:"signal"`
	Confidence float64         `json:"confidence"`
	Reasoning  string          `json:"reasoning"`
}

// NeutralResult is the result of a rule that has no opinion.
func NeutralResult(reasoning string) RuleResult {
	return RuleResult{Signal: types.DirectionNeutral, Confidence: 0, Reasoning: reasoning}
}

// RuleEvaluator evaluates one kind of rule.
type RuleEvaluator interface {
	Evaluate(input RuleInput) (RuleResult, error)
}

// RuleEvaluatorFunc adapts a function to RuleEvaluator.
type RuleEvaluatorFunc func(input RuleInput) (RuleResult, error)

// Evaluate calls f.
func (f RuleEvaluatorFunc) Evaluate(input RuleInput) (RuleResult, error) {
	return f(input)
}

// RuleRegistry maps rule kinds to evaluators.
type RuleRegistry struct {
	evaluators map[RuleKind]RuleEvaluator
	mu         sync.RWMutex
}

// NewRuleRegistry creates an empty registry.
func NewRuleRegistry() *RuleRegistry {
	return &RuleRegistry{
		evaluators: make(map[RuleKind]RuleEvaluator),
		mu:         sync.RWMutex{},
	}
}

// NewDefaultRuleRegistry creates a registry with every built-in rule kind.
func NewDefaultRuleRegistry() *RuleRegistry {
	registry := NewRuleRegistry()

	for kind, evaluator := range builtinEvaluators() {
		// kinds are unique, registration cannot fail
		_ = registry.Register(kind, evaluator)
	}

	return registry
}

// Register adds an evaluator for kind.
func (r *RuleRegistry) Register(kind RuleKind, evaluator RuleEvaluator) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.evaluators[kind]; exists {
		return errors.Newf(errors.ErrCodeRuleAlreadyExists, "rule kind %s already registered", kind)
	}

	r.evaluators[kind] = evaluator

	return nil
}

// Replace registers evaluator for kind, overwriting any existing one.
func (r *RuleRegistry) Replace(kind RuleKind, evaluator RuleEvaluator) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evaluators[kind] = evaluator
}

// Get returns the evaluator for kind.
func (r *RuleRegistry) Get(kind RuleKind) (RuleEvaluator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	evaluator, exists := r.evaluators[kind]
	if !exists {
		return nil, errors.Newf(errors.ErrCodeRuleNotFound, "no evaluator for rule kind %s", kind)
	}

	return evaluator, nil
}

// Kinds returns the registered kinds, sorted.
func (r *RuleRegistry) Kinds() []RuleKind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]RuleKind, 0, len(r.evaluators))
	for kind := range r.evaluators {
		kinds = append(kinds, kind)
	}

	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	return kinds
}
