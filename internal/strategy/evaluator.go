package strategy

import (
	"fmt"
	"math"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

// Decision is the outcome of the entry and exit rules for one bar.
type Decision struct {
	Type            types.SignalType
	Confidence      float64
	BuyConfidence   float64
	SellConfidence  float64
	Reasoning       []string
	EntryConditions []string
	ExitConditions  []string
	// Contributors are the entry rules behind the decision: the winning side's
	// voters, or every voter for a HOLD.
	Contributors []StrategyRule
}

// Evaluator runs strategy rules through a RuleRegistry. A rule that fails or
// panics counts as neutral with zero confidence and never stops the others.
type Evaluator struct {
	registry    *RuleRegistry
	logger      *logger.Logger
	onRuleError func(rule StrategyRule, err error)
}

// NewEvaluator creates an evaluator. onRuleError may be nil.
func NewEvaluator(registry *RuleRegistry, log *logger.Logger, onRuleError func(rule StrategyRule, err error)) *Evaluator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Evaluator{
		registry:    registry,
		logger:      log,
		onRuleError: onRuleError,
	}
}

// CheckFilterRules runs the enabled filter rules. The bar fails on the first
// rule whose confidence is below FilterRulePassConfidence.
func (e *Evaluator) CheckFilterRules(config StrategyConfig, in RuleInput) FilterOutcome {
	for _, rule := range config.Rules {
		if !rule.Enabled || rule.Category != RuleCategoryFilter {
			continue
		}

		result := e.EvaluateRule(rule, in)
		if result.Confidence < FilterRulePassConfidence {
			return rejected(FilterRule, fmt.Sprintf("%s: %s", rule.Name, result.Reasoning))
		}
	}

	return passed()
}

// Decide evaluates the enabled entry rules and combines them. Each direction's
// confidence is the weight-normalised mean confidence of the rules voting for
// it. The stronger direction wins when it reaches MinConfidence; otherwise the
// decision is HOLD with the stronger confidence. Enabled exit rules with an
// opinion become exit conditions.
func (e *Evaluator) Decide(config StrategyConfig, in RuleInput) Decision {
	var (
		buyWeighted, buyWeight   float64
		sellWeighted, sellWeight float64
		buyReasons, sellReasons  []string
		buyRules, sellRules      []string
		buyVoters, sellVoters    []StrategyRule
		exitConditions           []string
	)

	for _, rule := range config.Rules {
		if !rule.Enabled {
			continue
		}

		switch rule.Category {
		case RuleCategoryEntry:
			result := e.EvaluateRule(rule, in)

			switch result.Signal {
			case types.DirectionBuy:
				buyWeighted += result.Confidence * rule.Weight
				buyWeight += rule.Weight
				buyReasons = append(buyReasons, result.Reasoning)
				buyRules = append(buyRules, rule.Name)
				buyVoters = append(buyVoters, rule)
			case types.DirectionSell:
				sellWeighted += result.Confidence * rule.Weight
				sellWeight += rule.Weight
				sellReasons = append(sellReasons, result.Reasoning)
				sellRules = append(sellRules, rule.Name)
				sellVoters = append(sellVoters, rule)
			}
		case RuleCategoryExit:
			result := e.EvaluateRule(rule, in)
			if result.Signal != types.DirectionNeutral && result.Confidence >= FilterRulePassConfidence {
				exitConditions = append(exitConditions, fmt.Sprintf("%s: %s", rule.Name, result.Reasoning))
			}
		}
	}

	decision := Decision{
		Type:            types.SignalTypeHold,
		Confidence:      0,
		BuyConfidence:   ratio(buyWeighted, buyWeight),
		SellConfidence:  ratio(sellWeighted, sellWeight),
		Reasoning:       []string{},
		EntryConditions: []string{},
		ExitConditions:  append([]string{}, exitConditions...),
		Contributors:    append(append([]StrategyRule{}, buyVoters...), sellVoters...),
	}

	decision.Confidence = math.Max(decision.BuyConfidence, decision.SellConfidence)

	switch {
	case decision.BuyConfidence > decision.SellConfidence && decision.BuyConfidence >= config.MinConfidence:
		decision.Type = types.SignalTypeLong
		decision.Reasoning = buyReasons
		decision.EntryConditions = buyRules
		decision.Contributors = buyVoters
	case decision.SellConfidence > decision.BuyConfidence && decision.SellConfidence >= config.MinConfidence:
		decision.Type = types.SignalTypeShort
		decision.Reasoning = sellReasons
		decision.EntryConditions = sellRules
		decision.Contributors = sellVoters
	default:
		decision.Reasoning = []string{fmt.Sprintf(
			"No direction reached minimum confidence %.2f (buy %.2f, sell %.2f)",
			config.MinConfidence, decision.BuyConfidence, decision.SellConfidence,
		)}
	}

	return decision
}

// EvaluateRule runs one rule in isolation.
func (e *Evaluator) EvaluateRule(rule StrategyRule, in RuleInput) (result RuleResult) {
	in.Rule = rule

	defer func() {
		if r := recover(); r != nil {
			e.ruleFailed(rule, errors.Newf(errors.ErrCodeRuleEvaluationFailed, "rule %s panicked: %v", rule.ID, r))
			result = NeutralResult("rule failed")
		}
	}()

	evaluator, err := e.registry.Get(rule.Kind)
	if err != nil {
		e.ruleFailed(rule, err)

		return NeutralResult("rule failed")
	}

	result, err = evaluator.Evaluate(in)
	if err != nil {
		e.ruleFailed(rule, errors.Wrapf(errors.ErrCodeRuleEvaluationFailed, err, "rule %s failed", rule.ID))

		return NeutralResult("rule failed")
	}

	if math.IsNaN(result.Confidence) {
		result.Confidence = 0
	}

	result.Confidence = math.Max(0, math.Min(1, result.Confidence))

	return result
}

func (e *Evaluator) ruleFailed(rule StrategyRule, err error) {
	e.logger.Warn("Rule evaluation failed",
		zap.String("rule", rule.ID),
		zap.String("kind", string(rule.Kind)),
		zap.Error(err),
	)

	if e.onRuleError != nil {
		e.onRuleError(rule, err)
	}
}

func ratio(weighted, weight float64) float64 {
	if weight == 0 {
		return 0
	}

	return weighted / weight
}
