package strategy

import (
	"fmt"
	"testing"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EvaluatorTestSuite struct {
	suite.Suite
	registry *RuleRegistry
	failures []string
	eval     *Evaluator
}

func TestEvaluatorSuite(t *testing.T) {
	suite.Run(t, new(EvaluatorTestSuite))
}

func fixed(signal types.Direction, confidence float64) RuleEvaluatorFunc {
	return func(in RuleInput) (RuleResult, error) {
		return RuleResult{Signal: signal, Confidence: confidence, Reasoning: in.Rule.Name}, nil
	}
}

func (suite *EvaluatorTestSuite) SetupTest() {
	suite.registry = NewRuleRegistry()
	suite.failures = nil

	suite.Require().NoError(suite.registry.Register("buy_80", fixed(types.DirectionBuy, 0.8)))
	suite.Require().NoError(suite.registry.Register("buy_60", fixed(types.DirectionBuy, 0.6)))
	suite.Require().NoError(suite.registry.Register("sell_90", fixed(types.DirectionSell, 0.9)))
	suite.Require().NoError(suite.registry.Register("neutral", fixed(types.DirectionNeutral, 0.4)))
	suite.Require().NoError(suite.registry.Register("too_confident", fixed(types.DirectionBuy, 1.7)))
	suite.Require().NoError(suite.registry.Register("fails", RuleEvaluatorFunc(func(RuleInput) (RuleResult, error) {
		return RuleResult{}, fmt.Errorf("indicator feed broke")
	})))
	suite.Require().NoError(suite.registry.Register("panics", RuleEvaluatorFunc(func(RuleInput) (RuleResult, error) {
		panic("index out of range")
	})))

	suite.eval = NewEvaluator(suite.registry, logger.NewNopLogger(), func(rule StrategyRule, err error) {
		suite.failures = append(suite.failures, rule.ID)
	})
}

func rule(id string, category RuleCategory, kind RuleKind, weight float64) StrategyRule {
	return StrategyRule{ID: id, Name: id, Category: category, Kind: kind, Weight: weight, Enabled: true}
}

func config(minConfidence float64, rules ...StrategyRule) StrategyConfig {
	return StrategyConfig{Name: "test", Version: "1.0.0", Rules: rules, MinConfidence: minConfidence, RiskRewardRatio: 2}
}

func (suite *EvaluatorTestSuite) TestWeightedConfidence() {
	decision := suite.eval.Decide(config(0.6,
		rule("a", RuleCategoryEntry, "buy_80", 0.5),
		rule("b", RuleCategoryEntry, "buy_60", 0.25),
		rule("c", RuleCategoryEntry, "neutral", 0.25),
	), RuleInput{})

	// (0.8*0.5 + 0.6*0.25) / 0.75; the neutral rule's weight stays out of the denominator
	suite.Equal(types.SignalTypeLong, decision.Type)
	suite.InDelta(0.55/0.75, decision.Confidence, 1e-9)
	suite.InDelta(0.55/0.75, decision.BuyConfidence, 1e-9)
	suite.Zero(decision.SellConfidence)
	suite.Equal([]string{"a", "b"}, decision.EntryConditions)
	suite.Equal([]string{"a", "b"}, decision.Reasoning)
}

func (suite *EvaluatorTestSuite) TestStrongerDirectionWins() {
	decision := suite.eval.Decide(config(0.6,
		rule("a", RuleCategoryEntry, "buy_80", 0.5),
		rule("b", RuleCategoryEntry, "sell_90", 0.1),
	), RuleInput{})

	suite.Equal(types.SignalTypeShort, decision.Type)
	suite.InDelta(0.9, decision.Confidence, 1e-9)
	suite.Equal([]string{"b"}, decision.EntryConditions)
	suite.Require().Len(decision.Contributors, 1)
	suite.Equal("b", decision.Contributors[0].ID)
}

func (suite *EvaluatorTestSuite) TestHoldBelowMinConfidence() {
	decision := suite.eval.Decide(config(0.85,
		rule("a", RuleCategoryEntry, "buy_80", 0.5),
		rule("b", RuleCategoryEntry, "buy_60", 0.5),
	), RuleInput{})

	suite.Equal(types.SignalTypeHold, decision.Type)
	suite.InDelta(0.7, decision.Confidence, 1e-9)
	suite.Empty(decision.EntryConditions)
	suite.Len(decision.Reasoning, 1)
	suite.Len(decision.Contributors, 2)
}

func (suite *EvaluatorTestSuite) TestTieIsHold() {
	suite.Require().NoError(suite.registry.Register("sell_80", fixed(types.DirectionSell, 0.8)))

	decision := suite.eval.Decide(config(0.5,
		rule("a", RuleCategoryEntry, "buy_80", 0.5),
		rule("b", RuleCategoryEntry, "sell_80", 0.5),
	), RuleInput{})

	suite.Equal(types.SignalTypeHold, decision.Type)
	suite.InDelta(0.8, decision.Confidence, 1e-9)
}

func (suite *EvaluatorTestSuite) TestDisabledAndNonEntryRulesDoNotVote() {
	disabled := rule("off", RuleCategoryEntry, "sell_90", 1)
	disabled.Enabled = false

	decision := suite.eval.Decide(config(0.5,
		rule("a", RuleCategoryEntry, "buy_60", 0.5),
		disabled,
		rule("f", RuleCategoryFilter, "sell_90", 1),
	), RuleInput{})

	suite.Equal(types.SignalTypeLong, decision.Type)
	suite.InDelta(0.6, decision.Confidence, 1e-9)
}

func (suite *EvaluatorTestSuite) TestExitConditions() {
	decision := suite.eval.Decide(config(0.5,
		rule("a", RuleCategoryEntry, "buy_80", 1),
		rule("exit_sell", RuleCategoryExit, "sell_90", 0.2),
		rule("exit_neutral", RuleCategoryExit, "neutral", 0.2),
	), RuleInput{})

	suite.Equal(types.SignalTypeLong, decision.Type)
	suite.Equal([]string{"exit_sell: exit_sell"}, decision.ExitConditions)
}

func (suite *EvaluatorTestSuite) TestFailingRulesAreIsolated() {
	decision := suite.eval.Decide(config(0.6,
		rule("boom", RuleCategoryEntry, "panics", 0.5),
		rule("err", RuleCategoryEntry, "fails", 0.5),
		rule("missing", RuleCategoryEntry, "not_registered", 0.5),
		rule("a", RuleCategoryEntry, "buy_80", 0.5),
	), RuleInput{})

	suite.Equal(types.SignalTypeLong, decision.Type)
	suite.InDelta(0.8, decision.Confidence, 1e-9)
	suite.Equal([]string{"boom", "err", "missing"}, suite.failures)
}

func (suite *EvaluatorTestSuite) TestEvaluateRule() {
	result := suite.eval.EvaluateRule(rule("x", RuleCategoryEntry, "too_confident", 1), RuleInput{})
	suite.Equal(1.0, result.Confidence)

	result = suite.eval.EvaluateRule(rule("boom", RuleCategoryEntry, "panics", 1), RuleInput{})
	suite.Equal(types.DirectionNeutral, result.Signal)
	suite.Zero(result.Confidence)

	var captured error

	eval := NewEvaluator(suite.registry, nil, func(_ StrategyRule, err error) { captured = err })
	eval.EvaluateRule(rule("err", RuleCategoryEntry, "fails", 1), RuleInput{})
	suite.Equal(errors.ErrCodeRuleEvaluationFailed, errors.GetCode(captured))
}

func (suite *EvaluatorTestSuite) TestFilterRules() {
	suite.Require().NoError(suite.registry.Register("open", fixed(types.DirectionNeutral, 1)))
	suite.Require().NoError(suite.registry.Register("closed", fixed(types.DirectionNeutral, 0)))

	outcome := suite.eval.CheckFilterRules(config(0.5,
		rule("a", RuleCategoryEntry, "buy_80", 1),
		rule("hours", RuleCategoryFilter, "open", 1),
	), RuleInput{})
	suite.True(outcome.Passed)

	outcome = suite.eval.CheckFilterRules(config(0.5,
		rule("hours", RuleCategoryFilter, "open", 1),
		rule("weekend", RuleCategoryFilter, "closed", 1),
	), RuleInput{})
	suite.False(outcome.Passed)
	suite.Equal(FilterRule, outcome.Filter)
	suite.Contains(outcome.Reason, "weekend")

	outcome = suite.eval.CheckFilterRules(config(0.5,
		rule("broken", RuleCategoryFilter, "fails", 1),
	), RuleInput{})
	suite.False(outcome.Passed, "a failing filter rule rejects the bar")
}
