package mocks

//go:generate mockgen -destination=./mock_rule_evaluator.go -package=mocks github.com/rxtech-lab/argo-signals/internal/strategy RuleEvaluator
//go:generate mockgen -destination=./mock_indicator.go -package=mocks github.com/rxtech-lab/argo-signals/internal/indicator Indicator
//go:generate mockgen -destination=./mock_indicator_registry.go -package=mocks github.com/rxtech-lab/argo-signals/internal/indicator IndicatorRegistry
//go:generate mockgen -destination=./mock_candle_source.go -package=mocks github.com/rxtech-lab/argo-signals/internal/datasource CandleSource
