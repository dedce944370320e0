package strategy

import (
	"encoding/json"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"gopkg.in/yaml.v3"
)

// RuleCategory decides how a rule's result is used.
type RuleCategory string

const (
	// RuleCategoryEntry rules vote for a direction.
	RuleCategoryEntry RuleCategory = "entry"
	// RuleCategoryExit rules contribute exit conditions to the signal metadata.
	RuleCategoryExit RuleCategory = "exit"
	// RuleCategoryFilter rules reject the bar when their confidence is below FilterRulePassConfidence.
	RuleCategoryFilter RuleCategory = "filter"
)

// FilterRulePassConfidence is the confidence a filter rule needs for the bar to pass.
const FilterRulePassConfidence = 0.5

type StopLossMethod string

const (
	StopLossATR               StopLossMethod = "atr"
	StopLossPercentage        StopLossMethod = "percentage"
	StopLossSupportResistance StopLossMethod = "support_resistance"
	StopLossDynamic           StopLossMethod = "dynamic"
)

type TakeProfitMethod string

const (
	TakeProfitFixedRatio TakeProfitMethod = "fixed_ratio"
	TakeProfitTrailing   TakeProfitMethod = "trailing"
	TakeProfitResistance TakeProfitMethod = "resistance"
	TakeProfitDynamic    TakeProfitMethod = "dynamic"
)

// Parameter keys read from StrategyConfig.Parameters.
const (
	ParamStopLossPercent = "stopLossPercent"
	ParamATRMultiplier   = "atrMultiplier"
)

// StrategyRule is one atomic evaluation unit. Kind selects the evaluator; Params
// overrides its thresholds.
type StrategyRule struct {
	ID       string             `yaml:"id" json:"id" validate:"required" jsonschema:"title=ID,description=Unique rule identifier"`
	Name     string             `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name"`
	Category RuleCategory       `yaml:"category" json:"category" validate:"required,oneof=entry exit filter" jsonschema:"title=Category,enum=entry,enum=exit,enum=filter"`
	Kind     RuleKind           `yaml:"kind" json:"kind" validate:"required" jsonschema:"title=Kind,description=Built-in rule evaluator"`
	Weight   float64            `yaml:"weight" json:"weight" validate:"gte=0,lte=1" jsonschema:"title=Weight,minimum=0,maximum=1"`
	Enabled  bool               `yaml:"enabled" json:"enabled" jsonschema:"title=Enabled"`
	Params   map[string]float64 `yaml:"params,omitempty" json:"params,omitempty" jsonschema:"title=Parameters,description=Evaluator specific thresholds"`
}

// Filters gate evaluation before any entry rule runs.
type Filters struct {
	// TimeFilters are UTC windows formatted HH:MM-HH:MM. An empty list allows every time.
	TimeFilters      []string `yaml:"timeFilters" json:"timeFilters" jsonschema:"title=Time Filters,description=UTC windows formatted HH:MM-HH:MM"`
	VolatilityFilter bool     `yaml:"volatilityFilter" json:"volatilityFilter" jsonschema:"title=Volatility Filter,description=Reject bars whose ATR is below 0.1% of price"`
	TrendFilter      bool     `yaml:"trendFilter" json:"trendFilter" jsonschema:"title=Trend Filter,description=Reject bars in a ranging market"`
	VolumeFilter     bool     `yaml:"volumeFilter" json:"volumeFilter" jsonschema:"title=Volume Filter,description=Reject bars with volume below 80% of the trailing 20 bar average"`
}

// StrategyConfig is a named, versioned set of rules and emission policy.
type StrategyConfig struct {
	Name        string `yaml:"name" json:"name" validate:"required" jsonschema:"title=Name"`
	Version     string `yaml:"version" json:"version" validate:"required" jsonschema:"title=Version,description=Semantic version of the strategy"`
	Description string `yaml:"description,omitempty" json:"description,omitempty" jsonschema:"title=Description"`
	// EngineVersion is the engine version the strategy was written for. Empty skips the check.
	EngineVersion      string                `yaml:"engineVersion,omitempty" json:"engineVersion,omitempty" jsonschema:"title=Engine Version,description=Minimum engine version with the same major version"`
	Rules              []StrategyRule        `yaml:"rules" json:"rules" validate:"required,min=1,dive" jsonschema:"title=Rules"`
	RequiredIndicators []types.IndicatorType `yaml:"requiredIndicators" json:"requiredIndicators" jsonschema:"title=Required Indicators"`
	MinConfidence      float64               `yaml:"minConfidence" json:"minConfidence" validate:"gte=0,lte=1" jsonschema:"title=Minimum Confidence,minimum=0,maximum=1"`
	// MaxSignalsPerHour of 0 disables the hourly limit.
	MaxSignalsPerHour int              `yaml:"maxSignalsPerHour" json:"maxSignalsPerHour" validate:"gte=0" jsonschema:"title=Max Signals Per Hour,minimum=0"`
	RiskRewardRatio   float64          `yaml:"riskRewardRatio" json:"riskRewardRatio" validate:"gt=0" jsonschema:"title=Risk Reward Ratio,exclusiveMinimum=0"`
	StopLossMethod    StopLossMethod   `yaml:"stopLossMethod" json:"stopLossMethod" jsonschema:"title=Stop Loss Method,enum=atr,enum=percentage,enum=support_resistance,enum=dynamic"`
	TakeProfitMethod  TakeProfitMethod `yaml:"takeProfitMethod" json:"takeProfitMethod" jsonschema:"title=Take Profit Method,enum=fixed_ratio,enum=trailing,enum=resistance,enum=dynamic"`
	Filters           Filters          `yaml:"filters" json:"filters" jsonschema:"title=Filters"`
	// Parameters holds free-form numeric settings such as stopLossPercent and atrMultiplier.
	Parameters map[string]float64 `yaml:"parameters,omitempty" json:"parameters,omitempty" jsonschema:"title=Parameters"`
}

// Validate checks the config. Unknown stop-loss and take-profit methods are
// accepted and fall back to a percentage stop and a fixed-ratio target.
func (c *StrategyConfig) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid strategy config", err)
	}

	if _, err := semver.NewVersion(c.Version); err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid strategy version %q", c.Version)
	}

	if c.EngineVersion != "" {
		if err := version.CheckCompatibility(version.GetVersion(), c.EngineVersion); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(c.Rules))
	for _, rule := range c.Rules {
		if seen[rule.ID] {
			return errors.Newf(errors.ErrCodeRuleAlreadyExists, "duplicate rule id %s", rule.ID)
		}

		seen[rule.ID] = true
	}

	for _, window := range c.Filters.TimeFilters {
		if _, err := ParseTimeWindow(window); err != nil {
			return err
		}
	}

	return nil
}

// Param returns a named parameter, or fallback when it is missing or not positive.
func (c *StrategyConfig) Param(name string, fallback float64) float64 {
	if v, ok := c.Parameters[name]; ok && v > 0 {
		return v
	}

	return fallback
}

// Clone returns a deep copy.
func (c StrategyConfig) Clone() StrategyConfig {
	clone := c
	clone.RequiredIndicators = append([]types.IndicatorType(nil), c.RequiredIndicators...)
	clone.Filters.TimeFilters = append([]string(nil), c.Filters.TimeFilters...)
	clone.Parameters = cloneParams(c.Parameters)

	clone.Rules = make([]StrategyRule, len(c.Rules))
	for i, rule := range c.Rules {
		clone.Rules[i] = rule
		clone.Rules[i].Params = cloneParams(rule.Params)
	}

	return clone
}

// Rule returns the rule with the given id.
func (c *StrategyConfig) Rule(id string) (*StrategyRule, error) {
	for i := range c.Rules {
		if c.Rules[i].ID == id {
			return &c.Rules[i], nil
		}
	}

	return nil, errors.Newf(errors.ErrCodeRuleNotFound, "rule %s not found in strategy %s", id, c.Name)
}

// SetRuleEnabled enables or disables a rule.
func (c *StrategyConfig) SetRuleEnabled(id string, enabled bool) error {
	rule, err := c.Rule(id)
	if err != nil {
		return err
	}

	rule.Enabled = enabled

	return nil
}

// SetRuleWeight changes a rule's weight, which must lie in [0,1].
func (c *StrategyConfig) SetRuleWeight(id string, weight float64) error {
	if weight < 0 || weight > 1 {
		return errors.Newf(errors.ErrCodeInvalidParameter, "rule weight %v is outside [0,1]", weight)
	}

	rule, err := c.Rule(id)
	if err != nil {
		return err
	}

	rule.Weight = weight

	return nil
}

// ParseConfig decodes a YAML (or JSON, which is valid YAML) strategy config and validates it.
func ParseConfig(data []byte) (StrategyConfig, error) {
	var config StrategyConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return StrategyConfig{}, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse strategy config", err)
	}

	if err := config.Validate(); err != nil {
		return StrategyConfig{}, err
	}

	return config, nil
}

// LoadConfig reads and validates a strategy config file.
func LoadConfig(path string) (StrategyConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyConfig{}, errors.Wrapf(errors.ErrCodeInvalidConfiguration, err, "failed to read strategy config %s", path)
	}

	return ParseConfig(data)
}

// Marshal encodes the config as YAML.
func (c StrategyConfig) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// MarshalIndentJSON encodes the config as indented JSON.
func (c StrategyConfig) MarshalIndentJSON() ([]byte, error) {
	return json.MarshalIndent(c, "", "  ")
}

func cloneParams(params map[string]float64) map[string]float64 {
	if params == nil {
		return nil
	}

	clone := make(map[string]float64, len(params))
	for k, v := range params {
		clone[k] = v
	}

	return clone
}
