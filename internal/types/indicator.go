package types

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"gopkg.in/yaml.v3"
)

type IndicatorType string

const (
	// Momentum
	IndicatorTypeRSI        IndicatorType = "rsi"
	IndicatorTypeStochastic IndicatorType = "stochastic"
	IndicatorTypeWilliamsR  IndicatorType = "williams_r"
	IndicatorTypeROC        IndicatorType = "roc"
	IndicatorTypeCCI        IndicatorType = "cci"
	IndicatorTypeMFI        IndicatorType = "mfi"

	// Trend and volatility
	IndicatorTypeMACD           IndicatorType = "macd"
	IndicatorTypeBollingerBands IndicatorType = "bollinger_bands"
	IndicatorTypeATR            IndicatorType = "atr"
	IndicatorTypeParabolicSAR   IndicatorType = "parabolic_sar"
	IndicatorTypeIchimoku       IndicatorType = "ichimoku"
	IndicatorTypeADX            IndicatorType = "adx"
	IndicatorTypeEMA            IndicatorType = "ema"

	// Volume
	IndicatorTypeOBV    IndicatorType = "obv"
	IndicatorTypeVWAP   IndicatorType = "vwap"
	IndicatorTypeADLine IndicatorType = "ad_line"
	IndicatorTypeCMF    IndicatorType = "cmf"
	IndicatorTypeVROC   IndicatorType = "vroc"
	IndicatorTypePVT    IndicatorType = "pvt"
)

// Direction is the directional verdict of an indicator or a rule.
type Direction string

const (
	DirectionBuy     Direction = "buy"
	DirectionSell    Direction = "sell"
	DirectionNeutral Direction = "neutral"
)

// ValueKind tags which arm of IndicatorValue is populated.
type ValueKind int

const (
	ValueKindScalar ValueKind = iota
	ValueKindNamed
)

// IndicatorValue is either a single number or a set of named sub-values
// (e.g. MACD's macd/signal/histogram). Consumers switch on Kind().
type IndicatorValue struct {
	kind   ValueKind
	scalar float64
	named  map[string]float64
}

// Scalar creates a single-number value.
func Scalar(v float64) IndicatorValue {
	return IndicatorValue{kind: ValueKindScalar, scalar: v, named: nil}
}

// Named creates a value with named components. The map is copied.
func Named(values map[string]float64) IndicatorValue {
	named := make(map[string]float64, len(values))
	for k, v := range values {
		named[k] = v
	}

	return IndicatorValue{kind: ValueKindNamed, scalar: 0, named: named}
}

// Kind returns which arm of the union is set.
func (v IndicatorValue) Kind() ValueKind {
	return v.kind
}

// Scalar returns the scalar value, ok is false for named values.
func (v IndicatorValue) Scalar() (float64, bool) {
	if v.kind != ValueKindScalar {
		return 0, false
	}

	return v.scalar, true
}

// Get returns a named component, ok is false for scalar values or unknown names.
func (v IndicatorValue) Get(name string) (float64, bool) {
	if v.kind != ValueKindNamed {
		return 0, false
	}

	value, ok := v.named[name]

	return value, ok
}

// Names returns the sorted component names of a named value.
func (v IndicatorValue) Names() []string {
	names := make([]string, 0, len(v.named))
	for k := range v.named {
		names = append(names, k)
	}

	sort.Strings(names)

	return names
}

// IsFinite reports whether every number held by the value is finite.
func (v IndicatorValue) IsFinite() bool {
	if v.kind == ValueKindScalar {
		return isFinite(v.scalar)
	}

	for _, value := range v.named {
		if !isFinite(value) {
			return false
		}
	}

	return true
}

// Clone returns a deep copy.
func (v IndicatorValue) Clone() IndicatorValue {
	if v.kind == ValueKindNamed {
		return Named(v.named)
	}

	return v
}

// MarshalJSON encodes scalars as numbers and named values as objects.
func (v IndicatorValue) MarshalJSON() ([]byte, error) {
	if v.kind == ValueKindNamed {
		return json.Marshal(v.named)
	}

	return json.Marshal(v.scalar)
}

// UnmarshalJSON accepts either a number or an object of numbers.
func (v *IndicatorValue) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*v = Scalar(scalar)

		return nil
	}

	var named map[string]float64
	if err := json.Unmarshal(data, &named); err != nil {
		return fmt.Errorf("indicator value must be a number or an object of numbers: %w", err)
	}

	*v = Named(named)

	return nil
}

// MarshalYAML mirrors MarshalJSON.
func (v IndicatorValue) MarshalYAML() (any, error) {
	if v.kind == ValueKindNamed {
		return v.named, nil
	}

	return v.scalar, nil
}

// UnmarshalYAML mirrors UnmarshalJSON.
func (v *IndicatorValue) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		var scalar float64
		if err := node.Decode(&scalar); err != nil {
			return err
		}

		*v = Scalar(scalar)

		return nil
	}

	var named map[string]float64
	if err := node.Decode(&named); err != nil {
		return err
	}

	*v = Named(named)

	return nil
}

// IndicatorResult is one scorer output for one bar.
type IndicatorResult struct {
	// Index is the bar index in the input series
	Index int `json:"index" yaml:"index"`
	// Time is the bar timestamp, zero when the scorer ran on bare arrays
	Time time.Time `json:"time" yaml:"time"`
	// Value is the indicator value at this bar
	Value IndicatorValue `json:"value" yaml:"value"`
	// Signal is the directional verdict at this bar
	Signal Direction `json:"signal" yaml:"signal"`
	// Strength is in [0,1]
	Strength float64 `json:"strength" yaml:"strength"`
}

// IndicatorReading is the latest verdict of one indicator as seen by the strategy engine.
type IndicatorReading struct {
	Name       IndicatorType            `json:"name" yaml:"name"`
	Value      IndicatorValue           `json:"value" yaml:"value"`
	Signal     Direction                `json:"signal" yaml:"signal"`
	Strength   float64                  `json:"strength" yaml:"strength"`
	Confidence optional.Option[float64] `json:"confidence" yaml:"-"`
	Timestamp  time.Time                `json:"timestamp" yaml:"timestamp"`
}

// Validate rejects readings that would poison downstream calculations.
func (r IndicatorReading) Validate() error {
	if r.Name == "" {
		return errors.New(errors.ErrCodeInvalidReading, "indicator reading has no name")
	}

	if !r.Value.IsFinite() {
		return errors.Newf(errors.ErrCodeInvalidReading, "indicator reading %s has a non-finite value", r.Name)
	}

	if !isFinite(r.Strength) || r.Strength < 0 || r.Strength > 1 {
		return errors.Newf(errors.ErrCodeInvalidReading, "indicator reading %s strength %v is outside [0,1]", r.Name, r.Strength)
	}

	if r.Confidence.IsSome() {
		confidence := r.Confidence.Unwrap()
		if !isFinite(confidence) || confidence < 0 || confidence > 1 {
			return errors.Newf(errors.ErrCodeInvalidReading, "indicator reading %s confidence %v is outside [0,1]", r.Name, confidence)
		}
	}

	switch r.Signal {
	case DirectionBuy, DirectionSell, DirectionNeutral:
	default:
		return errors.Newf(errors.ErrCodeInvalidReading, "indicator reading %s has unknown signal %q", r.Name, r.Signal)
	}

	return nil
}

// Clone returns a deep copy of the reading.
func (r IndicatorReading) Clone() IndicatorReading {
	clone := r
	clone.Value = r.Value.Clone()

	return clone
}

// Suite maps each computed indicator to its per-bar results, oldest first.
type Suite map[IndicatorType][]IndicatorResult

// Latest returns the most recent result of an indicator.
func (s Suite) Latest(name IndicatorType) (IndicatorResult, bool) {
	results := s[name]
	if len(results) == 0 {
		return IndicatorResult{}, false //nolint:exhaustruct // zero value for miss
	}

	return results[len(results)-1], true
}

// Names returns the indicator names in the suite, sorted.
func (s Suite) Names() []IndicatorType {
	names := make([]IndicatorType, 0, len(s))
	for name := range s {
		names = append(names, name)
	}

	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })

	return names
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
