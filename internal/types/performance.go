package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StrategyPerformance holds running statistics of the signals a strategy produced.
// Totals count every evaluated signal, published or suppressed.
type StrategyPerformance struct {
	// StrategyName is the name of the strategy these statistics belong to.
	StrategyName string `yaml:"strategy_name" json:"strategy_name"`

	// TotalSignals is the number of evaluated signals.
	TotalSignals int `yaml:"total_signals" json:"total_signals"`

	LongSignals  int `yaml:"long_signals" json:"long_signals"`
	ShortSignals int `yaml:"short_signals" json:"short_signals"`
	HoldSignals  int `yaml:"hold_signals" json:"hold_signals"`

	// PublishedSignals were sent to consumers, SuppressedSignals were dropped by the emission policy.
	PublishedSignals  int `yaml:"published_signals" json:"published_signals"`
	SuppressedSignals int `yaml:"suppressed_signals" json:"suppressed_signals"`

	// AverageConfidence is the running mean confidence over all evaluated signals.
	AverageConfidence float64 `yaml:"average_confidence" json:"average_confidence"`

	// SignalsPerHour is TotalSignals divided by the hours between StartTime and LastSignalTime.
	SignalsPerHour float64 `yaml:"signals_per_hour" json:"signals_per_hour"`

	LastSignalTime time.Time `yaml:"last_signal_time" json:"last_signal_time"`
	StartTime      time.Time `yaml:"start_time" json:"start_time"`
}

// NewStrategyPerformance creates zeroed statistics for a strategy.
func NewStrategyPerformance(strategyName string) StrategyPerformance {
	return StrategyPerformance{
		StrategyName:      strategyName,
		TotalSignals:      0,
		LongSignals:       0,
		ShortSignals:      0,
		HoldSignals:       0,
		PublishedSignals:  0,
		SuppressedSignals: 0,
		AverageConfidence: 0,
		SignalsPerHour:    0,
		LastSignalTime:    time.Time{},
		StartTime:         time.Time{},
	}
}

// WriteStrategyPerformance writes performance statistics to a YAML file.
func WriteStrategyPerformance(path string, performance StrategyPerformance) error {
	data, err := yaml.Marshal(performance)
	if err != nil {
		return fmt.Errorf("failed to marshal strategy performance to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write strategy performance to file: %w", err)
	}

	return nil
}

// ReadStrategyPerformance reads performance statistics from a YAML file.
func ReadStrategyPerformance(path string) (StrategyPerformance, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyPerformance{}, fmt.Errorf("failed to read strategy performance file: %w", err)
	}

	var performance StrategyPerformance
	if err := yaml.Unmarshal(data, &performance); err != nil {
		return StrategyPerformance{}, fmt.Errorf("failed to unmarshal strategy performance: %w", err)
	}

	return performance, nil
}
