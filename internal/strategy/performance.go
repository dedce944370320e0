package strategy

import (
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// PerformanceTracker keeps running statistics over every evaluated signal.
type PerformanceTracker struct {
	performance   types.StrategyPerformance
	confidenceSum float64
}

// NewPerformanceTracker creates a tracker for a strategy.
func NewPerformanceTracker(strategyName string) *PerformanceTracker {
	return &PerformanceTracker{
		performance:   types.NewStrategyPerformance(strategyName),
		confidenceSum: 0,
	}
}

// Record counts one evaluated signal, published or suppressed.
func (t *PerformanceTracker) Record(signal types.StrategySignal, published bool) {
	p := &t.performance

	p.TotalSignals++

	switch signal.Type {
	case types.SignalTypeLong:
		p.LongSignals++
	case types.SignalTypeShort:
		p.ShortSignals++
	case types.SignalTypeHold:
		p.HoldSignals++
	}

	if published {
		p.PublishedSignals++
	} else {
		p.SuppressedSignals++
	}

	t.confidenceSum += signal.Confidence
	p.AverageConfidence = t.confidenceSum / float64(p.TotalSignals)

	if p.StartTime.IsZero() {
		p.StartTime = signal.Timestamp
	}

	p.LastSignalTime = signal.Timestamp

	// the first hour counts as a full hour
	hours := max(p.LastSignalTime.Sub(p.StartTime), time.Hour).Hours()
	p.SignalsPerHour = float64(p.TotalSignals) / hours
}

// Snapshot returns a copy of the statistics.
func (t *PerformanceTracker) Snapshot() types.StrategyPerformance {
	return t.performance
}

// Reset zeroes the statistics for a (possibly new) strategy.
func (t *PerformanceTracker) Reset(strategyName string) {
	t.performance = types.NewStrategyPerformance(strategyName)
	t.confidenceSum = 0
}
