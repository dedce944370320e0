// Package backtest replays recorded candles through the signal engine and
// collects the signals a strategy would have published.
package backtest

import (
	"context"
	"fmt"
	"iter"
	"path/filepath"
	"strings"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const (
	performanceFile = "performance.yaml"
	signalsFile     = "signals.parquet"
)

// OnStartCallback is called once the number of candles is known.
type OnStartCallback func(symbol string, total int) error

// OnProcessDataCallback is called after each candle. Returning an error aborts the run.
type OnProcessDataCallback func(current int, total int) error

// OnSignalCallback is called for every published signal.
type OnSignalCallback func(signal types.StrategySignal)

// OnEndCallback is always called when Run returns.
type OnEndCallback func(err error)

// Callbacks are the lifecycle hooks of a run. Nil callbacks are skipped.
type Callbacks struct {
	OnStart       OnStartCallback
	OnProcessData OnProcessDataCallback
	OnSignal      OnSignalCallback
	OnEnd         OnEndCallback
}

// Config describes one backtest run.
type Config struct {
	Strategy strategy.StrategyConfig
	// Symbol selects the symbol to replay. It may be empty when the data holds a single symbol.
	Symbol string
	Start  optional.Option[time.Time]
	End    optional.Option[time.Time]
	// Interval resamples the data before replaying it. Empty replays the raw candles.
	Interval   datasource.Interval
	Indicators indicator.Config
	// ResultsFolder receives performance.yaml and signals.parquet when set.
	ResultsFolder string
}

// Report summarizes a run.
type Report struct {
	Symbol       string
	Candles      int
	Rejected     int
	Evaluated    int
	Published    []types.StrategySignal
	Performance  types.StrategyPerformance
	ResultFolder string
}

// Backtester replays candle data through a fresh engine per run.
type Backtester struct {
	logger  *logger.Logger
	metrics *metrics.Metrics
}

// NewBacktester creates a backtester. A nil logger discards logs.
func NewBacktester(log *logger.Logger, m *metrics.Metrics) *Backtester {
	if log == nil {
		log = logger.NewNopLogger()
	}

	if m == nil {
		m = metrics.NewMetrics(nil)
	}

	return &Backtester{
		logger:  log,
		metrics: m,
	}
}

// Run replays the configured candles from source. Candles the engine rejects
// are counted and skipped. The run stops early when ctx is cancelled.
func (b *Backtester) Run(ctx context.Context, source datasource.CandleSource, config Config, callbacks Callbacks) (report Report, err error) {
	if callbacks.OnEnd != nil {
		defer func() { callbacks.OnEnd(err) }()
	}

	symbol, err := resolveSymbol(source, config.Symbol)
	if err != nil {
		return Report{}, err //nolint:exhaustruct // error path
	}

	query := datasource.Query{
		Symbol: optional.Some(symbol),
		Start:  config.Start,
		End:    config.End,
	}

	candles, total, err := readCandles(source, query, config.Interval)
	if err != nil {
		return Report{}, err //nolint:exhaustruct // error path
	}

	if callbacks.OnStart != nil {
		if err := callbacks.OnStart(symbol, total); err != nil {
			return Report{}, err //nolint:exhaustruct // error path
		}
	}

	eng, err := engine.New(
		engine.WithStrategy(config.Strategy),
		engine.WithLogger(b.logger),
		engine.WithMetrics(b.metrics),
		engine.WithAutoIndicators(config.Indicators),
		engine.WithCandleClock(),
		engine.WithTimeframe(string(config.Interval)),
	)
	if err != nil {
		return Report{}, err //nolint:exhaustruct // error path
	}
	defer eng.Close()

	report = Report{
		Symbol:       symbol,
		Candles:      0,
		Rejected:     0,
		Evaluated:    0,
		Published:    []types.StrategySignal{},
		Performance:  types.NewStrategyPerformance(config.Strategy.Name),
		ResultFolder: "",
	}

	b.logger.Info("Starting backtest",
		zap.String("strategy", config.Strategy.Name),
		zap.String("symbol", symbol),
		zap.Int("candles", total),
	)

	for candle, err := range candles {
		if err != nil {
			return report, err
		}

		if ctx.Err() != nil {
			return report, ctx.Err()
		}

		report.Candles++

		if err := eng.UpdateCandle(candle); err != nil {
			report.Rejected++
			b.logger.Warn("Skipping candle", zap.Time("time", candle.Time), zap.Error(err))
		} else {
			result, err := eng.Flush()
			if err != nil {
				return report, err
			}

			if result.Evaluated {
				report.Evaluated++
			}
		}

		for _, signal := range drain(eng.Signals()) {
			report.Published = append(report.Published, signal)

			if callbacks.OnSignal != nil {
				callbacks.OnSignal(signal)
			}
		}

		if callbacks.OnProcessData != nil {
			if err := callbacks.OnProcessData(report.Candles, total); err != nil {
				return report, err
			}
		}
	}

	report.Performance = eng.Performance()

	if config.ResultsFolder != "" {
		report.ResultFolder = resultFolder(config, symbol)
		if err := writeResults(report); err != nil {
			return report, err
		}
	}

	b.logger.Info("Backtest finished",
		zap.String("symbol", symbol),
		zap.Int("evaluated", report.Evaluated),
		zap.Int("published", len(report.Published)),
		zap.Int("rejected", report.Rejected),
	)

	return report, nil
}

func resolveSymbol(source datasource.CandleSource, symbol string) (string, error) {
	if symbol != "" {
		return symbol, nil
	}

	symbols, err := source.Symbols()
	if err != nil {
		return "", err
	}

	switch len(symbols) {
	case 0:
		return "", errors.New(errors.ErrCodeDataNotFound, "data contains no candles")
	case 1:
		return symbols[0], nil
	default:
		return "", errors.Newf(errors.ErrCodeMissingParameter, "data contains %d symbols (%s), choose one", len(symbols), strings.Join(symbols, ", "))
	}
}

func readCandles(source datasource.CandleSource, query datasource.Query, interval datasource.Interval) (iter.Seq2[types.Candle, error], int, error) {
	if interval == "" {
		total, err := source.Count(query)
		if err != nil {
			return nil, 0, err
		}

		return source.ReadAll(query), total, nil
	}

	candles, err := source.Resample(query, interval)
	if err != nil {
		return nil, 0, err
	}

	return func(yield func(types.Candle, error) bool) {
		for _, candle := range candles {
			if !yield(candle, nil) {
				return
			}
		}
	}, len(candles), nil
}

func drain(signals <-chan types.StrategySignal) []types.StrategySignal {
	var out []types.StrategySignal

	for {
		select {
		case signal, ok := <-signals:
			if !ok {
				return out
			}

			out = append(out, signal)
		default:
			return out
		}
	}
}

// resultFolder is <results>/<strategy>/<symbol>[_<interval>][/<start>_<end>].
func resultFolder(config Config, symbol string) string {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(config.Strategy.Name)), " ", "_")
	if name == "" {
		name = "strategy"
	}

	data := symbol
	if config.Interval != "" {
		data = fmt.Sprintf("%s_%s", symbol, config.Interval)
	}

	folder := filepath.Join(config.ResultsFolder, name, data)

	if config.Start.IsSome() || config.End.IsSome() {
		start, end := "all", "all"

		if t, err := config.Start.Take(); err == nil {
			start = t.Format("20060102")
		}

		if t, err := config.End.Take(); err == nil {
			end = t.Format("20060102")
		}

		folder = filepath.Join(folder, fmt.Sprintf("%s_%s", start, end))
	}

	return folder
}

func writeResults(report Report) error {
	writer := NewSignalsWriter(filepath.Join(report.ResultFolder, signalsFile))
	if err := writer.Initialize(); err != nil {
		return err
	}
	defer writer.Close()

	for _, signal := range report.Published {
		if err := writer.Write(signal); err != nil {
			return err
		}
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	if err := types.WriteStrategyPerformance(filepath.Join(report.ResultFolder, performanceFile), report.Performance); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to write performance", err)
	}

	return nil
}
