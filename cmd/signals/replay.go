package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/backtest"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

func replayCommand() *cli.Command {
	return &cli.Command{
		Name:  "replay",
		Usage: "Replay recorded candles through a strategy and print the signals it publishes",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "data",
				Aliases:  []string{"d"},
				Usage:    "Candle file (.parquet or .csv) with time, symbol, open, high, low, close, volume columns",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "symbol",
				Aliases: []string{"t"},
				Usage:   "Symbol to replay. Required when the file holds several symbols",
			},
			strategyFileFlag(),
			presetFlag(),
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Resample the candles to this interval before replaying (5m, 15m, 1h, ...)",
			},
			&cli.TimestampFlag{
				Name:  "start",
				Usage: "Replay candles from this date (`YYYY-MM-DD`)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.TimestampFlag{
				Name:  "end",
				Usage: "Replay candles up to this date (`YYYY-MM-DD`)",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "results",
				Aliases: []string{"o"},
				Usage:   "Write performance.yaml and signals.parquet under this folder",
			},
			&cli.BoolFlag{
				Name:    "quiet",
				Aliases: []string{"q"},
				Usage:   "Only print the summary",
			},
		},
		Action: replayAction,
	}
}

func replayAction(ctx context.Context, cmd *cli.Command) error {
	config, err := loadStrategy(cmd)
	if err != nil {
		return err
	}

	source, err := datasource.NewDuckDBSource("", nil)
	if err != nil {
		return err
	}
	defer source.Close()

	if err := source.Initialize(cmd.String("data")); err != nil {
		return err
	}

	run := backtest.Config{
		Strategy:      config,
		Symbol:        cmd.String("symbol"),
		Start:         optionalTime(cmd, "start"),
		End:           optionalTime(cmd, "end"),
		Interval:      datasource.Interval(cmd.String("interval")),
		Indicators:    indicator.DefaultConfig(),
		ResultsFolder: cmd.String("results"),
	}

	log, err := newCLILogger(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best effort on exit

	_, err = runReplay(ctx, source, run, log, cmd.Root().Writer, !cmd.Bool("quiet"))

	return err
}

// runReplay runs the backtest, drawing a progress bar and the published
// signals on out, then prints the performance summary.
func runReplay(ctx context.Context, source datasource.CandleSource, run backtest.Config, log *logger.Logger, out io.Writer, showSignals bool) (backtest.Report, error) {
	var bar *progressbar.ProgressBar

	callbacks := backtest.Callbacks{
		OnStart: func(symbol string, total int) error {
			bar = progressbar.NewOptions(total,
				progressbar.OptionSetWriter(out),
				progressbar.OptionSetDescription(fmt.Sprintf("Replaying %s", symbol)),
				progressbar.OptionShowCount(),
				progressbar.OptionClearOnFinish(),
			)

			return nil
		},
		OnProcessData: func(current, _ int) error {
			return bar.Set(current)
		},
		OnSignal: func(signal types.StrategySignal) {
			if showSignals {
				_ = bar.Clear()
				fmt.Fprintln(out, FormatSignal(signal))
			}
		},
		OnEnd: func(err error) {
			if bar != nil {
				_ = bar.Finish()
			}
		},
	}

	report, err := backtest.NewBacktester(log, nil).Run(ctx, source, run, callbacks)
	if err != nil {
		return report, err
	}

	fmt.Fprintln(out)
	fmt.Fprint(out, FormatPerformance(report.Performance))
	fmt.Fprintf(out, "  %-20s %d (%d rejected, %d evaluated)\n", "Candles", report.Candles, report.Rejected, report.Evaluated)

	if report.ResultFolder != "" {
		fmt.Fprintf(out, "  %-20s %s\n", "Results", report.ResultFolder)
	}

	return report, nil
}

func optionalTime(cmd *cli.Command, name string) optional.Option[time.Time] {
	if !cmd.IsSet(name) {
		return optional.None[time.Time]()
	}

	return optional.Some(cmd.Timestamp(name))
}

func strategyFileFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "strategy",
		Aliases: []string{"s"},
		Usage:   "Strategy YAML file. Overrides --preset",
	}
}

func presetFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "preset",
		Aliases: []string{"p"},
		Usage:   "Built-in strategy preset",
		Value:   strategy.PresetConfluence,
	}
}

func loadStrategy(cmd *cli.Command) (strategy.StrategyConfig, error) {
	if path := cmd.String("strategy"); path != "" {
		return strategy.LoadConfig(path)
	}

	return strategy.Preset(cmd.String("preset"))
}

func newCLILogger(cmd *cli.Command) (*logger.Logger, error) {
	return logger.NewLoggerWithConfig(logger.Config{
		Level:      cmd.String("log-level"),
		FilePath:   cmd.String("log-file"),
		MaxSize:    100,
		MaxAge:     30,
		MaxBackups: 7,
		Compress:   false,
	})
}
