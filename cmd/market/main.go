package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
)

// progressSteps is the resolution of the download progress bar.
const progressSteps = 1000

// downloadParams are the parsed flags of a download.
type downloadParams struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval datasource.Interval
	DataPath string
	Format   string
}

// outputPath builds <data>/<symbol>_<start>_<end>_<interval>.<format>.
func (p downloadParams) outputPath() string {
	name := fmt.Sprintf("%s_%s_%s_%s.%s",
		strings.ReplaceAll(p.Symbol, ":", "_"),
		p.Start.Format("2006-01-02"),
		p.End.Format("2006-01-02"),
		p.Interval,
		p.Format,
	)

	return filepath.Join(p.DataPath, name)
}

// runDownload downloads the candles into a DuckDB-backed file and reports
// progress on out.
func runDownload(ctx context.Context, provider datasource.Provider, params downloadParams, out io.Writer) (string, error) {
	if err := os.MkdirAll(params.DataPath, 0755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	bar := progressbar.NewOptions(progressSteps,
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetDescription(fmt.Sprintf("Downloading %s", params.Symbol)),
		progressbar.OptionShowElapsedTimeOnFinish(),
	)

	request := datasource.DownloadRequest{
		Symbol:   params.Symbol,
		Start:    params.Start,
		End:      params.End,
		Interval: params.Interval,
	}

	writer := datasource.NewDuckDBWriter(params.outputPath())

	path, err := provider.Download(ctx, request, writer, func(current, total float64, message string) {
		if total <= 0 {
			return
		}

		bar.Describe(message)
		_ = bar.Set(int(min(current/total, 1) * progressSteps))
	})
	if err != nil {
		return "", fmt.Errorf("download failed: %w", err)
	}

	_ = bar.Finish()

	return path, nil
}

// downloadAction is the core logic executed by the CLI command.
// It parses arguments, sets up the provider, and starts the download process.
func downloadAction(ctx context.Context, cmd *cli.Command) error {
	params := downloadParams{
		Symbol:   cmd.String("ticker"),
		Start:    cmd.Timestamp("start"),
		End:      cmd.Timestamp("end"),
		Interval: datasource.Interval(cmd.String("interval")),
		DataPath: cmd.String("data"),
		Format:   cmd.String("format"),
	}

	if params.Format != "parquet" && params.Format != "csv" {
		return fmt.Errorf("unsupported output format %q, use parquet or csv", params.Format)
	}

	provider, err := datasource.NewProvider(datasource.ProviderType(cmd.String("provider")), os.Getenv("POLYGON_API_KEY"))
	if err != nil {
		return fmt.Errorf("failed to create market data provider: %w", err)
	}

	log.Printf("Starting download for %s from %s to %s at %s using %s...",
		params.Symbol, params.Start.Format("2006-01-02"), params.End.Format("2006-01-02"), params.Interval, cmd.String("provider"))

	path, err := runDownload(ctx, provider, params, os.Stderr)
	if err != nil {
		return err
	}

	log.Printf("Download completed successfully: %s", path)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "market",
		Usage: "Download historical crypto candles",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "ticker",
				Aliases:  []string{"t"},
				Usage:    "Symbol to download (BTCUSDT on Binance, X:BTCUSD on Polygon)",
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "start",
				Aliases: []string{"s"},
				Usage:   "Start date in `YYYY-MM-DD` format",
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
				Required: true,
			},
			&cli.TimestampFlag{
				Name:    "end",
				Aliases: []string{"e"},
				Usage:   "End date in `YYYY-MM-DD` format. Defaults to today.",
				Value:   time.Now(),
				Config: cli.TimestampConfig{
					Layouts: []string{"2006-01-02"},
				},
			},
			&cli.StringFlag{
				Name:    "provider",
				Aliases: []string{"p"},
				Usage:   fmt.Sprintf("Data provider to use (%s, %s)", datasource.ProviderBinance, datasource.ProviderPolygon),
				Value:   string(datasource.ProviderBinance),
			},
			&cli.StringFlag{
				Name:    "interval",
				Aliases: []string{"i"},
				Usage:   "Candle interval (1m, 5m, 15m, 30m, 1h, 4h, 6h, 8h, 12h, 1d, 1w)",
				Value:   string(datasource.Interval1m),
			},
			&cli.StringFlag{
				Name:    "data",
				Aliases: []string{"d"},
				Usage:   "Path to the data output directory",
				Value:   "data",
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format (parquet, csv)",
				Value:   "parquet",
			},
		},
		Action: downloadAction,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
