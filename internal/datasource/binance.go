package datasource

import (
	"context"
	"fmt"
	"strconv"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// binancePageSize is the largest page the klines endpoint returns.
const binancePageSize = 1000

// KlineFetcher fetches one page of klines.
type KlineFetcher interface {
	FetchKlines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error)
}

type binanceKlineFetcher struct {
	client *binance.Client
}

func (f *binanceKlineFetcher) FetchKlines(ctx context.Context, symbol, interval string, start, end int64, limit int) ([]*binance.Kline, error) {
	return f.client.NewKlinesService().
		Symbol(symbol).
		Interval(interval).
		StartTime(start).
		EndTime(end).
		Limit(limit).
		Do(ctx)
}

// BinanceProvider downloads spot klines from the public Binance API.
type BinanceProvider struct {
	fetcher KlineFetcher
}

// NewBinanceProvider creates a provider using an unauthenticated Binance client.
func NewBinanceProvider() *BinanceProvider {
	return NewBinanceProviderWithFetcher(&binanceKlineFetcher{client: binance.NewClient("", "")})
}

// NewBinanceProviderWithFetcher creates a provider around a custom fetcher.
func NewBinanceProviderWithFetcher(fetcher KlineFetcher) *BinanceProvider {
	return &BinanceProvider{fetcher: fetcher}
}

// Download implements Provider. It pages forward from the close time of the
// last kline until a short page or the end of the range.
func (p *BinanceProvider) Download(ctx context.Context, request DownloadRequest, writer CandleWriter, onProgress OnDownloadProgress) (string, error) {
	if err := request.validate(); err != nil {
		return "", err
	}

	interval, err := request.Interval.binanceInterval()
	if err != nil {
		return "", err
	}

	return download(writer, func() error {
		start := request.Start.UnixMilli()
		end := request.End.UnixMilli()
		current := start

		for current < end {
			klines, err := p.fetcher.FetchKlines(ctx, request.Symbol, interval, current, end, binancePageSize)
			if err != nil {
				return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to fetch %s klines from Binance", request.Symbol)
			}

			if err := writeKlines(writer, request.Symbol, klines); err != nil {
				return err
			}

			if onProgress != nil {
				onProgress(float64(current-start), float64(end-start), fmt.Sprintf("Downloading %s klines from Binance", request.Symbol))
			}

			if len(klines) < binancePageSize {
				break
			}

			current = klines[len(klines)-1].CloseTime + 1
		}

		if onProgress != nil {
			onProgress(float64(end-start), float64(end-start), "Download complete")
		}

		return nil
	})
}

func writeKlines(writer CandleWriter, symbol string, klines []*binance.Kline) error {
	for _, k := range klines {
		candle, err := klineToCandle(symbol, k)
		if err != nil {
			return err
		}

		if err := writer.Write(candle); err != nil {
			return err
		}
	}

	return nil
}

func klineToCandle(symbol string, k *binance.Kline) (types.Candle, error) {
	return parseCandle(symbol, k.OpenTime, k.Open, k.High, k.Low, k.Close, k.Volume)
}

// parseCandle converts the decimal strings Binance returns into a candle
// opening at openTime, given in epoch milliseconds.
func parseCandle(symbol string, openTime int64, open, high, low, closePrice, volume string) (types.Candle, error) {
	values := make([]float64, 5)

	for i, raw := range []string{open, high, low, closePrice, volume} {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return types.Candle{}, errors.Wrapf(errors.ErrCodeInvalidCandle, err, "kline at %d has an invalid number %q", openTime, raw) //nolint:exhaustruct // error path
		}

		values[i] = v
	}

	return types.Candle{
		Symbol: symbol,
		Time:   time.UnixMilli(openTime).UTC(),
		Open:   values[0],
		High:   values[1],
		Low:    values[2],
		Close:  values[3],
		Volume: values[4],
	}, nil
}
