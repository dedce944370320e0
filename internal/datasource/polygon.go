package datasource

import (
	"context"
	"fmt"
	"time"

	polygon "github.com/polygon-io/client-go/rest"
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// polygonPageSize is the aggregate limit requested per page.
const polygonPageSize = 50000

// PolygonProvider downloads aggregates from polygon.io. Crypto pairs use
// polygon's X: ticker prefix, for example X:BTCUSD.
type PolygonProvider struct {
	client *polygon.Client
}

// NewPolygonProvider creates a provider. apiKey is required.
func NewPolygonProvider(apiKey string) (*PolygonProvider, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "polygon provider requires an API key")
	}

	return &PolygonProvider{client: polygon.New(apiKey)}, nil
}

// Download implements Provider. Progress is reported in elapsed minutes of the range.
func (p *PolygonProvider) Download(ctx context.Context, request DownloadRequest, writer CandleWriter, onProgress OnDownloadProgress) (string, error) {
	if err := request.validate(); err != nil {
		return "", err
	}

	multiplier, timespan, err := request.Interval.polygonTimespan()
	if err != nil {
		return "", err
	}

	return download(writer, func() error {
		//nolint:exhaustruct // third-party struct with many optional fields
		params := models.ListAggsParams{
			Ticker:     request.Symbol,
			Multiplier: multiplier,
			Timespan:   timespan,
			From:       models.Millis(request.Start),
			To:         models.Millis(request.End),
		}.WithLimit(polygonPageSize)

		total := request.End.Sub(request.Start).Minutes()
		iter := p.client.ListAggs(ctx, params)

		for iter.Next() {
			agg := iter.Item()

			candle := aggToCandle(request.Symbol, agg)
			if err := writer.Write(candle); err != nil {
				return err
			}

			if onProgress != nil {
				onProgress(candle.Time.Sub(request.Start).Minutes(), total, fmt.Sprintf("Downloading %s from Polygon", request.Symbol))
			}
		}

		if err := iter.Err(); err != nil {
			return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to list %s aggregates from Polygon", request.Symbol)
		}

		return nil
	})
}

func aggToCandle(symbol string, agg models.Agg) types.Candle {
	return types.Candle{
		Symbol: symbol,
		Time:   time.Time(agg.Timestamp).UTC(),
		Open:   agg.Open,
		High:   agg.High,
		Low:    agg.Low,
		Close:  agg.Close,
		Volume: agg.Volume,
	}
}
