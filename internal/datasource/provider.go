package datasource

import (
	"context"
	"time"

	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// ProviderType names a historical candle provider.
type ProviderType string

const (
	ProviderBinance ProviderType = "binance"
	ProviderPolygon ProviderType = "polygon"
)

// OnDownloadProgress reports download progress. current and total share a unit
// chosen by the provider.
type OnDownloadProgress = func(current float64, total float64, message string)

// DownloadRequest describes a historical download.
type DownloadRequest struct {
	Symbol   string
	Start    time.Time
	End      time.Time
	Interval Interval
}

func (r DownloadRequest) validate() error {
	if r.Symbol == "" {
		return errors.New(errors.ErrCodeMissingParameter, "symbol is required")
	}

	if !r.End.After(r.Start) {
		return errors.Newf(errors.ErrCodeInvalidParameter, "end %s must be after start %s", r.End, r.Start)
	}

	_, err := r.Interval.Minutes()

	return err
}

// Provider downloads historical candles into a CandleWriter.
type Provider interface {
	// Download fetches the requested candles, writes them and returns the output path.
	Download(ctx context.Context, request DownloadRequest, writer CandleWriter, onProgress OnDownloadProgress) (string, error)
}

// NewProvider creates a provider. Polygon requires an API key.
func NewProvider(providerType ProviderType, apiKey string) (Provider, error) {
	switch providerType {
	case ProviderBinance:
		return NewBinanceProvider(), nil
	case ProviderPolygon:
		return NewPolygonProvider(apiKey)
	default:
		return nil, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported market data provider: %s", providerType)
	}
}

// download runs the shared writer lifecycle around fetch.
func download(writer CandleWriter, fetch func() error) (path string, err error) {
	if writer == nil {
		return "", errors.New(errors.ErrCodeMissingParameter, "writer is not configured")
	}

	if err := writer.Initialize(); err != nil {
		return "", err
	}

	defer func() {
		if cerr := writer.Close(); cerr != nil && err == nil {
			err = errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to close writer", cerr)
		}
	}()

	if err := fetch(); err != nil {
		return "", err
	}

	return writer.Finalize()
}
