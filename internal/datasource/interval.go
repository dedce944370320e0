package datasource

import (
	"github.com/polygon-io/client-go/rest/models"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

// Interval is a candle timeframe such as 1m or 4h.
type Interval string

const (
	Interval1m  Interval = "1m"
	Interval5m  Interval = "5m"
	Interval15m Interval = "15m"
	Interval30m Interval = "30m"
	Interval1h  Interval = "1h"
	Interval4h  Interval = "4h"
	Interval6h  Interval = "6h"
	Interval8h  Interval = "8h"
	Interval12h Interval = "12h"
	Interval1d  Interval = "1d"
	Interval1w  Interval = "1w"
)

// Minutes returns the length of the interval in minutes.
func (i Interval) Minutes() (int, error) {
	switch i {
	case Interval1m:
		return 1, nil
	case Interval5m:
		return 5, nil
	case Interval15m:
		return 15, nil
	case Interval30m:
		return 30, nil
	case Interval1h:
		return 60, nil
	case Interval4h:
		return 240, nil
	case Interval6h:
		return 360, nil
	case Interval8h:
		return 480, nil
	case Interval12h:
		return 720, nil
	case Interval1d:
		return 1440, nil
	case Interval1w:
		return 10080, nil
	default:
		return 0, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported interval: %s", i)
	}
}

// polygonTimespan converts the interval into polygon's multiplier and timespan.
func (i Interval) polygonTimespan() (int, models.Timespan, error) {
	minutes, err := i.Minutes()
	if err != nil {
		return 0, "", err
	}

	switch {
	case minutes%10080 == 0:
		return minutes / 10080, models.Week, nil
	case minutes%1440 == 0:
		return minutes / 1440, models.Day, nil
	case minutes%60 == 0:
		return minutes / 60, models.Hour, nil
	default:
		return minutes, models.Minute, nil
	}
}

// binanceInterval returns the kline interval string Binance expects.
func (i Interval) binanceInterval() (string, error) {
	if _, err := i.Minutes(); err != nil {
		return "", err
	}

	return string(i), nil
}
