package strategy

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// candlesFromCloses builds one minute candles that open at the previous close.
func candlesFromCloses(closes []float64, volume float64) []types.Candle {
	candles := make([]types.Candle, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		candles[i] = types.Candle{
			Symbol: "BTCUSDT",
			Time:   testStart.Add(time.Duration(i) * time.Minute),
			Open:   open,
			High:   math.Max(open, c) * 1.01,
			Low:    math.Min(open, c) * 0.99,
			Close:  c,
			Volume: volume,
		}
	}

	return candles
}

func flatCandles(n int, price float64) []types.Candle {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = price
	}

	return candlesFromCloses(closes, 1000)
}

func newScalarReading(name types.IndicatorType, value float64, signal types.Direction, strength float64) types.IndicatorReading {
	return types.IndicatorReading{
		Name:      name,
		Value:     types.Scalar(value),
		Signal:    signal,
		Strength:  strength,
		Timestamp: testStart,
	}
}

func newNamedReading(name types.IndicatorType, values map[string]float64, signal types.Direction, strength float64) types.IndicatorReading {
	return types.IndicatorReading{
		Name:      name,
		Value:     types.Named(values),
		Signal:    signal,
		Strength:  strength,
		Timestamp: testStart,
	}
}

func readingsOf(readings ...types.IndicatorReading) map[types.IndicatorType]types.IndicatorReading {
	out := make(map[types.IndicatorType]types.IndicatorReading, len(readings))
	for _, r := range readings {
		out[r.Name] = r
	}

	return out
}
