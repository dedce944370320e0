package indicator

import (
	"math"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

var testStart = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// buildCandles creates candles that open at the previous close and extend 1%
// beyond their body. volumes may be nil for a constant 1000.
func buildCandles(closes []float64, volumes []float64) []types.Candle {
	candles := make([]types.Candle, len(closes))

	for i, c := range closes {
		open := c
		if i > 0 {
			open = closes[i-1]
		}

		volume := 1000.0
		if volumes != nil {
			volume = volumes[i]
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

func buildSeries(closes []float64, volumes []float64) Series {
	return NewSeries(buildCandles(closes, volumes))
}

// waveCloses oscillates around a slowly rising base.
func waveCloses(n int) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = 100 + 10*math.Sin(float64(i)/5) + 0.1*float64(i)
	}

	return closes
}

func waveVolumes(n int) []float64 {
	volumes := make([]float64, n)
	for i := range volumes {
		volumes[i] = 1000 + float64(i%7)*150
	}

	return volumes
}

func linearCloses(n int, start, step float64) []float64 {
	closes := make([]float64, n)
	for i := range closes {
		closes[i] = start + step*float64(i)
	}

	return closes
}

func constantCloses(n int, value float64) []float64 {
	return linearCloses(n, value, 0)
}
