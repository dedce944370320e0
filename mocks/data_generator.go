package mocks

import (
	"math"
	"math/rand"
	"time"

	"github.com/rxtech-lab/argo-signals/internal/types"
)

// CandleGenerator generates reproducible candle series for tests.
type CandleGenerator struct {
	rng *rand.Rand
}

// NewCandleGenerator creates a new CandleGenerator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewCandleGenerator(seed int64) *CandleGenerator {
	return &CandleGenerator{
		rng: rand.New(rand.NewSource(seed)), //nolint:gosec // test data only
	}
}

// GeneratorConfig configures how candles are generated.
type GeneratorConfig struct {
	// Symbol is the trading pair (e.g., "BTCUSDT")
	Symbol string
	// StartTime is the timestamp of the first candle
	StartTime time.Time
	// Interval is the duration between candles
	Interval time.Duration
	// Count is the number of candles to generate
	Count int
	// InitialPrice is the open of the first candle
	InitialPrice float64
	// Volatility is the per-bar standard deviation of returns (0.01 = 1%)
	Volatility float64
	// Drift is the per-bar expected return, positive for an uptrend
	Drift float64
	// VolumeBase is the average volume per candle
	VolumeBase float64
	// VolumeVariance is the relative spread of volume around VolumeBase (0.0 to 1.0)
	VolumeVariance float64
}

// DefaultGeneratorConfig returns 200 one-minute BTCUSDT candles starting at midnight UTC.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Symbol:         "BTCUSDT",
		StartTime:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Interval:       time.Minute,
		Count:          200,
		InitialPrice:   40000,
		Volatility:     0.002,
		Drift:          0,
		VolumeBase:     100,
		VolumeVariance: 0.3,
	}
}

// Generate creates candles following a geometric Brownian motion.
// Every candle satisfies types.Candle.Validate.
func (g *CandleGenerator) Generate(config GeneratorConfig) []types.Candle {
	candles := make([]types.Candle, config.Count)
	price := config.InitialPrice
	timestamp := config.StartTime

	for i := range candles {
		open := price

		// Box-Muller transform for a standard normal draw
		u1 := 1 - g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		closePrice := open * (1 + config.Drift + config.Volatility*z)
		if closePrice <= 0 {
			closePrice = open * 0.99
		}

		high := math.Max(open, closePrice) + g.rng.Float64()*config.Volatility*open*0.5
		low := math.Min(open, closePrice) - g.rng.Float64()*config.Volatility*open*0.5

		if low <= 0 {
			low = math.Min(open, closePrice) * 0.99
		}

		volume := config.VolumeBase * (1 + (g.rng.Float64()*2-1)*config.VolumeVariance)
		if volume < 0 {
			volume = config.VolumeBase * 0.1
		}

		candles[i] = types.Candle{
			Symbol: config.Symbol,
			Time:   timestamp,
			Open:   roundToDecimals(open, 4),
			High:   roundToDecimals(high, 4),
			Low:    roundToDecimals(low, 4),
			Close:  roundToDecimals(closePrice, 4),
			Volume: roundToDecimals(volume, 2),
		}

		price = closePrice
		timestamp = timestamp.Add(config.Interval)
	}

	return candles
}

// GenerateFromCloses builds candles around a fixed close path. Each bar opens at
// the previous close and extends spread (a fraction of price) above and below
// its body, with constant volume.
func GenerateFromCloses(symbol string, start time.Time, interval time.Duration, closes []float64, spread, volume float64) []types.Candle {
	candles := make([]types.Candle, len(closes))

	for i, closePrice := range closes {
		open := closePrice
		if i > 0 {
			open = closes[i-1]
		}

		candles[i] = types.Candle{
			Symbol: symbol,
			Time:   start.Add(time.Duration(i) * interval),
			Open:   open,
			High:   math.Max(open, closePrice) * (1 + spread),
			Low:    math.Min(open, closePrice) * (1 - spread),
			Close:  closePrice,
			Volume: volume,
		}
	}

	return candles
}

// Generate200 returns the default 200 candle series with a fixed seed.
func Generate200(symbol string) []types.Candle {
	config := DefaultGeneratorConfig()
	config.Symbol = symbol

	return NewCandleGenerator(42).Generate(config)
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))

	return math.Round(val*pow) / pow
}
