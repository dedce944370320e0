package indicator

import (
	"github.com/moznion/go-optional"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

// MinimumBars is the history the aggregator needs before it computes anything.
const MinimumBars = 50

// MomentumConfig configures the momentum family. Zero fields use the scorer default.
type MomentumConfig struct {
	RSIPeriod         int `yaml:"rsi_period" json:"rsi_period"`
	StochasticKPeriod int `yaml:"stochastic_k_period" json:"stochastic_k_period"`
	StochasticDPeriod int `yaml:"stochastic_d_period" json:"stochastic_d_period"`
	WilliamsRPeriod   int `yaml:"williams_r_period" json:"williams_r_period"`
	ROCPeriod         int `yaml:"roc_period" json:"roc_period"`
	CCIPeriod         int `yaml:"cci_period" json:"cci_period"`
	MFIPeriod         int `yaml:"mfi_period" json:"mfi_period"`
}

// TrendConfig configures the trend and volatility family. Zero fields use the scorer default.
type TrendConfig struct {
	MACDFastPeriod       int     `yaml:"macd_fast_period" json:"macd_fast_period"`
	MACDSlowPeriod       int     `yaml:"macd_slow_period" json:"macd_slow_period"`
	MACDSignalPeriod     int     `yaml:"macd_signal_period" json:"macd_signal_period"`
	BollingerPeriod      int     `yaml:"bollinger_period" json:"bollinger_period"`
	BollingerStdDev      float64 `yaml:"bollinger_std_dev" json:"bollinger_std_dev"`
	ATRPeriod            int     `yaml:"atr_period" json:"atr_period"`
	SARStep              float64 `yaml:"sar_step" json:"sar_step"`
	SARMaxStep           float64 `yaml:"sar_max_step" json:"sar_max_step"`
	IchimokuTenkanPeriod int     `yaml:"ichimoku_tenkan_period" json:"ichimoku_tenkan_period"`
	IchimokuKijunPeriod  int     `yaml:"ichimoku_kijun_period" json:"ichimoku_kijun_period"`
	IchimokuSenkouPeriod int     `yaml:"ichimoku_senkou_period" json:"ichimoku_senkou_period"`
	ADXPeriod            int     `yaml:"adx_period" json:"adx_period"`
	EMAFastPeriod        int     `yaml:"ema_fast_period" json:"ema_fast_period"`
	EMASlowPeriod        int     `yaml:"ema_slow_period" json:"ema_slow_period"`
}

// VolumeConfig configures the volume family. Zero fields use the scorer default.
type VolumeConfig struct {
	VWAPPeriod       int `yaml:"vwap_period" json:"vwap_period"`
	CMFPeriod        int `yaml:"cmf_period" json:"cmf_period"`
	VROCPeriod       int `yaml:"vroc_period" json:"vroc_period"`
	DivergenceWindow int `yaml:"divergence_window" json:"divergence_window"`
}

// Config selects the indicator families to compute. A None family is skipped.
type Config struct {
	Momentum optional.Option[MomentumConfig]
	Trend    optional.Option[TrendConfig]
	Volume   optional.Option[VolumeConfig]
}

// DefaultConfig enables every family with default parameters.
func DefaultConfig() Config {
	return Config{
		Momentum: optional.Some(MomentumConfig{}), //nolint:exhaustruct // zero fields select defaults
		Trend:    optional.Some(TrendConfig{}),    //nolint:exhaustruct // zero fields select defaults
		Volume:   optional.Some(VolumeConfig{}),   //nolint:exhaustruct // zero fields select defaults
	}
}

// Families returns the indicator types a config computes.
func (c Config) Families() []types.IndicatorType {
	names := []types.IndicatorType{}

	if c.Momentum.IsSome() {
		names = append(names, types.IndicatorTypeRSI, types.IndicatorTypeStochastic, types.IndicatorTypeWilliamsR,
			types.IndicatorTypeROC, types.IndicatorTypeCCI, types.IndicatorTypeMFI)
	}

	if c.Trend.IsSome() {
		names = append(names, types.IndicatorTypeMACD, types.IndicatorTypeBollingerBands, types.IndicatorTypeATR,
			types.IndicatorTypeParabolicSAR, types.IndicatorTypeIchimoku, types.IndicatorTypeADX, types.IndicatorTypeEMA)
	}

	if c.Volume.IsSome() {
		names = append(names, types.IndicatorTypeOBV, types.IndicatorTypeVWAP, types.IndicatorTypeADLine,
			types.IndicatorTypeCMF, types.IndicatorTypeVROC, types.IndicatorTypePVT)
	}

	return names
}

// Aggregator runs the configured scorers over a candle window.
type Aggregator struct {
	config Config
	logger *logger.Logger
}

// NewAggregator creates an aggregator for the given families.
func NewAggregator(config Config, log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Aggregator{
		config: config,
		logger: log,
	}
}

// CalculateAllIndicators runs every scorer selected by config. It never fails: a
// window shorter than MinimumBars yields an empty suite and a scorer that cannot
// be configured or computed is left out.
func CalculateAllIndicators(candles []types.Candle, config Config) types.Suite {
	return NewAggregator(config, nil).Calculate(candles)
}

// Calculate runs the configured scorers over candles.
func (a *Aggregator) Calculate(candles []types.Candle) types.Suite {
	suite := types.Suite{}
	if len(candles) < MinimumBars {
		return suite
	}

	series := NewSeries(candles)

	for _, configured := range a.scorers() {
		if err := configured.indicator.Config(configured.params...); err != nil {
			a.logger.Warn("Failed to configure indicator",
				zap.String("indicator", string(configured.indicator.Name())),
				zap.Error(err),
			)

			continue
		}

		results, err := configured.indicator.Calculate(series)
		if err != nil {
			a.logger.Warn("Failed to calculate indicator",
				zap.String("indicator", string(configured.indicator.Name())),
				zap.Error(err),
			)

			continue
		}

		suite[configured.indicator.Name()] = results
	}

	return suite
}

type configuredIndicator struct {
	indicator Indicator
	params    []any
}

func (a *Aggregator) scorers() []configuredIndicator {
	scorers := []configuredIndicator{}

	if cfg, err := a.config.Momentum.Take(); err == nil {
		scorers = append(scorers,
			configuredIndicator{NewRSI(), []any{orInt(cfg.RSIPeriod, 14)}},
			configuredIndicator{NewStochastic(), []any{orInt(cfg.StochasticKPeriod, 14), orInt(cfg.StochasticDPeriod, 3)}},
			configuredIndicator{NewWilliamsR(), []any{orInt(cfg.WilliamsRPeriod, 14)}},
			configuredIndicator{NewROC(), []any{orInt(cfg.ROCPeriod, 12)}},
			configuredIndicator{NewCCI(), []any{orInt(cfg.CCIPeriod, 20)}},
			configuredIndicator{NewMFI(), []any{orInt(cfg.MFIPeriod, 14)}},
		)
	}

	if cfg, err := a.config.Trend.Take(); err == nil {
		scorers = append(scorers,
			configuredIndicator{NewMACD(), []any{
				orInt(cfg.MACDFastPeriod, 12), orInt(cfg.MACDSlowPeriod, 26), orInt(cfg.MACDSignalPeriod, 9),
			}},
			configuredIndicator{NewBollingerBands(), []any{orInt(cfg.BollingerPeriod, 20), orFloat(cfg.BollingerStdDev, 2)}},
			configuredIndicator{NewATR(), []any{orInt(cfg.ATRPeriod, 14)}},
			configuredIndicator{NewParabolicSAR(), []any{orFloat(cfg.SARStep, 0.02), orFloat(cfg.SARMaxStep, 0.2)}},
			configuredIndicator{NewIchimoku(), []any{
				orInt(cfg.IchimokuTenkanPeriod, 9), orInt(cfg.IchimokuKijunPeriod, 26), orInt(cfg.IchimokuSenkouPeriod, 52),
			}},
			configuredIndicator{NewADX(), []any{orInt(cfg.ADXPeriod, 14)}},
			configuredIndicator{NewEMATrend(), []any{orInt(cfg.EMAFastPeriod, 20), orInt(cfg.EMASlowPeriod, 50)}},
		)
	}

	if cfg, err := a.config.Volume.Take(); err == nil {
		window := orInt(cfg.DivergenceWindow, defaultDivergenceWindow)

		scorers = append(scorers,
			configuredIndicator{NewOBV(), []any{window}},
			configuredIndicator{NewVWAPDeviation(), []any{orInt(cfg.VWAPPeriod, 20)}},
			configuredIndicator{NewADLine(), []any{window}},
			configuredIndicator{NewCMF(), []any{orInt(cfg.CMFPeriod, 20)}},
			configuredIndicator{NewVROC(), []any{orInt(cfg.VROCPeriod, 14)}},
			configuredIndicator{NewPVT(), []any{window}},
		)
	}

	return scorers
}

// LatestReadings converts the last result of every series into a reading, sorted by name.
func LatestReadings(suite types.Suite) []types.IndicatorReading {
	readings := make([]types.IndicatorReading, 0, len(suite))

	for _, name := range suite.Names() {
		latest, ok := suite.Latest(name)
		if !ok {
			continue
		}

		readings = append(readings, types.IndicatorReading{
			Name:       name,
			Value:      latest.Value,
			Signal:     latest.Signal,
			Strength:   latest.Strength,
			Confidence: optional.None[float64](),
			Timestamp:  latest.Time,
		})
	}

	return readings
}

func orInt(v, fallback int) int {
	if v <= 0 {
		return fallback
	}

	return v
}

func orFloat(v, fallback float64) float64 {
	if v <= 0 {
		return fallback
	}

	return v
}
