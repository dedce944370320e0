// Package config loads the settings of the long-running signal service.
//
// Values come from a YAML file, then ARGO_SIGNALS_* environment variables
// (dots become underscores, so ARGO_SIGNALS_REDIS_URL sets redis.url).
package config

import (
	stderrors "errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/publisher"
	"github.com/rxtech-lab/argo-signals/internal/strategy"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/spf13/viper"
)

const envPrefix = "ARGO_SIGNALS"

// Config is the service configuration.
type Config struct {
	Log      logger.Config         `mapstructure:"log"`
	Server   ServerConfig          `mapstructure:"server"`
	Stream   StreamConfig          `mapstructure:"stream"`
	Strategy StrategySource        `mapstructure:"strategy"`
	Engine   EngineConfig          `mapstructure:"engine"`
	Redis    publisher.RedisConfig `mapstructure:"redis"`
}

// ServerConfig controls the HTTP API.
type ServerConfig struct {
	Address string `mapstructure:"address" validate:"required"`
	// Metrics exposes /metrics when true.
	Metrics bool `mapstructure:"metrics"`
}

// StreamConfig selects the live candles fed into the engine.
type StreamConfig struct {
	Symbol   string `mapstructure:"symbol" validate:"required"`
	Interval string `mapstructure:"interval" validate:"required"`
	// Warmup is the number of closed candles downloaded before streaming starts.
	Warmup int `mapstructure:"warmup" validate:"gte=0"`
}

// StrategySource names a preset or a YAML strategy file. File wins when both are set.
type StrategySource struct {
	Preset string `mapstructure:"preset"`
	File   string `mapstructure:"file"`
}

// EngineConfig tunes the engine buffers and evaluation cadence.
type EngineConfig struct {
	WindowSize        int           `mapstructure:"window_size" validate:"gt=0"`
	SignalHistorySize int           `mapstructure:"signal_history_size" validate:"gt=0"`
	BufferSize        int           `mapstructure:"buffer_size" validate:"gt=0"`
	Debounce          time.Duration `mapstructure:"debounce" validate:"gt=0"`
}

// Load reads the config at path. An empty path searches ./configs and the
// working directory for config.yaml and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !stderrors.As(err, &notFound) {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to read config", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to decode config", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file_path", "")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_age", 30)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.compress", false)
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.metrics", true)
	v.SetDefault("stream.symbol", "BTCUSDT")
	v.SetDefault("stream.interval", string(datasource.Interval1m))
	v.SetDefault("stream.warmup", engine.DefaultWindowSize)
	v.SetDefault("strategy.preset", strategy.PresetConfluence)
	v.SetDefault("strategy.file", "")
	v.SetDefault("engine.window_size", engine.DefaultWindowSize)
	v.SetDefault("engine.signal_history_size", engine.DefaultSignalHistorySize)
	v.SetDefault("engine.buffer_size", engine.DefaultBufferSize)
	v.SetDefault("engine.debounce", engine.DefaultDebounce)
	v.SetDefault("redis.url", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", publisher.DefaultChannel)
	v.SetDefault("redis.history_size", publisher.DefaultHistorySize)
}

// Validate checks required fields, the interval and the strategy source.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	if _, err := datasource.Interval(c.Stream.Interval).Minutes(); err != nil {
		return err
	}

	if c.Strategy.File == "" && c.Strategy.Preset == "" {
		return errors.New(errors.ErrCodeMissingParameter, "strategy.preset or strategy.file is required")
	}

	return nil
}

// LoadStrategy resolves the configured strategy.
func (c *Config) LoadStrategy() (strategy.StrategyConfig, error) {
	if c.Strategy.File != "" {
		return strategy.LoadConfig(c.Strategy.File)
	}

	return strategy.Preset(c.Strategy.Preset)
}

// EngineOptions translates the engine settings into engine options.
func (c *Config) EngineOptions() []engine.Option {
	return []engine.Option{
		engine.WithTimeframe(c.Stream.Interval),
		engine.WithWindowSize(c.Engine.WindowSize),
		engine.WithSignalHistorySize(c.Engine.SignalHistorySize),
		engine.WithBufferSize(c.Engine.BufferSize),
		engine.WithDebounce(c.Engine.Debounce),
	}
}
