// Package publisher fans published signals out to external consumers.
package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"go.uber.org/zap"
)

const (
	DefaultChannel     = "argo:signals"
	DefaultHistorySize = 500
	defaultTimeout     = 3 * time.Second
)

// RedisConfig selects the server and the keys signals are written to.
type RedisConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Password string `mapstructure:"password" yaml:"password"`
	DB       int    `mapstructure:"db" yaml:"db"`
	// Channel is the pub/sub channel. The per-symbol history sorted set is "<Channel>:history:<symbol>".
	Channel string `mapstructure:"channel" yaml:"channel"`
	// HistorySize caps the history kept per symbol.
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`
}

// Publisher delivers a signal somewhere.
type Publisher interface {
	Publish(ctx context.Context, signal types.StrategySignal) error
	Close() error
}

// redisCommands is the subset of *redis.Client the publisher uses.
type redisCommands interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
	ZAdd(ctx context.Context, key string, members ...*redis.Z) *redis.IntCmd
	ZRemRangeByRank(ctx context.Context, key string, start, stop int64) *redis.IntCmd
	Close() error
}

// RedisPublisher publishes every signal as JSON on a channel and keeps a
// bounded, time-ordered history per symbol.
type RedisPublisher struct {
	client      redisCommands
	channel     string
	historySize int
	logger      *logger.Logger
}

// NewRedisPublisher connects to Redis and checks the connection.
func NewRedisPublisher(ctx context.Context, config RedisConfig, log *logger.Logger) (*RedisPublisher, error) {
	if config.URL == "" {
		return nil, errors.New(errors.ErrCodeMissingParameter, "redis url is required")
	}

	client := redis.NewClient(&redis.Options{ //nolint:exhaustruct // remaining options use redis defaults
		Addr:     config.URL,
		Password: config.Password,
		DB:       config.DB,
	})

	publisher := newRedisPublisher(client, config, log)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()

		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to connect to redis at %s", config.URL)
	}

	publisher.logger.Info("Connected to redis", zap.String("addr", config.URL), zap.String("channel", publisher.channel))

	return publisher, nil
}

func newRedisPublisher(client redisCommands, config RedisConfig, log *logger.Logger) *RedisPublisher {
	channel := config.Channel
	if channel == "" {
		channel = DefaultChannel
	}

	historySize := config.HistorySize
	if historySize <= 0 {
		historySize = DefaultHistorySize
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &RedisPublisher{
		client:      client,
		channel:     channel,
		historySize: historySize,
		logger:      log,
	}
}

// HistoryKey returns the sorted set holding the signal history of a symbol.
func (p *RedisPublisher) HistoryKey(symbol string) string {
	return fmt.Sprintf("%s:history:%s", p.channel, symbol)
}

// Publish implements Publisher.
func (p *RedisPublisher) Publish(ctx context.Context, signal types.StrategySignal) error {
	payload, err := json.Marshal(signal)
	if err != nil {
		return errors.Wrap(errors.ErrCodePublishFailed, "failed to encode signal", err)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		return errors.Wrapf(errors.ErrCodePublishFailed, err, "failed to publish signal %s", signal.ID)
	}

	key := p.HistoryKey(signal.Metadata.Symbol)

	err = p.client.ZAdd(ctx, key, &redis.Z{
		Score:  float64(signal.Timestamp.UnixMilli()),
		Member: payload,
	}).Err()
	if err != nil {
		return errors.Wrapf(errors.ErrCodePublishFailed, err, "failed to store signal %s", signal.ID)
	}

	// keep the newest historySize members
	if err := p.client.ZRemRangeByRank(ctx, key, 0, int64(-p.historySize-1)).Err(); err != nil {
		p.logger.Warn("Failed to trim signal history", zap.String("key", key), zap.Error(err))
	}

	p.logger.Debug("Published signal to redis",
		zap.String("id", signal.ID),
		zap.String("channel", p.channel),
	)

	return nil
}

// Close implements Publisher.
func (p *RedisPublisher) Close() error {
	return p.client.Close()
}

var _ Publisher = (*RedisPublisher)(nil)
