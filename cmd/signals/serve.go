package main

import (
	"context"
	"iter"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rxtech-lab/argo-signals/internal/api"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/datasource"
	"github.com/rxtech-lab/argo-signals/internal/engine"
	"github.com/rxtech-lab/argo-signals/internal/indicator"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/metrics"
	"github.com/rxtech-lab/argo-signals/internal/publisher"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Stream live Binance candles through a strategy and serve the signals over HTTP, WebSocket and Redis",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Service config file. Defaults to ./configs/config.yaml or ./config.yaml when present",
			},
		},
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return err
	}

	log, err := logger.NewLoggerWithConfig(cfg.Log)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck // best effort on exit

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	publishers := []publisher.Publisher{}

	if cfg.Redis.URL != "" {
		redisPublisher, err := publisher.NewRedisPublisher(ctx, cfg.Redis, log)
		if err != nil {
			return err
		}

		publishers = append(publishers, redisPublisher)
	}

	svc, err := newService(cfg, log, datasource.NewBinanceStream(), datasource.NewBinanceProvider(), publishers...)
	if err != nil {
		return err
	}

	return svc.run(ctx)
}

// candleStream delivers live candles.
type candleStream interface {
	Stream(ctx context.Context, symbols []string, interval datasource.Interval) iter.Seq2[types.Candle, error]
}

// service wires one engine to the live stream, the HTTP API and the publishers.
type service struct {
	config     *config.Config
	logger     *logger.Logger
	engine     *engine.Engine
	server     *api.Server
	dispatcher *publisher.Dispatcher
	stream     candleStream
	history    datasource.Provider
	ready      chan struct{}
}

func newService(cfg *config.Config, log *logger.Logger, stream candleStream, history datasource.Provider, publishers ...publisher.Publisher) (*service, error) {
	strategyConfig, err := cfg.LoadStrategy()
	if err != nil {
		return nil, err
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{})) //nolint:exhaustruct // defaults

	symbolLogger := &logger.Logger{Logger: log.With(zap.String("symbol", cfg.Stream.Symbol))}

	options := append([]engine.Option{
		engine.WithStrategy(strategyConfig),
		engine.WithLogger(symbolLogger),
		engine.WithMetrics(metrics.NewMetrics(registry)),
		engine.WithAutoIndicators(indicator.DefaultConfig()),
	}, cfg.EngineOptions()...)

	eng, err := engine.New(options...)
	if err != nil {
		return nil, err
	}

	var gatherer prometheus.Gatherer
	if cfg.Server.Metrics {
		gatherer = registry
	}

	server := api.NewServer(eng, gatherer, log)

	dispatcher := publisher.NewDispatcher(log, append([]publisher.Publisher{publisher.PublisherFunc(server.Broadcast)}, publishers...)...)

	return &service{
		config:     cfg,
		logger:     symbolLogger,
		engine:     eng,
		server:     server,
		dispatcher: dispatcher,
		stream:     stream,
		history:    history,
		ready:      make(chan struct{}),
	}, nil
}

// run warms the engine up, starts the API and feeds live candles until ctx is
// done or the stream ends.
func (s *service) run(ctx context.Context) error {
	if err := s.warmup(ctx); err != nil {
		s.logger.Warn("Warmup failed, starting without history", zap.Error(err))
	}

	if err := s.server.Start(s.config.Server.Address); err != nil {
		s.engine.Close()

		return err
	}
	defer s.server.Stop()

	close(s.ready)

	var wg sync.WaitGroup

	wg.Add(2)

	go func() {
		defer wg.Done()

		if err := s.engine.Run(ctx); err != nil && ctx.Err() == nil {
			s.logger.Error("Engine stopped", zap.Error(err))
		}
	}()

	// the dispatcher drains until the engine closes the channel
	go func() {
		defer wg.Done()

		_ = s.dispatcher.Run(context.Background(), s.engine.Signals())
	}()

	interval := datasource.Interval(s.config.Stream.Interval)

	for candle, err := range s.stream.Stream(ctx, []string{s.config.Stream.Symbol}, interval) {
		if err != nil {
			s.logger.Warn("Candle stream error", zap.Error(err))

			continue
		}

		if err := s.engine.UpdateCandle(candle); err != nil {
			s.logger.Warn("Rejected candle", zap.Time("time", candle.Time), zap.Error(err))
		}
	}

	s.engine.Close()
	wg.Wait()

	s.logger.Info("Service stopped")

	return s.dispatcher.Close()
}

// warmup loads the most recent closed candles so indicators are ready before
// the first live candle.
func (s *service) warmup(ctx context.Context) error {
	count := s.config.Stream.Warmup
	if count == 0 || s.history == nil {
		return nil
	}

	interval := datasource.Interval(s.config.Stream.Interval)

	minutes, err := interval.Minutes()
	if err != nil {
		return err
	}

	step := time.Duration(minutes) * time.Minute
	end := time.Now().UTC().Truncate(step).Add(-time.Millisecond)
	request := datasource.DownloadRequest{
		Symbol:   s.config.Stream.Symbol,
		Start:    end.Add(-time.Duration(count) * step),
		End:      end,
		Interval: interval,
	}

	feed := &engineFeed{engine: s.engine, written: 0}
	if _, err := s.history.Download(ctx, request, feed, nil); err != nil {
		return err
	}

	s.logger.Info("Warmup complete", zap.Int("candles", feed.written))

	return nil
}

// engineFeed is a CandleWriter that sends downloaded candles into the engine.
type engineFeed struct {
	engine  *engine.Engine
	written int
}

func (f *engineFeed) Initialize() error {
	return nil
}

func (f *engineFeed) Write(candle types.Candle) error {
	if err := f.engine.UpdateCandle(candle); err != nil {
		return err
	}

	f.written++

	return nil
}

func (f *engineFeed) Finalize() (string, error) {
	return "", nil
}

func (f *engineFeed) Close() error {
	return nil
}
