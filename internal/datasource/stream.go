package datasource

import (
	"context"
	"iter"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
)

const streamBufferSize = 64

// KlineStreamer opens a kline websocket for one symbol. Closing stopC ends the stream.
type KlineStreamer interface {
	WsKlineServe(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (doneC, stopC chan struct{}, err error)
}

type binanceKlineStreamer struct{}

func (binanceKlineStreamer) WsKlineServe(symbol, interval string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (chan struct{}, chan struct{}, error) {
	return binance.WsKlineServe(symbol, interval, handler, errHandler)
}

// BinanceStream delivers live closed candles from the Binance kline websocket.
type BinanceStream struct {
	streamer KlineStreamer
}

// NewBinanceStream creates a stream on the public Binance websocket.
func NewBinanceStream() *BinanceStream {
	return NewBinanceStreamWithStreamer(binanceKlineStreamer{})
}

// NewBinanceStreamWithStreamer creates a stream around a custom streamer.
func NewBinanceStreamWithStreamer(streamer KlineStreamer) *BinanceStream {
	return &BinanceStream{streamer: streamer}
}

type streamEvent struct {
	candle types.Candle
	err    error
}

// Stream yields finalized candles for every symbol until ctx is cancelled or
// the consumer stops iterating. Websocket errors are yielded and the stream
// keeps going; the consumer decides whether to stop.
func (s *BinanceStream) Stream(ctx context.Context, symbols []string, interval Interval) iter.Seq2[types.Candle, error] {
	return func(yield func(types.Candle, error) bool) {
		if len(symbols) == 0 {
			yield(types.Candle{}, errors.New(errors.ErrCodeMissingParameter, "at least one symbol is required")) //nolint:exhaustruct // error path

			return
		}

		binanceInterval, err := interval.binanceInterval()
		if err != nil {
			yield(types.Candle{}, err) //nolint:exhaustruct // error path

			return
		}

		events := make(chan streamEvent, streamBufferSize)
		done := make(chan struct{})
		stops := make([]chan struct{}, 0, len(symbols))

		defer func() {
			close(done)

			for _, stop := range stops {
				close(stop)
			}
		}()

		send := func(event streamEvent) {
			select {
			case events <- event:
			case <-done:
			case <-ctx.Done():
			}
		}

		for _, symbol := range symbols {
			_, stopC, err := s.streamer.WsKlineServe(symbol, binanceInterval, func(event *binance.WsKlineEvent) {
				if !event.Kline.IsFinal {
					return
				}

				candle, err := parseCandle(event.Symbol, event.Kline.StartTime,
					event.Kline.Open, event.Kline.High, event.Kline.Low, event.Kline.Close, event.Kline.Volume)
				send(streamEvent{candle: candle, err: err})
			}, func(err error) {
				send(streamEvent{
					candle: types.Candle{}, //nolint:exhaustruct // error path
					err:    errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "binance kline stream for %s failed", symbol),
				})
			})
			if err != nil {
				yield(types.Candle{}, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open binance kline stream for %s", symbol)) //nolint:exhaustruct // error path

				return
			}

			stops = append(stops, stopC)
		}

		for {
			select {
			case <-ctx.Done():
				return
			case event := <-events:
				if !yield(event.candle, event.err) {
					return
				}
			}
		}
	}
}
