package datasource

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	binance "github.com/adshao/go-binance/v2"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"github.com/rxtech-lab/argo-signals/pkg/errors"
	"github.com/stretchr/testify/suite"
)

// fakeStreamer emits the configured events per symbol, then the errors, then
// waits to be stopped.
type fakeStreamer struct {
	mu       sync.Mutex
	events   map[string][]*binance.WsKlineEvent
	errs     []error
	startErr error
	stopped  int
}

func (f *fakeStreamer) WsKlineServe(symbol, _ string, handler binance.WsKlineHandler, errHandler binance.ErrHandler) (chan struct{}, chan struct{}, error) {
	if f.startErr != nil {
		return nil, nil, f.startErr
	}

	doneC := make(chan struct{})
	stopC := make(chan struct{})

	go func() {
		defer close(doneC)

		for _, event := range f.events[symbol] {
			handler(event)
		}

		for _, err := range f.errs {
			errHandler(err)
		}

		<-stopC

		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}()

	return doneC, stopC, nil
}

func (f *fakeStreamer) stoppedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.stopped
}

func wsEvent(symbol string, minute int, closePrice string, final bool) *binance.WsKlineEvent {
	start := time.Date(2024, 1, 1, 0, minute, 0, 0, time.UTC)

	return &binance.WsKlineEvent{
		Event:  "kline",
		Time:   start.UnixMilli(),
		Symbol: symbol,
		Kline: binance.WsKline{
			StartTime: start.UnixMilli(),
			EndTime:   start.Add(time.Minute).UnixMilli() - 1,
			Symbol:    symbol,
			Interval:  "1m",
			Open:      "100",
			High:      "110",
			Low:       "90",
			Close:     closePrice,
			Volume:    "12.5",
			IsFinal:   final,
		},
	}
}

type StreamTestSuite struct {
	suite.Suite
}

func TestStreamSuite(t *testing.T) {
	suite.Run(t, new(StreamTestSuite))
}

func (suite *StreamTestSuite) collect(stream *BinanceStream, symbols []string, limit int) ([]types.Candle, []error) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var candles []types.Candle
	var errs []error

	for candle, err := range stream.Stream(ctx, symbols, Interval1m) {
		if err != nil {
			errs = append(errs, err)
		} else {
			candles = append(candles, candle)
		}

		if len(candles)+len(errs) >= limit {
			break
		}
	}

	return candles, errs
}

func (suite *StreamTestSuite) TestOnlyFinalCandles() {
	streamer := &fakeStreamer{events: map[string][]*binance.WsKlineEvent{
		"BTCUSDT": {
			wsEvent("BTCUSDT", 0, "101", false),
			wsEvent("BTCUSDT", 0, "102", true),
			wsEvent("BTCUSDT", 1, "103", false),
			wsEvent("BTCUSDT", 1, "104", true),
		},
	}}

	candles, errs := suite.collect(NewBinanceStreamWithStreamer(streamer), []string{"BTCUSDT"}, 2)

	suite.Empty(errs)
	suite.Require().Len(candles, 2)
	suite.InDelta(102.0, candles[0].Close, 1e-9)
	suite.InDelta(104.0, candles[1].Close, 1e-9)
	suite.InDelta(12.5, candles[0].Volume, 1e-9)
	suite.True(candles[1].Time.Equal(time.Date(2024, 1, 1, 0, 1, 0, 0, time.UTC)))
	suite.NoError(candles[0].Validate())

	suite.Eventually(func() bool { return streamer.stoppedCount() == 1 }, time.Second, 10*time.Millisecond)
}

func (suite *StreamTestSuite) TestMultipleSymbols() {
	streamer := &fakeStreamer{events: map[string][]*binance.WsKlineEvent{
		"BTCUSDT": {wsEvent("BTCUSDT", 0, "101", true)},
		"ETHUSDT": {wsEvent("ETHUSDT", 0, "201", true)},
	}}

	candles, errs := suite.collect(NewBinanceStreamWithStreamer(streamer), []string{"BTCUSDT", "ETHUSDT"}, 2)

	suite.Empty(errs)
	suite.Require().Len(candles, 2)

	symbols := []string{candles[0].Symbol, candles[1].Symbol}
	suite.ElementsMatch([]string{"BTCUSDT", "ETHUSDT"}, symbols)
	suite.Eventually(func() bool { return streamer.stoppedCount() == 2 }, time.Second, 10*time.Millisecond)
}

func (suite *StreamTestSuite) TestErrors() {
	suite.Run("websocket error is yielded", func() {
		streamer := &fakeStreamer{
			events: map[string][]*binance.WsKlineEvent{},
			errs:   []error{fmt.Errorf("connection reset")},
		}

		_, errs := suite.collect(NewBinanceStreamWithStreamer(streamer), []string{"BTCUSDT"}, 1)
		suite.Require().Len(errs, 1)
		suite.Equal(errors.ErrCodeDataSourceUnavailable, errors.GetCode(errs[0]))
	})

	suite.Run("bad number", func() {
		streamer := &fakeStreamer{events: map[string][]*binance.WsKlineEvent{
			"BTCUSDT": {wsEvent("BTCUSDT", 0, "abc", true)},
		}}

		_, errs := suite.collect(NewBinanceStreamWithStreamer(streamer), []string{"BTCUSDT"}, 1)
		suite.Require().Len(errs, 1)
		suite.Equal(errors.ErrCodeInvalidCandle, errors.GetCode(errs[0]))
	})

	suite.Run("open fails", func() {
		streamer := &fakeStreamer{startErr: fmt.Errorf("dial failed")}

		_, errs := suite.collect(NewBinanceStreamWithStreamer(streamer), []string{"BTCUSDT"}, 1)
		suite.Require().Len(errs, 1)
		suite.Equal(errors.ErrCodeDataSourceUnavailable, errors.GetCode(errs[0]))
	})

	suite.Run("no symbols", func() {
		_, errs := suite.collect(NewBinanceStreamWithStreamer(&fakeStreamer{}), nil, 1)
		suite.Require().Len(errs, 1)
		suite.Equal(errors.ErrCodeMissingParameter, errors.GetCode(errs[0]))
	})

	suite.Run("unsupported interval", func() {
		ctx := context.Background()
		for _, err := range NewBinanceStreamWithStreamer(&fakeStreamer{}).Stream(ctx, []string{"BTCUSDT"}, Interval("2m")) {
			suite.Equal(errors.ErrCodeInvalidParameter, errors.GetCode(err))
		}
	})
}

func (suite *StreamTestSuite) TestCancelledContextEnds() {
	streamer := &fakeStreamer{events: map[string][]*binance.WsKlineEvent{}}
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	count := 0
	for range NewBinanceStreamWithStreamer(streamer).Stream(ctx, []string{"BTCUSDT"}, Interval1m) {
		count++
	}

	suite.Zero(count)
	suite.Eventually(func() bool { return streamer.stoppedCount() == 1 }, time.Second, 10*time.Millisecond)
}
