package main

import "github.com/rxtech-lab/argo-signals/internal/types"

// CandleMsg carries a closed candle from the stream.
type CandleMsg struct {
	Candle types.Candle
}

// SignalMsg carries a signal published by one of the watch engines.
type SignalMsg struct {
	Signal types.StrategySignal
}

// StreamErrorMsg indicates an error in the candle stream or an engine.
type StreamErrorMsg struct {
	Err error
}

// StreamStartedMsg signals that streaming has begun.
type StreamStartedMsg struct{}

// streamEndedMsg is sent once the stream goroutine has returned.
type streamEndedMsg struct{}
