package publisher

import (
	"context"

	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/types"
	"go.uber.org/zap"
)

// PublisherFunc adapts a plain function, such as a websocket broadcast, to Publisher.
type PublisherFunc func(signal types.StrategySignal)

// Publish implements Publisher.
func (f PublisherFunc) Publish(_ context.Context, signal types.StrategySignal) error {
	f(signal)

	return nil
}

// Close implements Publisher.
func (f PublisherFunc) Close() error {
	return nil
}

// Dispatcher drains a signal channel into every publisher. A failing
// publisher is logged and does not stop delivery to the others.
type Dispatcher struct {
	publishers []Publisher
	logger     *logger.Logger
	onError    func(signal types.StrategySignal, err error)
}

// NewDispatcher creates a dispatcher over the given publishers.
func NewDispatcher(log *logger.Logger, publishers ...Publisher) *Dispatcher {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Dispatcher{
		publishers: publishers,
		logger:     log,
		onError:    nil,
	}
}

// OnError registers a callback invoked for every failed delivery.
func (d *Dispatcher) OnError(callback func(signal types.StrategySignal, err error)) {
	d.onError = callback
}

// Run delivers signals until the channel is closed or ctx is done.
func (d *Dispatcher) Run(ctx context.Context, signals <-chan types.StrategySignal) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case signal, ok := <-signals:
			if !ok {
				return nil
			}

			d.Dispatch(ctx, signal)
		}
	}
}

// Dispatch delivers one signal to every publisher.
func (d *Dispatcher) Dispatch(ctx context.Context, signal types.StrategySignal) {
	for _, publisher := range d.publishers {
		if err := publisher.Publish(ctx, signal); err != nil {
			d.logger.Error("Failed to publish signal",
				zap.String("id", signal.ID),
				zap.String("symbol", signal.Metadata.Symbol),
				zap.Error(err),
			)

			if d.onError != nil {
				d.onError(signal, err)
			}
		}
	}
}

// Close closes every publisher and returns the first error.
func (d *Dispatcher) Close() error {
	var first error

	for _, publisher := range d.publishers {
		if err := publisher.Close(); err != nil && first == nil {
			first = err
		}
	}

	return first
}
