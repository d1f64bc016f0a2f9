package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/events"
)

// Dispatcher runs backend commands. commands.Dispatcher implements it.
type Dispatcher interface {
	Dispatch(ctx context.Context, command string, params json.RawMessage) (any, error)
}

// LocalBridge calls the backend in process. Params and results still pass
// through JSON so it behaves like the HTTP transport.
type LocalBridge struct {
	dispatcher Dispatcher
	subscriber events.Subscriber
	logger     *slog.Logger
}

func NewLocalBridge(dispatcher Dispatcher, subscriber events.Subscriber, logger *slog.Logger) *LocalBridge {
	return &LocalBridge{
		dispatcher: dispatcher,
		subscriber: subscriber,
		logger:     logger.With("component", "bridge", "transport", "local"),
	}
}

func (b *LocalBridge) Invoke(ctx context.Context, command string, params any, out any) error {
	raw, err := encodeParams(params)
	if err != nil {
		return err
	}

	result, err := b.dispatcher.Dispatch(ctx, command, raw)
	if err != nil {
		return &Error{Command: command, Message: err.Error()}
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode %s result: %w", command, err)
	}
	return decodeResult(command, data, out)
}

func (b *LocalBridge) Listen(ctx context.Context, event string, handler func(payload string)) (Unlisten, error) {
	subCtx, cancel := context.WithCancel(ctx)
	payloads, err := b.subscriber.Subscribe(subCtx, event)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to listen to %s: %w", event, err)
	}

	go func() {
		for {
			select {
			case <-subCtx.Done():
				return
			case payload, ok := <-payloads:
				if !ok {
					return
				}
				if subCtx.Err() != nil {
					return
				}
				handler(payload)
			}
		}
	}()

	b.logger.Debug("Listening", "event", event)
	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			b.logger.Debug("Stopped listening", "event", event)
		})
	}, nil
}
