// Package bridge is the client side of the command bridge: one request/response
// call per backend operation plus named event subscriptions.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Bridge is implemented by every transport.
type Bridge interface {
	// Invoke runs command with params and decodes the result into out.
	// out may be nil when the result is not needed. A rejected call returns *Error.
	Invoke(ctx context.Context, command string, params any, out any) error
	// Listen delivers payloads of event to handler until Unlisten is called or
	// ctx ends. It returns once the subscription is live, so events of a call
	// made afterwards are not missed.
	Listen(ctx context.Context, event string, handler func(payload string)) (Unlisten, error)
}

// Unlisten releases a subscription. Calling it more than once is a no-op.
type Unlisten func()

// Error is a command the backend rejected.
type Error struct {
	Command string
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Command, e.Message)
}

// Message returns the backend's message for a rejected call, or err's text.
func Message(err error) string {
	var be *Error
	if errors.As(err, &be) {
		return be.Message
	}
	if err == nil {
		return ""
	}
	return err.Error()
}

// encodeParams turns params into the JSON the backend expects. nil encodes as null.
func encodeParams(params any) (json.RawMessage, error) {
	if raw, ok := params.(json.RawMessage); ok {
		return raw, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("failed to encode params: %w", err)
	}
	return data, nil
}

func decodeResult(command string, data []byte, out any) error {
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s result: %w", command, err)
	}
	return nil
}
