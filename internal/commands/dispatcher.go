// Package commands maps bridge command names to service calls.
package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrInvalidParams  = errors.New("invalid params")
)

// Handler runs one command with its raw JSON params.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Dispatcher is the backend side of the command bridge.
type Dispatcher struct {
	handlers  map[string]Handler
	validator *validator.Validator
	logger    *slog.Logger
}

func newDispatcher(v *validator.Validator, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		handlers:  make(map[string]Handler),
		validator: v,
		logger:    logger,
	}
}

// Dispatch runs command. Empty or null params decode to the zero value.
func (d *Dispatcher) Dispatch(ctx context.Context, command string, params json.RawMessage) (any, error) {
	handler, ok := d.handlers[command]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCommand, command)
	}

	start := time.Now()
	result, err := handler(ctx, params)
	if err != nil {
		d.logger.Warn("Command failed", "command", command, "error", err, "duration_ms", time.Since(start).Milliseconds())
		return nil, err
	}
	d.logger.Debug("Command handled", "command", command, "duration_ms", time.Since(start).Milliseconds())
	return result, nil
}

// Has reports whether command is registered.
func (d *Dispatcher) Has(command string) bool {
	_, ok := d.handlers[command]
	return ok
}

// Commands lists registered command names in order.
func (d *Dispatcher) Commands() []string {
	names := make([]string, 0, len(d.handlers))
	for name := range d.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type noParams struct{}

// register binds name to fn, decoding and validating params of type P first.
func register[P any](d *Dispatcher, name string, fn func(ctx context.Context, params *P) (any, error)) {
	if _, dup := d.handlers[name]; dup {
		panic("command registered twice: " + name)
	}
	d.handlers[name] = func(ctx context.Context, raw json.RawMessage) (any, error) {
		params := new(P)
		if trimmed := bytes.TrimSpace(raw); len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null")) {
			if err := json.Unmarshal(trimmed, params); err != nil {
				return nil, fmt.Errorf("%w for %s: %v", ErrInvalidParams, name, err)
			}
		}
		if _, empty := any(params).(*noParams); !empty {
			if errs := d.validator.Validate(params); len(errs) > 0 {
				return nil, errs
			}
		}
		return fn(ctx, params)
	}
}
