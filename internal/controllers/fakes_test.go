package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type invocation struct {
	Command string
	Params  json.RawMessage
}

// fakeBridge answers commands from a table and delivers events synchronously.
type fakeBridge struct {
	mu        sync.Mutex
	calls     []invocation
	results   map[string]any
	errs      map[string]error
	handlers  map[string]func(params json.RawMessage) (any, error)
	listeners map[string]map[int]func(string)
	nextID    int
	listenErr error
}

func newFakeBridge() *fakeBridge {
	return &fakeBridge{
		results:   map[string]any{},
		errs:      map[string]error{},
		handlers:  map[string]func(json.RawMessage) (any, error){},
		listeners: map[string]map[int]func(string){},
	}
}

func (f *fakeBridge) respond(command string, result any) {
	f.mu.Lock()
	f.results[command] = result
	f.mu.Unlock()
}

func (f *fakeBridge) fail(command string, err error) {
	f.mu.Lock()
	f.errs[command] = err
	f.mu.Unlock()
}

func (f *fakeBridge) handle(command string, fn func(params json.RawMessage) (any, error)) {
	f.mu.Lock()
	f.handlers[command] = fn
	f.mu.Unlock()
}

func (f *fakeBridge) Invoke(_ context.Context, command string, params any, out any) error {
	raw, err := json.Marshal(params)
	if err != nil {
		return err
	}

	f.mu.Lock()
	f.calls = append(f.calls, invocation{Command: command, Params: raw})
	handler := f.handlers[command]
	result, failure := f.results[command], f.errs[command]
	f.mu.Unlock()

	if handler != nil {
		result, failure = handler(raw)
	}
	if failure != nil {
		return &bridge.Error{Command: command, Message: failure.Error()}
	}
	if out == nil {
		return nil
	}
	data, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}

func (f *fakeBridge) Listen(_ context.Context, event string, handler func(string)) (bridge.Unlisten, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listenErr != nil {
		return nil, f.listenErr
	}
	f.nextID++
	id := f.nextID
	if f.listeners[event] == nil {
		f.listeners[event] = map[int]func(string){}
	}
	f.listeners[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners[event], id)
			f.mu.Unlock()
		})
	}, nil
}

func (f *fakeBridge) emit(event, payload string) {
	f.mu.Lock()
	var handlers []func(string)
	for _, h := range f.listeners[event] {
		handlers = append(handlers, h)
	}
	f.mu.Unlock()
	for _, h := range handlers {
		h(payload)
	}
}

func (f *fakeBridge) active(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners[event])
}

func (f *fakeBridge) commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		out = append(out, c.Command)
	}
	return out
}

// params returns the decoded params of every call of command.
func (f *fakeBridge) params(command string) []map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []map[string]any
	for _, c := range f.calls {
		if c.Command != command {
			continue
		}
		var m map[string]any
		_ = json.Unmarshal(c.Params, &m)
		out = append(out, m)
	}
	return out
}

// fakeTimers records scheduled calls and runs them on demand.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (t *fakeTimer) Stop() bool {
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

// fire runs every timer that was not stopped.
func (ft *fakeTimers) fire() int {
	ft.mu.Lock()
	var due []*fakeTimer
	for _, t := range ft.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t)
		}
	}
	ft.mu.Unlock()
	for _, t := range due {
		t.f()
	}
	return len(due)
}

func (ft *fakeTimers) all() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]*fakeTimer(nil), ft.timers...)
}
