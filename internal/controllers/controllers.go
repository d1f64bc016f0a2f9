// Package controllers holds the client-side state machines of the exam desk.
// Each controller owns a transient copy of backend state, talks to the backend
// only through a bridge.Bridge and reports state changes through OnChange.
// Views render Snapshot() and call the action methods.
//
// Controllers are safe for concurrent use. State is guarded by a mutex and
// bridge calls are made outside of it.
package controllers

import (
	"errors"
	"log/slog"
	"sync"
	"time"
)

var (
	ErrNoQuestionFiles      = errors.New("none of the selected questions has an image file")
	ErrNothingSelected      = errors.New("no questions selected")
	ErrNothingGenerated     = errors.New("no test has been generated yet")
	ErrNoTestSelected       = errors.New("no test selected")
	ErrTemplateNameRequired = errors.New("template name is required")
	ErrStudentNameRequired  = errors.New("student name is required")
	ErrCountOutOfRange      = errors.New("question count must be between 1 and 100")
	ErrUnknownAIEngine      = errors.New("ai engine must be gemini or yolo")
)

// Timer is a pending delayed call.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc is the production value.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// notifier stores the OnChange hook. Hooks run outside the controller lock.
type notifier struct {
	hookMu sync.Mutex
	hook   func()
}

// OnChange registers fn to run after every state change. nil removes the hook.
func (n *notifier) OnChange(fn func()) {
	n.hookMu.Lock()
	n.hook = fn
	n.hookMu.Unlock()
}

func (n *notifier) changed() {
	n.hookMu.Lock()
	fn := n.hook
	n.hookMu.Unlock()
	if fn != nil {
		fn()
	}
}

func componentLogger(logger *slog.Logger, name string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With("component", name)
}

func ptr[T any](v T) *T {
	return &v
}
