package events

import (
	"context"
	"sync"
)

// Recorder is an in-memory Publisher for tests.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

type Recorded struct {
	Event   string
	Payload string
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(_ context.Context, event string, payload string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Event: event, Payload: payload})
	return nil
}

// Payloads returns what was published under event, in order.
func (r *Recorder) Payloads(event string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Event == event {
			out = append(out, e.Payload)
		}
	}
	return out
}
