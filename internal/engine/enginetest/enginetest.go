// Package enginetest provides scripted engine.Engine and engine.Solver
// implementations for tests of packages above the engine.
package enginetest

import (
	"context"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
)

// Engine replays fixed output. Zero value answers every call with empty output.
type Engine struct {
	mu sync.Mutex

	Lines     []string
	Template  string
	ExportOut string
	Err       error

	exports []engine.ExportRequest
	keys    []string
}

func (e *Engine) AnalyzePDF(ctx context.Context, apiKey, pdfPath string, emit func(string)) error {
	e.mu.Lock()
	e.keys = append(e.keys, apiKey)
	lines, err := e.Lines, e.Err
	e.mu.Unlock()

	for _, line := range lines {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		emit(line)
	}
	return err
}

func (e *Engine) AnalyzeTemplate(ctx context.Context, apiKey, pdfPath string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, apiKey)
	return e.Template, e.Err
}

func (e *Engine) ExportPDF(ctx context.Context, apiKey string, req engine.ExportRequest) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.keys = append(e.keys, apiKey)
	e.exports = append(e.exports, req)
	return e.ExportOut, e.Err
}

// Exports returns every export request received so far.
func (e *Engine) Exports() []engine.ExportRequest {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]engine.ExportRequest(nil), e.exports...)
}

// Keys returns the API keys passed to each call.
func (e *Engine) Keys() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.keys...)
}

// Solver answers every Solve call with Answer or Err.
type Solver struct {
	mu sync.Mutex

	Answer string
	Err    error

	calls int
	last  []engine.SolverQuestion
}

func (s *Solver) Solve(ctx context.Context, apiKey string, questions []engine.SolverQuestion) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	s.last = questions
	return s.Answer, s.Err
}

func (s *Solver) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Last returns the questions of the most recent call.
func (s *Solver) Last() []engine.SolverQuestion {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}
