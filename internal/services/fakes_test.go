package services

import (
	"context"
	"io"
	"log/slog"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// scriptedEngine replays fixed engine output.
type scriptedEngine struct {
	lines     []string
	err       error
	template  string
	exported  []engine.ExportRequest
	lastKey   string
	exportOut string
}

func (e *scriptedEngine) AnalyzePDF(ctx context.Context, apiKey, pdfPath string, emit func(string)) error {
	e.lastKey = apiKey
	for _, line := range e.lines {
		emit(line)
	}
	return e.err
}

func (e *scriptedEngine) AnalyzeTemplate(ctx context.Context, apiKey, pdfPath string) (string, error) {
	e.lastKey = apiKey
	return e.template, e.err
}

func (e *scriptedEngine) ExportPDF(ctx context.Context, apiKey string, req engine.ExportRequest) (string, error) {
	e.exported = append(e.exported, req)
	return e.exportOut, e.err
}

type scriptedSolver struct {
	answer string
	err    error
	calls  int
	got    []engine.SolverQuestion
}

func (s *scriptedSolver) Solve(ctx context.Context, apiKey string, questions []engine.SolverQuestion) (string, error) {
	s.calls++
	s.got = questions
	return s.answer, s.err
}
