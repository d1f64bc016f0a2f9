// Package engine runs the external analysis engine and answer-key solvers.
// Question extraction and PDF rendering happen inside the engine process;
// this package only speaks its command line and line protocol.
package engine

import (
	"context"
	"errors"
)

var (
	ErrMissingAPIKey = errors.New("gemini api key is not configured")
	ErrEngineFailed  = errors.New("engine failed")
)

// Engine is the analysis and rendering backend.
type Engine interface {
	// AnalyzePDF streams one JSON line per engine event to emit until the
	// engine exits.
	AnalyzePDF(ctx context.Context, apiKey, pdfPath string, emit func(line string)) error
	// AnalyzeTemplate returns the engine's raw JSON answer.
	AnalyzeTemplate(ctx context.Context, apiKey, pdfPath string) (string, error)
	// ExportPDF renders images into a PDF and returns the engine's raw answer.
	ExportPDF(ctx context.Context, apiKey string, req ExportRequest) (string, error)
}

// Solver produces an answer key JSON document for a list of questions.
type Solver interface {
	Solve(ctx context.Context, apiKey string, questions []SolverQuestion) (string, error)
}

type ExportRequest struct {
	OutputPath   string
	ImagePaths   []string
	TemplatePath *string
	Margins      *string
}

type SolverQuestion struct {
	ID        uint    `json:"id"`
	Text      string  `json:"text"`
	ImagePath *string `json:"image_path"`
}
