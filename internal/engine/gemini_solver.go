package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

const solverPrompt = `Solve the following test questions and produce an ANSWER KEY.

RULES:
1. For each question pick the correct option (A, B, C, D, E).
2. If there are no options or the question is open ended, give a short exact answer (e.g. "25", "x=5").
3. Reply ONLY with JSON in this shape, nothing else:
{"answers": [{"q_num": 1, "answer": "A"}, {"q_num": 2, "answer": "C", "detail": "optional short solution"}]}
`

// GeminiSolver asks Gemini directly instead of going through the engine process.
type GeminiSolver struct {
	model  string
	logger *slog.Logger
}

func NewGeminiSolver(model string, logger *slog.Logger) *GeminiSolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &GeminiSolver{model: model, logger: logger.With("component", "gemini_solver")}
}

func (g *GeminiSolver) Solve(ctx context.Context, apiKey string, questions []SolverQuestion) (string, error) {
	if apiKey == "" {
		return "", ErrMissingAPIKey
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("failed to create gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.model)
	model.ResponseMIMEType = "application/json"

	resp, err := model.GenerateContent(ctx, g.buildParts(questions)...)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned no content")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return normalizeAnswerKey(text.String())
}

func (g *GeminiSolver) buildParts(questions []SolverQuestion) []genai.Part {
	parts := []genai.Part{genai.Text(solverPrompt)}
	for i, q := range questions {
		parts = append(parts, genai.Text(fmt.Sprintf("\nQuestion %d:\n%s", i+1, q.Text)))
		if q.ImagePath == nil || *q.ImagePath == "" {
			continue
		}
		blob, err := imageBlob(*q.ImagePath)
		if err != nil {
			g.logger.Warn("Skipping question image", "question_id", q.ID, "error", err)
			continue
		}
		parts = append(parts, blob)
	}
	return parts
}

func imageBlob(path string) (genai.Blob, error) {
	mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if !strings.HasPrefix(mimeType, "image/") {
		return genai.Blob{}, fmt.Errorf("unsupported image type %q", filepath.Ext(path))
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return genai.Blob{}, err
	}
	return genai.Blob{MIMEType: mimeType, Data: data}, nil
}

// normalizeAnswerKey strips markdown fences and re-encodes the key canonically.
func normalizeAnswerKey(text string) (string, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")

	key, err := models.ParseAnswerKey(strings.TrimSpace(text))
	if err != nil {
		return "", err
	}
	out, err := json.Marshal(key)
	if err != nil {
		return "", fmt.Errorf("failed to encode answer key: %w", err)
	}
	return string(out), nil
}
