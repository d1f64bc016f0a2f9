package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

type ArchiveSnapshot struct {
	Tests     []models.TestSummary
	Selected  *uint
	Questions []models.Question
	AnswerKey *models.AnswerKey
}

// ArchiveController browses exported tests and their answer keys.
type ArchiveController struct {
	notifier
	client *bridge.Client
	logger *slog.Logger

	mu        sync.Mutex
	tests     []models.TestSummary
	selected  *uint
	questions []models.Question
	key       *models.AnswerKey
}

func NewArchiveController(b bridge.Bridge, logger *slog.Logger) *ArchiveController {
	return &ArchiveController{
		client: bridge.NewClient(b),
		logger: componentLogger(logger, "archive_controller"),
	}
}

func (c *ArchiveController) Snapshot() ArchiveSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := ArchiveSnapshot{
		Tests:     append([]models.TestSummary(nil), c.tests...),
		Questions: append([]models.Question(nil), c.questions...),
		AnswerKey: c.key,
	}
	if c.selected != nil {
		snap.Selected = ptr(*c.selected)
	}
	return snap
}

func (c *ArchiveController) Load(ctx context.Context) error {
	tests, err := c.client.ListTests(ctx)
	if err != nil {
		return fmt.Errorf("failed to load tests: %w", err)
	}
	c.mu.Lock()
	c.tests = tests
	c.mu.Unlock()
	c.changed()
	return nil
}

// Select shows the questions of a test and hides the previous answer key.
func (c *ArchiveController) Select(ctx context.Context, testID uint) error {
	c.mu.Lock()
	c.selected = ptr(testID)
	c.questions = nil
	c.key = nil
	c.mu.Unlock()
	c.changed()

	questions, err := c.client.GetTestQuestions(ctx, testID)
	if err != nil {
		return fmt.Errorf("failed to load test %d: %w", testID, err)
	}

	c.mu.Lock()
	if c.selected == nil || *c.selected != testID {
		c.mu.Unlock()
		return nil
	}
	c.questions = questions
	c.mu.Unlock()
	c.changed()
	return nil
}

// GenerateAnswerKey solves the selected test.
func (c *ArchiveController) GenerateAnswerKey(ctx context.Context) (*models.AnswerKey, error) {
	c.mu.Lock()
	selected := c.selected
	c.mu.Unlock()
	if selected == nil {
		return nil, ErrNoTestSelected
	}
	testID := *selected

	raw, err := c.client.GenerateAnswerKey(ctx, testID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer key: %w", err)
	}
	key, err := models.ParseAnswerKey(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to generate answer key: %w", err)
	}

	c.mu.Lock()
	if c.selected != nil && *c.selected == testID {
		c.key = key
	}
	c.mu.Unlock()
	c.changed()
	return key, nil
}

// ExportXLSX writes the archive spreadsheet and returns the written path.
func (c *ArchiveController) ExportXLSX(ctx context.Context, outputPath string) (string, error) {
	path, err := c.client.ExportArchiveXLSX(ctx, outputPath)
	if err != nil {
		return "", fmt.Errorf("failed to export archive: %w", err)
	}
	return path, nil
}
