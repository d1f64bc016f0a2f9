package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// Question count slider offered by the builder view.
const (
	CountSliderMin  = 5
	CountSliderMax  = 50
	CountSliderStep = 5
)

type TestBuilderSnapshot struct {
	Topics    []string
	Students  []models.StudentEntry
	Params    *models.GenerateTestParams
	Questions []models.Question
}

// TestBuilderController generates random tests and hands them to export.
type TestBuilderController struct {
	notifier
	client *bridge.Client
	logger *slog.Logger

	mu        sync.Mutex
	topics    []string
	students  []models.StudentEntry
	last      *models.GenerateTestParams
	questions []models.Question
}

func NewTestBuilderController(b bridge.Bridge, logger *slog.Logger) *TestBuilderController {
	return &TestBuilderController{
		client: bridge.NewClient(b),
		logger: componentLogger(logger, "test_builder_controller"),
	}
}

func (c *TestBuilderController) Snapshot() TestBuilderSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	snap := TestBuilderSnapshot{
		Topics:    append([]string(nil), c.topics...),
		Students:  append([]models.StudentEntry(nil), c.students...),
		Questions: append([]models.Question(nil), c.questions...),
	}
	if c.last != nil {
		params := *c.last
		snap.Params = &params
	}
	return snap
}

// LoadOptions loads the topic and student choices.
func (c *TestBuilderController) LoadOptions(ctx context.Context) error {
	topics, err := c.client.GetTopics(ctx)
	if err != nil {
		return fmt.Errorf("failed to load topics: %w", err)
	}
	students, err := c.client.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}
	c.mu.Lock()
	c.topics = topics
	c.students = students
	c.mu.Unlock()
	c.changed()
	return nil
}

// Generate asks the backend for a random set. Nil filters mean any value.
func (c *TestBuilderController) Generate(ctx context.Context, params models.GenerateTestParams) ([]models.Question, error) {
	if params.Count < 1 || params.Count > 100 {
		return nil, ErrCountOutOfRange
	}
	questions, err := c.client.GenerateTest(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate test: %w", err)
	}

	c.mu.Lock()
	c.last = &params
	c.questions = questions
	c.mu.Unlock()

	c.logger.Info("Test generated", "requested", params.Count, "received", len(questions))
	c.changed()
	return questions, nil
}

// Regenerate reshuffles with the parameters of the last Generate.
func (c *TestBuilderController) Regenerate(ctx context.Context) ([]models.Question, error) {
	c.mu.Lock()
	last := c.last
	c.mu.Unlock()
	if last == nil {
		return nil, ErrNothingGenerated
	}
	return c.Generate(ctx, *last)
}

// ExportRequest builds the export input for the generated set.
func (c *TestBuilderController) ExportRequest(templateID *uint) (ExportRequest, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil || len(c.questions) == 0 {
		return ExportRequest{}, ErrNothingGenerated
	}
	return ExportRequest{
		Questions:  append([]models.Question(nil), c.questions...),
		StudentID:  c.last.StudentID,
		TemplateID: templateID,
	}, nil
}
