package bridge

import (
	"context"

	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// Client has one typed method per backend command.
type Client struct {
	b Bridge
}

func NewClient(b Bridge) *Client {
	return &Client{b: b}
}

// ===== TEMPLATES =====

func (c *Client) ListTemplates(ctx context.Context) ([]models.Template, error) {
	var out []models.Template
	err := c.b.Invoke(ctx, "list_templates", nil, &out)
	return out, err
}

func (c *Client) DeleteTemplate(ctx context.Context, id uint) error {
	return c.b.Invoke(ctx, "delete_template", models.IDParams{ID: id}, nil)
}

// AnalyzeTemplate returns the engine's raw answer: {margins, preview_base64} or {error}.
func (c *Client) AnalyzeTemplate(ctx context.Context, path string) (string, error) {
	var out string
	err := c.b.Invoke(ctx, "analyze_template", models.PathParams{Path: path}, &out)
	return out, err
}

func (c *Client) SaveTemplate(ctx context.Context, params models.SaveTemplateParams) (uint, error) {
	var id uint
	err := c.b.Invoke(ctx, "save_template", params, &id)
	return id, err
}

func (c *Client) UpdateTemplate(ctx context.Context, params models.UpdateTemplateParams) error {
	return c.b.Invoke(ctx, "update_template", params, nil)
}

// ===== QUESTIONS =====

func (c *Client) DeleteQuestions(ctx context.Context, ids []uint) error {
	return c.b.Invoke(ctx, "delete_questions", models.IDsParams{IDs: ids}, nil)
}

func (c *Client) DeleteQuestion(ctx context.Context, id uint) error {
	return c.b.Invoke(ctx, "delete_question", models.IDParams{ID: id}, nil)
}

func (c *Client) GetQuestionsByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	var out []models.Question
	err := c.b.Invoke(ctx, "get_questions_by_ids", models.IDsParams{IDs: ids}, &out)
	return out, err
}

func (c *Client) ListQuestions(ctx context.Context) ([]models.Question, error) {
	var out []models.Question
	err := c.b.Invoke(ctx, "list_questions", nil, &out)
	return out, err
}

func (c *Client) SaveQuestion(ctx context.Context, params models.SaveQuestionParams) (uint, error) {
	var id uint
	err := c.b.Invoke(ctx, "save_question", params, &id)
	return id, err
}

func (c *Client) ListQuestionsPaginated(ctx context.Context, params models.ListQuestionsParams) (*models.PaginatedQuestions, error) {
	var out models.PaginatedQuestions
	if err := c.b.Invoke(ctx, "list_questions_paginated", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetTopics(ctx context.Context) ([]string, error) {
	var out []string
	err := c.b.Invoke(ctx, "get_topics", nil, &out)
	return out, err
}

// ===== ANALYSIS =====

// AnalyzePDF starts analysis. Progress arrives as models.AnalysisEventName events.
func (c *Client) AnalyzePDF(ctx context.Context, path string) error {
	return c.b.Invoke(ctx, "analyze_pdf", models.PathParams{Path: path}, nil)
}

// ===== EXPORT AND ARCHIVE =====

func (c *Client) ExportTestPDF(ctx context.Context, params models.ExportPDFParams) (string, error) {
	var out string
	err := c.b.Invoke(ctx, "export_test_pdf", params, &out)
	return out, err
}

func (c *Client) SaveTestRecord(ctx context.Context, params models.SaveTestRecordParams) (uint, error) {
	var id uint
	err := c.b.Invoke(ctx, "save_test_record", params, &id)
	return id, err
}

func (c *Client) MarkTestSolved(ctx context.Context, params models.MarkSolvedParams) error {
	return c.b.Invoke(ctx, "mark_test_solved", params, nil)
}

func (c *Client) ListTests(ctx context.Context) ([]models.TestSummary, error) {
	var out []models.TestSummary
	err := c.b.Invoke(ctx, "list_tests", nil, &out)
	return out, err
}

func (c *Client) GetTestQuestions(ctx context.Context, testID uint) ([]models.Question, error) {
	var out []models.Question
	err := c.b.Invoke(ctx, "get_test_questions", models.TestIDParams{TestID: testID}, &out)
	return out, err
}

// GenerateAnswerKey returns the answer key JSON document of a test.
func (c *Client) GenerateAnswerKey(ctx context.Context, testID uint) (string, error) {
	var out string
	err := c.b.Invoke(ctx, "generate_answer_key", models.TestIDParams{TestID: testID}, &out)
	return out, err
}

func (c *Client) ExportArchiveXLSX(ctx context.Context, outputPath string) (string, error) {
	var out string
	err := c.b.Invoke(ctx, "export_archive_xlsx", models.ExportArchiveParams{OutputPath: outputPath}, &out)
	return out, err
}

// ===== STUDENTS =====

func (c *Client) ListStudents(ctx context.Context) ([]models.StudentEntry, error) {
	var out []models.StudentEntry
	err := c.b.Invoke(ctx, "list_students", nil, &out)
	return out, err
}

func (c *Client) AddStudent(ctx context.Context, name string) (uint, error) {
	var id uint
	err := c.b.Invoke(ctx, "add_student", models.NameParams{Name: name}, &id)
	return id, err
}

func (c *Client) DeleteStudent(ctx context.Context, id uint) error {
	return c.b.Invoke(ctx, "delete_student", models.IDParams{ID: id}, nil)
}

// ===== GENERATOR =====

func (c *Client) GenerateTest(ctx context.Context, params models.GenerateTestParams) ([]models.Question, error) {
	var out []models.Question
	err := c.b.Invoke(ctx, "generate_test", params, &out)
	return out, err
}

// ===== SETTINGS =====

func (c *Client) GetSetting(ctx context.Context, key string) (*string, error) {
	var out *string
	err := c.b.Invoke(ctx, "get_setting", models.KeyParams{Key: key}, &out)
	return out, err
}

func (c *Client) SaveSetting(ctx context.Context, key, value string) error {
	return c.b.Invoke(ctx, "save_setting", models.SaveSettingParams{Key: key, Value: value}, nil)
}

func (c *Client) ClearDatabase(ctx context.Context) error {
	return c.b.Invoke(ctx, "clear_database", nil, nil)
}
