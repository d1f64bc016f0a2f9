package commands

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// NewDispatcher registers the full command surface against the services.
func NewDispatcher(sm services.ServiceManager, v *validator.Validator, logger *slog.Logger) *Dispatcher {
	d := newDispatcher(v, logger)

	// Templates
	register(d, "list_templates", func(ctx context.Context, _ *noParams) (any, error) {
		return sm.Template().List(ctx)
	})
	register(d, "delete_template", func(ctx context.Context, p *models.IDParams) (any, error) {
		return nil, sm.Template().Delete(ctx, p.ID)
	})
	register(d, "analyze_template", func(ctx context.Context, p *models.PathParams) (any, error) {
		return sm.Template().Analyze(ctx, p.Path)
	})
	register(d, "save_template", func(ctx context.Context, p *models.SaveTemplateParams) (any, error) {
		return sm.Template().Save(ctx, p)
	})
	register(d, "update_template", func(ctx context.Context, p *models.UpdateTemplateParams) (any, error) {
		return nil, sm.Template().Update(ctx, p)
	})

	// Questions
	register(d, "delete_questions", func(ctx context.Context, p *models.IDsParams) (any, error) {
		return nil, sm.Question().DeleteBatch(ctx, p.IDs)
	})
	register(d, "delete_question", func(ctx context.Context, p *models.IDParams) (any, error) {
		return nil, sm.Question().Delete(ctx, p.ID)
	})
	register(d, "get_questions_by_ids", func(ctx context.Context, p *models.IDsParams) (any, error) {
		return sm.Question().GetByIDs(ctx, p.IDs)
	})
	register(d, "list_questions", func(ctx context.Context, _ *noParams) (any, error) {
		return sm.Question().ListAll(ctx)
	})
	register(d, "save_question", func(ctx context.Context, p *models.SaveQuestionParams) (any, error) {
		return sm.Question().Save(ctx, p)
	})
	register(d, "list_questions_paginated", func(ctx context.Context, p *models.ListQuestionsParams) (any, error) {
		return sm.Question().ListPaginated(ctx, p)
	})
	register(d, "get_topics", func(ctx context.Context, _ *noParams) (any, error) {
		return sm.Question().Topics(ctx)
	})

	// Analysis
	register(d, "analyze_pdf", func(ctx context.Context, p *models.PathParams) (any, error) {
		return nil, sm.Analysis().StartPDF(ctx, p.Path)
	})

	// Export and archive
	register(d, "export_test_pdf", func(ctx context.Context, p *models.ExportPDFParams) (any, error) {
		return sm.Generator().ExportPDF(ctx, p)
	})
	register(d, "save_test_record", func(ctx context.Context, p *models.SaveTestRecordParams) (any, error) {
		return sm.Archive().SaveTestRecord(ctx, p)
	})
	register(d, "mark_test_solved", func(ctx context.Context, p *models.MarkSolvedParams) (any, error) {
		return nil, sm.Student().MarkSolved(ctx, p)
	})
	register(d, "list_tests", func(ctx context.Context, _ *noParams) (any, error) {
		return sm.Archive().ListTests(ctx)
	})
	register(d, "get_test_questions", func(ctx context.Context, p *models.TestIDParams) (any, error) {
		return sm.Archive().TestQuestions(ctx, p.TestID)
	})
	register(d, "generate_answer_key", func(ctx context.Context, p *models.TestIDParams) (any, error) {
		return sm.Archive().AnswerKey(ctx, p.TestID)
	})
	register(d, "export_archive_xlsx", func(ctx context.Context, p *models.ExportArchiveParams) (any, error) {
		return sm.Spreadsheet().ExportArchive(ctx, p.OutputPath)
	})

	// Students
	register(d, "list_students", func(ctx context.Context, _ *noParams) (any, error) {
		return sm.Student().List(ctx)
	})
	register(d, "add_student", func(ctx context.Context, p *models.NameParams) (any, error) {
		return sm.Student().Add(ctx, p.Name)
	})
	register(d, "delete_student", func(ctx context.Context, p *models.IDParams) (any, error) {
		return nil, sm.Student().Delete(ctx, p.ID)
	})

	// Generator
	register(d, "generate_test", func(ctx context.Context, p *models.GenerateTestParams) (any, error) {
		return sm.Generator().Generate(ctx, p)
	})

	// Settings
	register(d, "get_setting", func(ctx context.Context, p *models.KeyParams) (any, error) {
		return sm.Setting().Get(ctx, p.Key)
	})
	register(d, "save_setting", func(ctx context.Context, p *models.SaveSettingParams) (any, error) {
		return nil, sm.Setting().Save(ctx, p.Key, p.Value)
	})
	register(d, "clear_database", func(ctx context.Context, _ *noParams) (any, error) {
		return nil, sm.Archive().ClearDatabase(ctx)
	})

	return d
}
