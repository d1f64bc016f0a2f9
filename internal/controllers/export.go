package controllers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// DefaultExportName is offered to the save dialog.
const DefaultExportName = "Deneme_Sinavi.pdf"

// SaveDialog picks the destination of an export. ok=false means the user cancelled.
type SaveDialog interface {
	SavePath(ctx context.Context, defaultName string) (path string, ok bool, err error)
}

// StaticDialog always answers with the same path.
type StaticDialog string

func (d StaticDialog) SavePath(context.Context, string) (string, bool, error) {
	return string(d), d != "", nil
}

type ExportRequest struct {
	Questions  []models.Question
	StudentID  *uint
	TemplateID *uint
}

type ExportResult struct {
	OutputPath   string
	TestID       uint
	Cancelled    bool
	EngineOutput string
}

type ExportStep string

const (
	StepResolveTemplate ExportStep = "resolve_template"
	StepChoosePath      ExportStep = "choose_path"
	StepExportPDF       ExportStep = "export_test_pdf"
	StepSaveRecord      ExportStep = "save_test_record"
	StepMarkSolved      ExportStep = "mark_test_solved"
)

// StepError reports which export step failed. Earlier steps stay done.
type StepError struct {
	Step ExportStep
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("export failed at %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ExportController runs the export sequence. Each step starts only after the
// previous one succeeded.
type ExportController struct {
	client *bridge.Client
	dialog SaveDialog
	logger *slog.Logger
}

func NewExportController(b bridge.Bridge, dialog SaveDialog, logger *slog.Logger) *ExportController {
	return &ExportController{
		client: bridge.NewClient(b),
		dialog: dialog,
		logger: componentLogger(logger, "export_controller"),
	}
}

func (c *ExportController) Export(ctx context.Context, req ExportRequest) (*ExportResult, error) {
	// Only questions with an image are rendered, but the record and the
	// solved set always cover the whole export set.
	var (
		paths []string
		ids   = make([]uint, 0, len(req.Questions))
	)
	for _, q := range req.Questions {
		ids = append(ids, q.ID)
		if q.ImagePath != "" {
			paths = append(paths, q.ImagePath)
		}
	}
	if len(paths) == 0 {
		return nil, ErrNoQuestionFiles
	}

	params := models.ExportPDFParams{ImagePaths: paths}
	if req.TemplateID != nil {
		tpl, err := c.findTemplate(ctx, *req.TemplateID)
		if err != nil {
			return nil, &StepError{Step: StepResolveTemplate, Err: err}
		}
		if tpl != nil {
			params.TemplatePath = ptr(tpl.Path)
			params.Margins = ptr(tpl.MarginsJSON)
		} else {
			c.logger.Warn("Template not found, exporting unstyled", "template_id", *req.TemplateID)
		}
	}

	outputPath, ok, err := c.dialog.SavePath(ctx, DefaultExportName)
	if err != nil {
		return nil, &StepError{Step: StepChoosePath, Err: err}
	}
	if !ok {
		return &ExportResult{Cancelled: true}, nil
	}
	params.OutputPath = outputPath

	output, err := c.client.ExportTestPDF(ctx, params)
	if err != nil {
		return nil, &StepError{Step: StepExportPDF, Err: err}
	}
	result := &ExportResult{OutputPath: outputPath, EngineOutput: output}

	testID, err := c.client.SaveTestRecord(ctx, models.SaveTestRecordParams{StudentID: req.StudentID, QuestionIDs: ids})
	if err != nil {
		return result, &StepError{Step: StepSaveRecord, Err: err}
	}
	result.TestID = testID

	if req.StudentID != nil {
		err := c.client.MarkTestSolved(ctx, models.MarkSolvedParams{StudentID: *req.StudentID, QuestionIDs: ids})
		if err != nil {
			return result, &StepError{Step: StepMarkSolved, Err: err}
		}
	}

	c.logger.Info("Test exported", "path", outputPath, "test_id", testID, "questions", len(ids))
	return result, nil
}

func (c *ExportController) findTemplate(ctx context.Context, id uint) (*models.Template, error) {
	templates, err := c.client.ListTemplates(ctx)
	if err != nil {
		return nil, err
	}
	for i := range templates {
		if templates[i].ID == id {
			return &templates[i], nil
		}
	}
	return nil, nil
}
