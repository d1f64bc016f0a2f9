package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
)

const (
	testsSheet     = "Tests"
	questionsSheet = "Questions"
)

type spreadsheetService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewSpreadsheetService(repo repositories.Repository, logger *slog.Logger) SpreadsheetService {
	return &spreadsheetService{repo: repo, logger: logger}
}

// ExportArchive writes the test archive and the question bank to an xlsx workbook.
func (s *spreadsheetService) ExportArchive(ctx context.Context, outputPath string) (string, error) {
	if outputPath == "" {
		return "", NewValidationError("outputPath", "is required", outputPath)
	}
	if !strings.EqualFold(filepath.Ext(outputPath), ".xlsx") {
		outputPath += ".xlsx"
	}

	tests, err := s.repo.Test().List(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list tests: %w", err)
	}
	questions, err := s.repo.Question().ListAll(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to list questions: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := writeTestsSheet(f, tests); err != nil {
		return "", err
	}
	if err := writeQuestionsSheet(f, questions); err != nil {
		return "", err
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return "", fmt.Errorf("failed to drop default sheet: %w", err)
	}
	if idx, err := f.GetSheetIndex(testsSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	if err := f.SaveAs(outputPath); err != nil {
		return "", fmt.Errorf("failed to write workbook: %w", err)
	}

	s.logger.Info("Archive exported", "path", outputPath, "tests", len(tests), "questions", len(questions))
	return outputPath, nil
}

func writeTestsSheet(f *excelize.File, tests []models.TestSummary) error {
	rows := make([][]any, 0, len(tests))
	for _, t := range tests {
		student := ""
		if t.StudentName != nil {
			student = *t.StudentName
		}
		rows = append(rows, []any{t.ID, t.Date, student, t.QuestionCount})
	}
	return writeSheet(f, testsSheet, []any{"ID", "Date", "Student", "Questions"}, []float64{8, 20, 30, 12}, rows)
}

func writeQuestionsSheet(f *excelize.File, questions []models.Question) error {
	rows := make([][]any, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []any{
			q.ID,
			q.Text,
			deref(q.Topic),
			models.DifficultyLabel(q.Difficulty),
			deref(q.SourcePDF),
			derefInt(q.PageNumber),
			q.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	header := []any{"ID", "Text", "Topic", "Difficulty", "Source PDF", "Page", "Created"}
	return writeSheet(f, questionsSheet, header, []float64{8, 80, 20, 12, 40, 8, 18}, rows)
}

func writeSheet(f *excelize.File, sheet string, header []any, widths []float64, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("failed to write %s header: %w", sheet, err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return fmt.Errorf("failed to style %s header: %w", sheet, err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return fmt.Errorf("failed to size %s column %s: %w", sheet, col, err)
		}
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+2, err)
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefInt(i *int) any {
	if i == nil {
		return ""
	}
	return *i
}
