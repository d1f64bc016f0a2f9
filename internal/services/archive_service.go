package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type archiveService struct {
	repo      repositories.Repository
	solver    engine.Solver
	settings  SettingService
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewArchiveService(repo repositories.Repository, solver engine.Solver, settings SettingService, logger *slog.Logger, validator *validator.Validator) ArchiveService {
	return &archiveService{
		repo:      repo,
		solver:    solver,
		settings:  settings,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// SaveTestRecord stores an exported test and its question order.
func (s *archiveService) SaveTestRecord(ctx context.Context, req *models.SaveTestRecordParams) (uint, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return 0, errs
	}

	test := &models.TestRecord{
		StudentID: req.StudentID,
		Name:      models.TestNameFor(s.now()),
	}
	if err := s.repo.Test().Create(ctx, nil, test, req.QuestionIDs); err != nil {
		return 0, fmt.Errorf("failed to save test record: %w", err)
	}

	s.logger.Info("Test record saved", "test_id", test.ID, "questions", len(req.QuestionIDs))
	return test.ID, nil
}

func (s *archiveService) ListTests(ctx context.Context) ([]models.TestSummary, error) {
	tests, err := s.repo.Test().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list tests: %w", err)
	}
	return tests, nil
}

func (s *archiveService) TestQuestions(ctx context.Context, testID uint) ([]models.Question, error) {
	questions, err := s.repo.Test().GetQuestions(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTestNotFound
		}
		return nil, fmt.Errorf("failed to get test questions: %w", err)
	}
	return questions, nil
}

// AnswerKey returns the cached key of a test, solving and caching it on first use.
func (s *archiveService) AnswerKey(ctx context.Context, testID uint) (string, error) {
	cached, err := s.repo.Test().GetAnswerKey(ctx, nil, testID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return "", ErrTestNotFound
		}
		return "", fmt.Errorf("failed to read answer key: %w", err)
	}
	if cached != nil {
		return *cached, nil
	}

	questions, err := s.TestQuestions(ctx, testID)
	if err != nil {
		return "", err
	}
	if len(questions) == 0 {
		return "", ErrTestHasNoQuestions
	}

	solverQuestions := make([]engine.SolverQuestion, 0, len(questions))
	for _, q := range questions {
		sq := engine.SolverQuestion{ID: q.ID, Text: q.Text}
		if q.ImagePath != "" {
			path := q.ImagePath
			sq.ImagePath = &path
		}
		solverQuestions = append(solverQuestions, sq)
	}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Info("Solving answer key", "test_id", testID, "questions", len(questions))
	raw, err := s.solver.Solve(ctx, apiKey, solverQuestions)
	if err != nil {
		return "", &EngineError{Operation: "solve answer key", Err: err}
	}
	raw = strings.TrimSpace(raw)

	// Only well formed keys are cached so a failed solve can be retried.
	if _, err := models.ParseAnswerKey(raw); err != nil {
		return "", &EngineError{Operation: "solve answer key", Err: err}
	}
	if err := s.repo.Test().SaveAnswerKey(ctx, nil, testID, raw); err != nil {
		return "", fmt.Errorf("failed to save answer key: %w", err)
	}
	return raw, nil
}

// ClearDatabase removes questions, tests and solved rows. Templates, students and
// settings are kept.
func (s *archiveService) ClearDatabase(ctx context.Context) error {
	err := s.repo.WithTransaction(ctx, func(tx repositories.Repository) error {
		if err := tx.Test().DeleteAll(ctx, nil); err != nil {
			return err
		}
		return tx.Question().DeleteAll(ctx, nil)
	})
	if err != nil {
		return fmt.Errorf("failed to clear database: %w", err)
	}

	s.logger.Warn("Database cleared")
	return nil
}
