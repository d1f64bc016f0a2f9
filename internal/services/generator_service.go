package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type generatorService struct {
	repo      repositories.Repository
	engine    engine.Engine
	settings  SettingService
	staticDir string
	logger    *slog.Logger
	validator *validator.Validator
	now       func() time.Time
}

func NewGeneratorService(repo repositories.Repository, eng engine.Engine, settings SettingService, staticDir string, logger *slog.Logger, validator *validator.Validator) GeneratorService {
	return &generatorService{
		repo:      repo,
		engine:    eng,
		settings:  settings,
		staticDir: staticDir,
		logger:    logger,
		validator: validator,
		now:       time.Now,
	}
}

// Generate samples questions at random. Questions the student already received
// are excluded when a student is given.
func (s *generatorService) Generate(ctx context.Context, req *models.GenerateTestParams) ([]models.Question, error) {
	if errs := s.validator.GetBusinessValidator().ValidateGenerate(req); len(errs) > 0 {
		return nil, errs
	}

	questions, err := s.repo.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{
		Topic:           req.Topic,
		Difficulty:      req.Difficulty,
		ExcludeSolvedBy: req.StudentID,
		Count:           req.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate test: %w", err)
	}

	s.logger.Info("Test generated", "requested", req.Count, "returned", len(questions))
	return questions, nil
}

// ExportPDF renders images through the engine and returns its raw output.
func (s *generatorService) ExportPDF(ctx context.Context, req *models.ExportPDFParams) (string, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return "", errs
	}

	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return "", err
	}

	out, err := s.engine.ExportPDF(ctx, apiKey, engine.ExportRequest{
		OutputPath:   req.OutputPath,
		ImagePaths:   req.ImagePaths,
		TemplatePath: req.TemplatePath,
		Margins:      req.Margins,
	})
	if err != nil {
		return "", &EngineError{Operation: "export pdf", Err: err}
	}

	s.logger.Info("Test exported", "output", req.OutputPath, "images", len(req.ImagePaths))
	return out, nil
}

// BuildFromSelection renders the chosen questions into the static directory.
func (s *generatorService) BuildFromSelection(ctx context.Context, req *GenerateTestRequest) (*GeneratedPDF, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	questions, err := s.repo.Question().GetByIDs(ctx, nil, req.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	if len(questions) == 0 {
		return nil, ErrQuestionNotFound
	}

	return s.render(ctx, "test", req.Title, questions)
}

// BuildRandom samples by subject and difficulty. When too few questions match the
// difficulty the rest is filled from other difficulties of the same subject.
func (s *generatorService) BuildRandom(ctx context.Context, req *RandomTestRequest) (*GeneratedPDF, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	var topic *string
	if subject := strings.TrimSpace(req.Subject); subject != "" && !strings.EqualFold(subject, "all") {
		topic = &subject
	}

	questions, err := s.repo.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{
		Topic:      topic,
		Difficulty: req.Difficulty,
		Count:      req.Count,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to sample questions: %w", err)
	}

	if len(questions) < req.Count && req.Difficulty != nil {
		others, err := s.repo.Question().GetRandom(ctx, nil, repositories.RandomQuestionFilters{
			Topic: topic,
			Count: req.Count,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to sample questions: %w", err)
		}
		questions = fillUnique(questions, others, req.Count)
	}

	if len(questions) == 0 {
		return nil, ErrNoQuestionsMatched
	}

	return s.render(ctx, "auto_test", req.Title, questions)
}

func (s *generatorService) render(ctx context.Context, prefix, title string, questions []models.Question) (*GeneratedPDF, error) {
	images := imagePaths(questions)
	if len(images) == 0 {
		return nil, NewValidationError("question_ids", "selected questions have no image files", nil)
	}

	if err := os.MkdirAll(s.staticDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create static dir: %w", err)
	}

	now := s.now()
	filename := fmt.Sprintf("%s_%d.pdf", prefix, now.Unix())
	if _, err := s.ExportPDF(ctx, &models.ExportPDFParams{
		ImagePaths: images,
		OutputPath: filepath.Join(s.staticDir, filename),
	}); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(title)
	if name == "" {
		name = models.TestNameFor(now)
	}
	test := &models.TestRecord{Name: name}
	if err := s.repo.Test().Create(ctx, nil, test, questionIDs(questions)); err != nil {
		return nil, fmt.Errorf("failed to save test record: %w", err)
	}

	return &GeneratedPDF{
		Status:        "success",
		URL:           "/images/" + filename,
		Filename:      filename,
		QuestionCount: len(questions),
		TestID:        test.ID,
	}, nil
}

// ListGenerated lists rendered PDFs in the static directory, newest first.
func (s *generatorService) ListGenerated(ctx context.Context) ([]GeneratedFile, error) {
	entries, err := os.ReadDir(s.staticDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []GeneratedFile{}, nil
		}
		return nil, fmt.Errorf("failed to read static dir: %w", err)
	}

	files := []GeneratedFile{}
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, GeneratedFile{
			Filename: entry.Name(),
			URL:      "/images/" + entry.Name(),
			Date:     info.ModTime(),
			Size:     info.Size(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Date.After(files[j].Date) })
	return files, nil
}

func imagePaths(questions []models.Question) []string {
	paths := make([]string, 0, len(questions))
	for _, q := range questions {
		if q.ImagePath != "" {
			paths = append(paths, q.ImagePath)
		}
	}
	return paths
}

func questionIDs(questions []models.Question) []uint {
	ids := make([]uint, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return ids
}

func fillUnique(base, extra []models.Question, limit int) []models.Question {
	seen := make(map[uint]bool, len(base))
	for _, q := range base {
		seen[q.ID] = true
	}
	for _, q := range extra {
		if len(base) >= limit {
			break
		}
		if !seen[q.ID] {
			seen[q.ID] = true
			base = append(base, q)
		}
	}
	return base
}
