package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/jinzhu/copier"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type questionService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewQuestionService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) QuestionService {
	return &questionService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// ===== CORE CRUD OPERATIONS =====

func (s *questionService) Save(ctx context.Context, req *models.SaveQuestionParams) (uint, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return 0, errs
	}

	question := &models.Question{
		Text:       req.Text,
		ImagePath:  req.Image,
		SourcePDF:  optionalString(req.PDF),
		PageNumber: &req.Page,
		Difficulty: req.Difficulty,
		Topic:      req.Topic,
	}
	if req.Base64 != "" {
		question.ImageBase64 = &req.Base64
	}
	if question.Difficulty == nil {
		d := models.DefaultDifficulty
		question.Difficulty = &d
	}

	if err := s.repo.Question().Create(ctx, nil, question); err != nil {
		return 0, fmt.Errorf("failed to save question: %w", err)
	}

	s.logger.Debug("Question saved", "question_id", question.ID, "page", req.Page)
	return question.ID, nil
}

func (s *questionService) ListAll(ctx context.Context) ([]models.Question, error) {
	questions, err := s.repo.Question().ListAll(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	return questions, nil
}

func (s *questionService) ListPaginated(ctx context.Context, req *models.ListQuestionsParams) (*models.PaginatedQuestions, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return nil, errs
	}

	filters := repositories.QuestionFilters{
		Search:     strings.TrimSpace(req.Search),
		Topic:      req.Topic,
		Difficulty: req.Difficulty,
		Limit:      req.Limit,
		Offset:     (req.Page - 1) * req.Limit,
	}

	questions, total, err := s.repo.Question().List(ctx, nil, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	return &models.PaginatedQuestions{Questions: questions, Total: total}, nil
}

// GetByIDs returns the known questions in the order of ids.
func (s *questionService) GetByIDs(ctx context.Context, ids []uint) ([]models.Question, error) {
	questions, err := s.repo.Question().GetByIDs(ctx, nil, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to get questions: %w", err)
	}
	return questions, nil
}

func (s *questionService) Delete(ctx context.Context, id uint) error {
	questions, err := s.repo.Question().GetByIDs(ctx, nil, []uint{id})
	if err != nil {
		return fmt.Errorf("failed to get question: %w", err)
	}
	if len(questions) == 0 {
		return ErrQuestionNotFound
	}
	return s.DeleteBatch(ctx, []uint{id})
}

func (s *questionService) DeleteBatch(ctx context.Context, ids []uint) error {
	if len(ids) == 0 {
		return NewValidationError("ids", "must not be empty", ids)
	}

	if err := s.repo.Question().DeleteBatch(ctx, nil, ids); err != nil {
		return fmt.Errorf("failed to delete questions: %w", err)
	}

	s.logger.Info("Questions deleted", "count", len(ids))
	return nil
}

func (s *questionService) Topics(ctx context.Context) ([]string, error) {
	topics, err := s.repo.Question().GetTopics(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get topics: %w", err)
	}
	return topics, nil
}

func (s *questionService) Stats(ctx context.Context) (*models.QuestionStats, error) {
	stats, err := s.repo.Question().Stats(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get stats: %w", err)
	}
	return stats, nil
}

// ListViews maps stored questions to the REST shape served next to /images.
func (s *questionService) ListViews(ctx context.Context) ([]QuestionView, error) {
	questions, err := s.ListAll(ctx)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		view, err := toQuestionView(q)
		if err != nil {
			return nil, fmt.Errorf("failed to map question %d: %w", q.ID, err)
		}
		views = append(views, view)
	}
	return views, nil
}

func toQuestionView(q models.Question) (QuestionView, error) {
	var view QuestionView
	if err := copier.Copy(&view, &q); err != nil {
		return QuestionView{}, err
	}

	view.Subject = models.DefaultTopic
	switch {
	case q.Subject != nil && *q.Subject != "":
		view.Subject = *q.Subject
	case q.Topic != nil && *q.Topic != "":
		view.Subject = *q.Topic
	}
	view.Difficulty = models.DifficultyLabel(q.Difficulty)
	if q.ImagePath != "" {
		view.Image = "/images/" + filepath.Base(q.ImagePath)
	}
	return view, nil
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
