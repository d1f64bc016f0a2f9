package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-desk/internal/engine"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type templateService struct {
	repo      repositories.Repository
	engine    engine.Engine
	settings  SettingService
	logger    *slog.Logger
	validator *validator.Validator
}

func NewTemplateService(repo repositories.Repository, eng engine.Engine, settings SettingService, logger *slog.Logger, validator *validator.Validator) TemplateService {
	return &templateService{
		repo:      repo,
		engine:    eng,
		settings:  settings,
		logger:    logger,
		validator: validator,
	}
}

func (s *templateService) List(ctx context.Context) ([]models.Template, error) {
	templates, err := s.repo.Template().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list templates: %w", err)
	}
	return templates, nil
}

func (s *templateService) Get(ctx context.Context, id uint) (*models.Template, error) {
	template, err := s.repo.Template().GetByID(ctx, nil, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrTemplateNotFound
		}
		return nil, fmt.Errorf("failed to get template: %w", err)
	}
	return template, nil
}

// Analyze asks the engine for suggested margins and a preview. The engine's
// JSON is returned untouched, including an embedded {"error": ...}.
func (s *templateService) Analyze(ctx context.Context, path string) (string, error) {
	apiKey, err := s.settings.APIKey(ctx)
	if err != nil {
		return "", err
	}

	s.logger.Info("Analyzing template", "path", path)
	out, err := s.engine.AnalyzeTemplate(ctx, apiKey, path)
	if err != nil {
		return "", &EngineError{Operation: "analyze template", Err: err}
	}
	return out, nil
}

func (s *templateService) Save(ctx context.Context, req *models.SaveTemplateParams) (uint, error) {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return 0, errs
	}

	template := &models.Template{
		Name:         strings.TrimSpace(req.Name),
		Path:         req.Path,
		PreviewImage: req.Preview,
		MarginsJSON:  req.Margins,
	}
	if err := s.repo.Template().Create(ctx, nil, template); err != nil {
		return 0, fmt.Errorf("failed to save template: %w", err)
	}

	s.logger.Info("Template saved", "template_id", template.ID, "name", template.Name)
	return template.ID, nil
}

func (s *templateService) Update(ctx context.Context, req *models.UpdateTemplateParams) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Template().Update(ctx, nil, req.ID, strings.TrimSpace(req.Name), req.Margins); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to update template: %w", err)
	}

	s.logger.Info("Template updated", "template_id", req.ID)
	return nil
}

func (s *templateService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Template().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrTemplateNotFound
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.logger.Info("Template deleted", "template_id", id)
	return nil
}
