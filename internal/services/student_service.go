package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewStudentService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) StudentService {
	return &studentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
	}
}

// List returns students as [id, name] entries ordered by name.
func (s *studentService) List(ctx context.Context) ([]models.StudentEntry, error) {
	students, err := s.repo.Student().List(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list students: %w", err)
	}

	entries := make([]models.StudentEntry, 0, len(students))
	for _, st := range students {
		entries = append(entries, models.StudentEntry{ID: st.ID, Name: st.Name})
	}
	return entries, nil
}

func (s *studentService) Add(ctx context.Context, name string) (uint, error) {
	req := &models.NameParams{Name: strings.TrimSpace(name)}
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return 0, errs
	}

	student := &models.Student{Name: req.Name}
	if err := s.repo.Student().Create(ctx, nil, student); err != nil {
		if repositories.IsDuplicateError(err) {
			return 0, ErrStudentExists
		}
		return 0, fmt.Errorf("failed to add student: %w", err)
	}

	s.logger.Info("Student added", "student_id", student.ID)
	return student.ID, nil
}

// Delete removes the student. Their tests stay in the archive without a student.
func (s *studentService) Delete(ctx context.Context, id uint) error {
	if err := s.repo.Student().Delete(ctx, nil, id); err != nil {
		if repositories.IsNotFoundError(err) {
			return ErrStudentNotFound
		}
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.logger.Info("Student deleted", "student_id", id)
	return nil
}

// MarkSolved records the questions as received by the student. Repeats are ignored.
func (s *studentService) MarkSolved(ctx context.Context, req *models.MarkSolvedParams) error {
	if errs := s.validator.Validate(req); len(errs) > 0 {
		return errs
	}

	if err := s.repo.Student().MarkSolved(ctx, nil, req.StudentID, req.QuestionIDs); err != nil {
		return fmt.Errorf("failed to mark questions solved: %w", err)
	}
	return nil
}
