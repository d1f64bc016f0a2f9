package controllers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

type StudentsController struct {
	notifier
	client *bridge.Client
	logger *slog.Logger

	mu       sync.Mutex
	students []models.StudentEntry
}

func NewStudentsController(b bridge.Bridge, logger *slog.Logger) *StudentsController {
	return &StudentsController{
		client: bridge.NewClient(b),
		logger: componentLogger(logger, "students_controller"),
	}
}

func (c *StudentsController) Students() []models.StudentEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.StudentEntry(nil), c.students...)
}

func (c *StudentsController) Load(ctx context.Context) error {
	students, err := c.client.ListStudents(ctx)
	if err != nil {
		return fmt.Errorf("failed to load students: %w", err)
	}
	c.mu.Lock()
	c.students = students
	c.mu.Unlock()
	c.changed()
	return nil
}

// Add trims name, stores the student and reloads.
func (c *StudentsController) Add(ctx context.Context, name string) (uint, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, ErrStudentNameRequired
	}
	id, err := c.client.AddStudent(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("failed to add student: %w", err)
	}
	return id, c.Load(ctx)
}

func (c *StudentsController) Delete(ctx context.Context, id uint) error {
	if err := c.client.DeleteStudent(ctx, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}
	return c.Load(ctx)
}
