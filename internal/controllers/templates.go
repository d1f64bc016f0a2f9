package controllers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// TemplatesController lists the stored templates and opens editors for them.
type TemplatesController struct {
	notifier
	client *bridge.Client
	logger *slog.Logger

	mu        sync.Mutex
	templates []models.Template
}

func NewTemplatesController(b bridge.Bridge, logger *slog.Logger) *TemplatesController {
	return &TemplatesController{
		client: bridge.NewClient(b),
		logger: componentLogger(logger, "templates_controller"),
	}
}

func (c *TemplatesController) Templates() []models.Template {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.Template(nil), c.templates...)
}

func (c *TemplatesController) Load(ctx context.Context) error {
	templates, err := c.client.ListTemplates(ctx)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}
	c.mu.Lock()
	c.templates = templates
	c.mu.Unlock()
	c.changed()
	return nil
}

func (c *TemplatesController) Delete(ctx context.Context, id uint) error {
	if err := c.client.DeleteTemplate(ctx, id); err != nil {
		return fmt.Errorf("failed to delete template: %w", err)
	}
	return c.Load(ctx)
}

// BeginCreate asks the engine for suggested margins and a preview of path and
// returns a create-mode editor. An error reported by the engine is a failure.
func (c *TemplatesController) BeginCreate(ctx context.Context, path string) (*TemplateEditor, error) {
	raw, err := c.client.AnalyzeTemplate(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze template: %w", err)
	}

	var analysis models.TemplateAnalysis
	if err := json.Unmarshal([]byte(raw), &analysis); err != nil {
		return nil, fmt.Errorf("failed to analyze template: %w", &bridge.Error{Command: "analyze_template", Message: "malformed engine response"})
	}
	if analysis.Error != "" {
		return nil, fmt.Errorf("failed to analyze template: %w", &bridge.Error{Command: "analyze_template", Message: analysis.Error})
	}

	margins := models.FullPage()
	if analysis.Margins != nil {
		margins = *analysis.Margins
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	c.logger.Info("Template analyzed", "path", path, "margins", margins.JSON())
	return newTemplateEditor(c.client, CreateMode{Path: path, Preview: analysis.PreviewBase64}, name, margins), nil
}

// BeginEdit opens an edit-mode editor on a stored template.
func (c *TemplatesController) BeginEdit(t models.Template) (*TemplateEditor, error) {
	margins, err := t.Margins()
	if err != nil {
		return nil, fmt.Errorf("template %d: %w", t.ID, err)
	}
	return newTemplateEditor(c.client, EditMode{ID: t.ID}, t.Name, margins), nil
}

// Save stores the editor's template and reloads the list.
func (c *TemplatesController) Save(ctx context.Context, editor *TemplateEditor) (uint, error) {
	id, err := editor.Save(ctx)
	if err != nil {
		return 0, err
	}
	if err := c.Load(ctx); err != nil {
		return id, err
	}
	return id, nil
}
