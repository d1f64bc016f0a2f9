package controllers

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/models"
)

// EditorMode is fixed for the editor's lifetime: CreateMode or EditMode.
type EditorMode interface {
	isEditorMode()
}

// CreateMode edits a template that does not exist yet.
type CreateMode struct {
	Path    string
	Preview string
}

// EditMode edits a stored template.
type EditMode struct {
	ID uint
}

func (CreateMode) isEditorMode() {}
func (EditMode) isEditorMode()   {}

type Edge string

const (
	EdgeTop    Edge = "top"
	EdgeBottom Edge = "bottom"
	EdgeLeft   Edge = "left"
	EdgeRight  Edge = "right"
)

// Overlay is the preview box in percent of the page, measured from each side.
type Overlay struct {
	Top    float64
	Bottom float64
	Left   float64
	Right  float64
}

// TemplateEditor holds the margins being edited for one template.
type TemplateEditor struct {
	notifier
	client *bridge.Client
	mode   EditorMode

	mu      sync.Mutex
	name    string
	margins models.Margins
}

func newTemplateEditor(client *bridge.Client, mode EditorMode, name string, margins models.Margins) *TemplateEditor {
	return &TemplateEditor{client: client, mode: mode, name: name, margins: margins}
}

func (e *TemplateEditor) Mode() EditorMode {
	return e.mode
}

func (e *TemplateEditor) Name() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.name
}

func (e *TemplateEditor) Margins() models.Margins {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.margins
}

func (e *TemplateEditor) SetName(name string) {
	e.mu.Lock()
	e.name = name
	e.mu.Unlock()
	e.changed()
}

// Bounds reports the range edge may currently take.
func (e *TemplateEditor) Bounds(edge Edge) (lo, hi int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return bounds(e.margins, edge)
}

func bounds(m models.Margins, edge Edge) (int, int) {
	switch edge {
	case EdgeTop:
		return 0, m.Bottom - models.MarginMinGap
	case EdgeBottom:
		return m.Top + models.MarginMinGap, models.MarginScale
	case EdgeLeft:
		return 0, m.Right - models.MarginMinGap
	case EdgeRight:
		return m.Left + models.MarginMinGap, models.MarginScale
	}
	return 0, models.MarginScale
}

// set clamps v into the edge's bounds and returns the stored value.
func (e *TemplateEditor) set(edge Edge, v int) int {
	e.mu.Lock()
	lo, hi := bounds(e.margins, edge)
	v = min(max(v, lo), hi)
	switch edge {
	case EdgeTop:
		e.margins.Top = v
	case EdgeBottom:
		e.margins.Bottom = v
	case EdgeLeft:
		e.margins.Left = v
	case EdgeRight:
		e.margins.Right = v
	}
	e.mu.Unlock()
	e.changed()
	return v
}

func (e *TemplateEditor) SetTop(v int) int    { return e.set(EdgeTop, v) }
func (e *TemplateEditor) SetBottom(v int) int { return e.set(EdgeBottom, v) }
func (e *TemplateEditor) SetLeft(v int) int   { return e.set(EdgeLeft, v) }
func (e *TemplateEditor) SetRight(v int) int  { return e.set(EdgeRight, v) }

func (e *TemplateEditor) Overlay() Overlay {
	m := e.Margins()
	return Overlay{
		Top:    float64(m.Top) / 10,
		Bottom: float64(models.MarginScale-m.Bottom) / 10,
		Left:   float64(m.Left) / 10,
		Right:  float64(models.MarginScale-m.Right) / 10,
	}
}

// Save validates locally and then creates or updates the template. It returns
// the template id.
func (e *TemplateEditor) Save(ctx context.Context) (uint, error) {
	e.mu.Lock()
	name := strings.TrimSpace(e.name)
	margins := e.margins
	e.mu.Unlock()

	if name == "" {
		return 0, ErrTemplateNameRequired
	}
	if err := margins.Validate(); err != nil {
		return 0, err
	}

	switch mode := e.mode.(type) {
	case CreateMode:
		id, err := e.client.SaveTemplate(ctx, models.SaveTemplateParams{
			Name:    name,
			Path:    mode.Path,
			Preview: mode.Preview,
			Margins: margins.JSON(),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to save template: %w", err)
		}
		return id, nil
	case EditMode:
		err := e.client.UpdateTemplate(ctx, models.UpdateTemplateParams{
			ID:      mode.ID,
			Name:    name,
			Margins: margins.JSON(),
		})
		if err != nil {
			return 0, fmt.Errorf("failed to update template: %w", err)
		}
		return mode.ID, nil
	}
	return 0, fmt.Errorf("unsupported editor mode %T", e.mode)
}
