package controllers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/commands"
	"github.com/SAP-F-2025/exam-desk/internal/engine/enginetest"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/models"
	"github.com/SAP-F-2025/exam-desk/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type backend struct {
	store  *memory.Store
	engine *enginetest.Engine
	bridge bridge.Bridge
}

// newBackend wires the real command layer over the in-memory store.
func newBackend(t *testing.T) *backend {
	t.Helper()
	logger := testLogger()
	bus := events.NewGoChannelBus(logger)
	t.Cleanup(func() { _ = bus.Close() })

	be := &backend{store: memory.New(), engine: &enginetest.Engine{ExportOut: "ok"}}
	v := validator.New()
	sm := services.NewServiceManager(services.Dependencies{
		Repo:      be.store,
		Engine:    be.engine,
		Solver:    &enginetest.Solver{Answer: `{"answers":[{"q_num":1,"answer":"C"}]}`},
		Publisher: bus,
		Logger:    logger,
		Validator: v,
	}, services.ServiceManagerConfig{StaticDir: t.TempDir()})
	require.NoError(t, sm.Initialize(context.Background()))
	t.Cleanup(func() { _ = sm.Shutdown(context.Background()) })

	be.bridge = bridge.NewLocalBridge(commands.NewDispatcher(sm, v, logger), bus, logger)
	return be
}

func TestIntegration_AnalyzeAndSave(t *testing.T) {
	be := newBackend(t)
	be.engine.Lines = []string{
		`{"type":"start","total":2}`,
		`not json`,
		`{"type":"progress","current":1,"total":2,"questions":[{"id":"p1q1","text":"Soru 1","image_path":"/img/p1q1.png","page":1,"topic":"Geometri","difficulty":4}]}`,
		`{"type":"progress","current":2,"total":2,"questions":[{"id":"p2q1","text":"Soru 2","image_path":"/img/p2q1.png","page":2}]}`,
		`{"type":"finish"}`,
	}
	pdf := filepath.Join(t.TempDir(), "deneme.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	c := NewAnalysisController(be.bridge, testLogger())
	defer c.Close()
	require.NoError(t, c.Start(context.Background(), pdf))

	require.Eventually(t, func() bool { return c.Snapshot().State == AnalysisFinished }, 5*time.Second, 10*time.Millisecond)
	snap := c.Snapshot()
	assert.Equal(t, ViewResults, snap.View)
	assert.Equal(t, 2, snap.Current)
	require.Len(t, snap.Questions, 2)

	saved, err := c.SaveAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, saved)

	stored := be.store.Snapshot().Questions
	require.Len(t, stored, 2)
	for _, q := range stored {
		require.NotNil(t, q.SourcePDF)
		assert.Equal(t, pdf, *q.SourcePDF)
		require.NotNil(t, q.Topic)
		require.NotNil(t, q.Difficulty)
		if q.ImagePath == "/img/p2q1.png" {
			assert.Equal(t, models.DefaultTopic, *q.Topic)
			assert.Equal(t, models.DefaultDifficulty, *q.Difficulty)
		}
	}
}

func TestIntegration_EngineDiesWithoutReporting(t *testing.T) {
	be := newBackend(t)
	be.engine.Lines = []string{`{"type":"start","total":3}`}
	be.engine.Err = os.ErrClosed
	pdf := filepath.Join(t.TempDir(), "deneme.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	c := NewAnalysisController(be.bridge, testLogger())
	defer c.Close()
	require.NoError(t, c.Start(context.Background(), pdf))

	require.Eventually(t, func() bool { return c.Snapshot().State == AnalysisFailed }, 5*time.Second, 10*time.Millisecond)
	assert.NotEmpty(t, c.Snapshot().Error)
}

func TestIntegration_MissingPDFFailsToStart(t *testing.T) {
	be := newBackend(t)
	c := NewAnalysisController(be.bridge, testLogger())

	require.Error(t, c.Start(context.Background(), "/nonexistent/file.pdf"))
	snap := c.Snapshot()
	assert.Equal(t, AnalysisFailed, snap.State)
	assert.Contains(t, snap.Error, "failed to start analysis: ")
}

func TestIntegration_GenerateExportExcludesSolved(t *testing.T) {
	be := newBackend(t)
	ctx := context.Background()
	for i := 0; i < 6; i++ {
		be.store.AddQuestion("q", "Geometri", 3, filepath.Join("/img", string(rune('a'+i))+".png"))
	}

	students := NewStudentsController(be.bridge, testLogger())
	studentID, err := students.Add(ctx, "Zeynep")
	require.NoError(t, err)

	builder := NewTestBuilderController(be.bridge, testLogger())
	require.NoError(t, builder.LoadOptions(ctx))
	assert.Equal(t, []string{"Geometri"}, builder.Snapshot().Topics)

	first, err := builder.Generate(ctx, models.GenerateTestParams{Count: 4, StudentID: &studentID})
	require.NoError(t, err)
	require.Len(t, first, 4)

	req, err := builder.ExportRequest(nil)
	require.NoError(t, err)
	result, err := NewExportController(be.bridge, StaticDialog(filepath.Join(t.TempDir(), DefaultExportName)), testLogger()).Export(ctx, req)
	require.NoError(t, err)
	assert.NotZero(t, result.TestID)
	require.Len(t, be.engine.Exports(), 1)

	second, err := builder.Regenerate(ctx)
	require.NoError(t, err)
	assert.Len(t, second, 2)
	for _, q := range second {
		for _, solved := range first {
			assert.NotEqual(t, solved.ID, q.ID)
		}
	}

	archive := NewArchiveController(be.bridge, testLogger())
	require.NoError(t, archive.Load(ctx))
	tests := archive.Snapshot().Tests
	require.Len(t, tests, 1)
	require.NotNil(t, tests[0].StudentName)
	assert.Equal(t, "Zeynep", *tests[0].StudentName)
	assert.Equal(t, 4, tests[0].QuestionCount)

	require.NoError(t, archive.Select(ctx, tests[0].ID))
	key, err := archive.GenerateAnswerKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, "C", key.Answers[0].Answer)
}

func TestIntegration_TemplateEditAndLibraryPaging(t *testing.T) {
	be := newBackend(t)
	ctx := context.Background()
	for i := 0; i < 25; i++ {
		be.store.AddQuestion("Soru", "Sayılar", 1, "/img/q.png")
	}

	lib := NewLibraryController(be.bridge, testLogger())
	require.NoError(t, lib.SetDifficulty(ctx, ptr(models.DifficultyEasy)))
	snap := lib.Snapshot()
	assert.EqualValues(t, 25, snap.Total)
	assert.Equal(t, 2, snap.TotalPages)
	require.NoError(t, lib.SetPage(ctx, 2))
	assert.Len(t, lib.Snapshot().Questions, 5)

	templates := NewTemplatesController(be.bridge, testLogger())
	editor := newTemplateEditor(bridge.NewClient(be.bridge), CreateMode{Path: "/tpl/a4.pdf"}, "A4", models.FullPage())
	editor.SetTop(120)
	id, err := templates.Save(ctx, editor)
	require.NoError(t, err)
	require.Len(t, templates.Templates(), 1)

	edit, err := templates.BeginEdit(templates.Templates()[0])
	require.NoError(t, err)
	assert.Equal(t, EditMode{ID: id}, edit.Mode())
	assert.Equal(t, 120, edit.Margins().Top)
}
