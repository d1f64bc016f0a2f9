package restclient

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/commands"
	"github.com/SAP-F-2025/exam-desk/internal/engine/enginetest"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/handlers"
	"github.com/SAP-F-2025/exam-desk/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type fixture struct {
	client    *Client
	store     *memory.Store
	engine    *enginetest.Engine
	staticDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	v := validator.New()
	f := &fixture{store: memory.New(), engine: &enginetest.Engine{}, staticDir: t.TempDir()}

	bus := events.NewGoChannelBus(logger)
	t.Cleanup(func() { _ = bus.Close() })
	sm := services.NewServiceManager(services.Dependencies{
		Repo:      f.store,
		Engine:    f.engine,
		Solver:    &enginetest.Solver{},
		Publisher: bus,
		Logger:    logger,
		Validator: v,
	}, services.ServiceManagerConfig{StaticDir: f.staticDir})
	require.NoError(t, sm.Initialize(context.Background()))
	t.Cleanup(func() { _ = sm.Shutdown(context.Background()) })

	router := gin.New()
	handlers.SetupMiddleware(router, utils.NewSlogLogger(logger))
	handlers.NewHandlerManager(sm, commands.NewDispatcher(sm, v, logger), bus, f.store, v, utils.NewSlogLogger(logger), handlers.RouterConfig{
		StaticDir: f.staticDir,
		UploadDir: t.TempDir(),
	}).SetupRoutes(router)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	f.client = New(srv.URL+"/", srv.Client(), logger)
	return f
}

func TestClient_QuestionsAndStats(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.store.AddQuestion("Soru", "Geometri", 4, "/data/img/q1.png")
	f.store.AddQuestion("Soru 2", "Sayılar", 1, "")

	views, err := f.client.ListQuestions(ctx)
	require.NoError(t, err)
	require.Len(t, views, 2)
	for _, v := range views {
		if v.ID == id {
			assert.Equal(t, "/images/q1.png", v.Image)
			assert.Equal(t, "Geometri", v.Subject)
			assert.Equal(t, "hard", v.Difficulty)
		}
	}

	stats, err := f.client.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, stats.TotalQuestions)
	assert.EqualValues(t, 1, stats.ByTopic["Geometri"])

	require.NoError(t, f.client.DeleteQuestion(ctx, id))
	err = f.client.DeleteQuestion(ctx, id)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_UploadPDF(t *testing.T) {
	f := newFixture(t)
	f.engine.Lines = []string{
		`{"type":"start","total":1}`,
		`{"type":"progress","current":1,"total":1,"questions":[{"id":"a","text":"A","image_path":"/img/a.png","page":1},{"id":"b","text":"B","image_path":"/img/b.png","page":1}]}`,
		`{"type":"finish"}`,
	}
	pdf := filepath.Join(t.TempDir(), "kitap.pdf")
	require.NoError(t, os.WriteFile(pdf, []byte("%PDF-1.4"), 0o644))

	result, err := f.client.UploadPDF(context.Background(), pdf)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Saved)
	assert.Len(t, f.store.Snapshot().Questions, 2)

	txt := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(txt, []byte("x"), 0o644))
	_, err = f.client.UploadPDF(context.Background(), txt)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
}

func TestClient_GenerateAndDownload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.store.AddQuestion("A", "Geometri", 3, "/img/a.png")
	b := f.store.AddQuestion("B", "Geometri", 3, "/img/b.png")

	pdf, err := f.client.GenerateTest(ctx, services.GenerateTestRequest{Title: "Deneme 1", QuestionIDs: []uint{a, b}})
	require.NoError(t, err)
	assert.Equal(t, 2, pdf.QuestionCount)
	assert.NotZero(t, pdf.TestID)
	require.Len(t, f.engine.Exports(), 1)

	// The scripted engine does not write the file.
	require.NoError(t, os.WriteFile(filepath.Join(f.staticDir, pdf.Filename), []byte("%PDF-1.4 test"), 0o644))

	var buf bytes.Buffer
	n, err := f.client.Download(ctx, pdf.URL, &buf)
	require.NoError(t, err)
	assert.EqualValues(t, len("%PDF-1.4 test"), n)

	files, err := f.client.ListTests(ctx)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, pdf.Filename, files[0].Filename)

	_, err = f.client.Download(ctx, "/images/missing.pdf", &buf)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
}

func TestClient_RandomTestValidation(t *testing.T) {
	f := newFixture(t)

	_, err := f.client.GenerateRandomTest(context.Background(), services.RandomTestRequest{Count: 0})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Validation failed", apiErr.Message)
	assert.NotEmpty(t, apiErr.Details)
}

func TestClient_Health(t *testing.T) {
	assert.NoError(t, newFixture(t).client.Health(context.Background()))
}
