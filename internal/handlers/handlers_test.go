package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/commands"
	"github.com/SAP-F-2025/exam-desk/internal/engine/enginetest"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/repositories/memory"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

type testServer struct {
	router    *gin.Engine
	store     *memory.Store
	engine    *enginetest.Engine
	staticDir string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	slogger := slog.New(slog.NewTextHandler(io.Discard, nil))
	logger := utils.NewSlogLogger(slogger)
	v := validator.New()
	ts := &testServer{
		store:     memory.New(),
		engine:    &enginetest.Engine{ExportOut: `{"status":"success"}`},
		staticDir: t.TempDir(),
	}

	bus := events.NewGoChannelBus(slogger)
	t.Cleanup(func() { _ = bus.Close() })

	sm := services.NewServiceManager(services.Dependencies{
		Repo:      ts.store,
		Engine:    ts.engine,
		Solver:    &enginetest.Solver{},
		Publisher: bus,
		Logger:    slogger,
		Validator: v,
	}, services.ServiceManagerConfig{StaticDir: ts.staticDir})
	require.NoError(t, sm.Initialize(context.Background()))
	t.Cleanup(func() { _ = sm.Shutdown(context.Background()) })

	ts.router = gin.New()
	SetupMiddleware(ts.router, logger)
	NewHandlerManager(sm, commands.NewDispatcher(sm, v, slogger), bus, ts.store, v, logger, RouterConfig{
		StaticDir: ts.staticDir,
		UploadDir: t.TempDir(),
	}).SetupRoutes(ts.router)
	return ts
}

func (ts *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decodeInvoke(t *testing.T, w *httptest.ResponseRecorder) bridge.InvokeResponse {
	t.Helper()
	var resp bridge.InvokeResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestBridgeInvoke_ReturnsResult(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodPost, "/bridge/invoke/add_student", `{"name":"Ayse"}`)
	require.Equal(t, http.StatusOK, w.Code)
	id := decodeInvoke(t, w).Result

	w = ts.do(t, http.MethodPost, "/bridge/invoke/list_students", ``)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[[`+string(id)+`,"Ayse"]]`, string(decodeInvoke(t, w).Result))
}

func TestBridgeInvoke_Failures(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		command string
		body    string
		status  int
	}{
		{"unknown command", "drop_tables", `{}`, http.StatusNotFound},
		{"malformed params", "delete_question", `{"id":"x"}`, http.StatusBadRequest},
		{"validation", "add_student", `{"name":""}`, http.StatusBadRequest},
		{"not found", "delete_question", `{"id":42}`, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.do(t, http.MethodPost, "/bridge/invoke/"+tt.command, tt.body)
			assert.Equal(t, tt.status, w.Code)
			resp := decodeInvoke(t, w)
			assert.NotEmpty(t, resp.Message)
			assert.Empty(t, resp.Result)
		})
	}
}

func TestBridgeInvoke_DuplicateStudentConflict(t *testing.T) {
	ts := newTestServer(t)
	require.Equal(t, http.StatusOK, ts.do(t, http.MethodPost, "/bridge/invoke/add_student", `{"name":"Ali"}`).Code)

	w := ts.do(t, http.MethodPost, "/bridge/invoke/add_student", `{"name":"Ali"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, services.ErrStudentExists.Error(), decodeInvoke(t, w).Message)
}

func TestBridgeLog(t *testing.T) {
	ts := newTestServer(t)
	assert.Equal(t, http.StatusNoContent, ts.do(t, http.MethodPost, "/bridge/log", `{"message":"hello","level":"warn"}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/bridge/log", `{"message":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodPost, "/bridge/log", `{"message":"x","level":"loud"}`).Code)
}

func TestAPIQuestions_ListAndDelete(t *testing.T) {
	ts := newTestServer(t)
	id := ts.store.AddQuestion("2+2?", "Math", 1, "/data/out/q_1.png")

	w := ts.do(t, http.MethodGet, "/api/questions", "")
	require.Equal(t, http.StatusOK, w.Code)
	var views []services.QuestionView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	require.Len(t, views, 1)
	assert.Equal(t, "/images/q_1.png", views[0].Image)

	assert.Equal(t, http.StatusBadRequest, ts.do(t, http.MethodDelete, "/api/questions/abc", "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodDelete, "/api/questions/999", "").Code)
	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodDelete, "/api/questions/"+jsonNumber(id), "").Code)
	assert.Empty(t, ts.store.Snapshot().Questions)
}

func TestAPIStats(t *testing.T) {
	ts := newTestServer(t)
	ts.store.AddQuestion("a", "Math", 1, "")
	ts.store.AddQuestion("b", "Math", 5, "")

	w := ts.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"total_questions":2,"total_tests":0,"total_students":0,"by_topic":{"Math":2},"by_difficulty":{"easy":1,"hard":1}}`, w.Body.String())
}

func TestAPIGenerateTest(t *testing.T) {
	ts := newTestServer(t)
	a := ts.store.AddQuestion("a", "Math", 1, "/img/a.png")
	b := ts.store.AddQuestion("b", "Math", 1, "/img/b.png")

	w := ts.do(t, http.MethodPost, "/api/generate-test", `{"title":"Quiz","question_ids":[`+jsonNumber(a)+`,`+jsonNumber(b)+`]}`)
	require.Equal(t, http.StatusOK, w.Code)
	var pdf services.GeneratedPDF
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pdf))
	assert.Equal(t, "success", pdf.Status)
	assert.Equal(t, "/images/"+pdf.Filename, pdf.URL)
	assert.Equal(t, 2, pdf.QuestionCount)

	exports := ts.engine.Exports()
	require.Len(t, exports, 1)
	assert.Equal(t, filepath.Join(ts.staticDir, pdf.Filename), exports[0].OutputPath)

	w = ts.do(t, http.MethodPost, "/api/generate-test", `{"title":"Quiz","question_ids":[]}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAPIGenerateRandomTest_NoMatches(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodPost, "/api/generate-random-test", `{"title":"T","subject":"Math","count":5}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAPITests_ListsPDFs(t *testing.T) {
	ts := newTestServer(t)
	require.NoError(t, os.WriteFile(filepath.Join(ts.staticDir, "test_1.pdf"), []byte("%PDF"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(ts.staticDir, "q_1.png"), []byte("png"), 0o644))

	w := ts.do(t, http.MethodGet, "/api/tests", "")
	require.Equal(t, http.StatusOK, w.Code)
	var files []services.GeneratedFile
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &files))
	require.Len(t, files, 1)
	assert.Equal(t, "test_1.pdf", files[0].Filename)

	w = ts.do(t, http.MethodGet, "/images/test_1.pdf", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "%PDF", w.Body.String())
}

func TestAPIUploadPDF(t *testing.T) {
	ts := newTestServer(t)
	ts.engine.Lines = []string{
		`{"type":"start","total":1}`,
		`{"type":"progress","current":1,"total":1,"questions":[{"id":"q_1","text":"Q1","image_path":"/o/q_1.png","page":1}]}`,
		`{"type":"finish"}`,
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "exam.pdf")
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var result services.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Saved)
	assert.Len(t, ts.store.Snapshot().Questions, 1)
}

func TestAPIUploadPDF_RejectsOtherFiles(t *testing.T) {
	ts := newTestServer(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "notes.txt")
	require.NoError(t, err)
	_, _ = part.Write([]byte("hi"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload-pdf", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMiddleware_RequestIDAndCORS(t *testing.T) {
	ts := newTestServer(t)

	w := ts.do(t, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "abc")
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, "abc", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodOptions, "/api/questions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodDelete)
	w = httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func jsonNumber(id uint) string {
	data, _ := json.Marshal(id)
	return string(data)
}
