package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
)

// TestHandler renders tests into the static directory for the browser variant.
type TestHandler struct {
	BaseHandler
	generator services.GeneratorService
}

func NewTestHandler(generator services.GeneratorService, logger utils.Logger) *TestHandler {
	return &TestHandler{
		BaseHandler: NewBaseHandler(logger),
		generator:   generator,
	}
}

// GenerateTest renders the selected questions
// @Summary Generate test from selection
// @Tags tests
// @Accept json
// @Produce json
// @Param request body services.GenerateTestRequest true "Selection"
// @Success 200 {object} services.GeneratedPDF
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/generate-test [post]
func (h *TestHandler) GenerateTest(c *gin.Context) {
	var req services.GenerateTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	h.LogRequest(c, "Generating test", "questions", len(req.QuestionIDs))

	pdf, err := h.generator.BuildFromSelection(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pdf)
}

// GenerateRandomTest samples and renders questions
// @Summary Generate random test
// @Tags tests
// @Accept json
// @Produce json
// @Param request body services.RandomTestRequest true "Criteria"
// @Success 200 {object} services.GeneratedPDF
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/generate-random-test [post]
func (h *TestHandler) GenerateRandomTest(c *gin.Context) {
	var req services.RandomTestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	h.LogRequest(c, "Generating random test", "subject", req.Subject, "count", req.Count)

	pdf, err := h.generator.BuildRandom(c.Request.Context(), &req)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, pdf)
}

// ListTests lists rendered PDFs, newest first
// @Summary List generated tests
// @Tags tests
// @Produce json
// @Success 200 {array} services.GeneratedFile
// @Router /api/tests [get]
func (h *TestHandler) ListTests(c *gin.Context) {
	files, err := h.generator.ListGenerated(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, files)
}
