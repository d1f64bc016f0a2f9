package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
)

// QuestionHandler serves the REST question library.
type QuestionHandler struct {
	BaseHandler
	questions services.QuestionService
	analysis  services.AnalysisService
	uploadDir string
}

func NewQuestionHandler(questions services.QuestionService, analysis services.AnalysisService, uploadDir string, logger utils.Logger) *QuestionHandler {
	return &QuestionHandler{
		BaseHandler: NewBaseHandler(logger),
		questions:   questions,
		analysis:    analysis,
		uploadDir:   uploadDir,
	}
}

// ListQuestions returns every question with its image mapped to a URL
// @Summary List questions
// @Tags questions
// @Produce json
// @Success 200 {array} services.QuestionView
// @Failure 500 {object} ErrorResponse
// @Router /api/questions [get]
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	views, err := h.questions.ListViews(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// DeleteQuestion deletes one question
// @Summary Delete question
// @Tags questions
// @Param id path int true "Question ID"
// @Success 200 {object} SuccessResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /api/questions/{id} [delete]
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := h.parseIDParam(c, "id")
	if !ok {
		return
	}
	h.LogRequest(c, "Deleting question", "question_id", id)

	if err := h.questions.Delete(c.Request.Context(), id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{Message: "Question deleted"})
}

// UploadPDF keeps the uploaded PDF in the upload directory, runs the engine over
// it and saves every extracted question before answering
// @Summary Import questions from a PDF
// @Tags questions
// @Accept multipart/form-data
// @Param file formData file true "PDF file"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /api/upload-pdf [post]
func (h *QuestionHandler) UploadPDF(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "A PDF file is required", Details: err.Error()})
		return
	}
	if !strings.EqualFold(filepath.Ext(file.Filename), ".pdf") {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Only PDF files are accepted"})
		return
	}

	if err := os.MkdirAll(h.uploadDir, 0o755); err != nil {
		h.handleServiceError(c, err)
		return
	}
	dst := filepath.Join(h.uploadDir, uuid.NewString()+"_"+filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.handleServiceError(c, err)
		return
	}

	h.LogRequest(c, "Importing PDF", "filename", file.Filename, "size", file.Size)
	result, err := h.analysis.ImportPDF(c.Request.Context(), dst)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// GetStats returns library counters
// @Summary Library statistics
// @Tags questions
// @Produce json
// @Success 200 {object} models.QuestionStats
// @Router /api/stats [get]
func (h *QuestionHandler) GetStats(c *gin.Context) {
	stats, err := h.questions.Stats(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
