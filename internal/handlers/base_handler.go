package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-desk/internal/commands"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// ===== RESPONSES =====

type ErrorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type SuccessResponse struct {
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// BaseHandler carries what every handler needs: logging and error mapping.
type BaseHandler struct {
	logger utils.Logger
}

func NewBaseHandler(logger utils.Logger) BaseHandler {
	return BaseHandler{logger: logger}
}

func (h *BaseHandler) LogRequest(c *gin.Context, msg string, args ...any) {
	utils.GetLogger(c).Info(msg, append([]any{"path", c.Request.URL.Path}, args...)...)
}

func (h *BaseHandler) LogError(c *gin.Context, err error, msg string) {
	utils.GetLogger(c).Error(msg, "error", err, "path", c.Request.URL.Path)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case validator.IsValidationError(err),
		errors.Is(err, commands.ErrInvalidParams),
		errors.Is(err, services.ErrTestHasNoQuestions):
		return http.StatusBadRequest
	case services.IsNotFound(err), errors.Is(err, commands.ErrUnknownCommand):
		return http.StatusNotFound
	case services.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *BaseHandler) handleServiceError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: validationErrors,
		})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.LogError(c, err, "Unexpected service error")
		c.JSON(status, ErrorResponse{Message: "Internal server error", Details: err.Error()})
		return
	}
	c.JSON(status, ErrorResponse{Message: err.Error()})
}

func (h *BaseHandler) parseIDParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid " + name})
		return 0, false
	}
	return uint(id), true
}
