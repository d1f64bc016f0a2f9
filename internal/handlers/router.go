package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/services"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

type RouterConfig struct {
	StaticDir string
	UploadDir string
}

type HandlerManager struct {
	bridgeHandler   *BridgeHandler
	questionHandler *QuestionHandler
	testHandler     *TestHandler
	health          HealthChecker
	config          RouterConfig
}

func NewHandlerManager(
	serviceManager services.ServiceManager,
	dispatcher bridge.Dispatcher,
	subscriber events.Subscriber,
	health HealthChecker,
	validator *validator.Validator,
	logger utils.Logger,
	config RouterConfig,
) *HandlerManager {
	return &HandlerManager{
		bridgeHandler:   NewBridgeHandler(dispatcher, subscriber, validator, logger),
		questionHandler: NewQuestionHandler(serviceManager.Question(), serviceManager.Analysis(), config.UploadDir, logger),
		testHandler:     NewTestHandler(serviceManager.Generator(), logger),
		health:          health,
		config:          config,
	}
}

// SetupRoutes sets up all routes
func (hm *HandlerManager) SetupRoutes(router *gin.Engine) {
	// Command bridge used by the desktop shell and the terminal client
	bridgeGroup := router.Group("/bridge")
	{
		bridgeGroup.POST("/invoke/:command", hm.bridgeHandler.Invoke)
		bridgeGroup.GET("/events/:event", hm.bridgeHandler.Events)
		bridgeGroup.POST("/log", hm.bridgeHandler.Log)
	}

	// REST API of the browser-hosted variant
	api := router.Group("/api")
	{
		api.GET("/questions", hm.questionHandler.ListQuestions)
		api.DELETE("/questions/:id", hm.questionHandler.DeleteQuestion)
		api.POST("/upload-pdf", hm.questionHandler.UploadPDF)
		api.GET("/stats", hm.questionHandler.GetStats)

		api.POST("/generate-test", hm.testHandler.GenerateTest)
		api.POST("/generate-random-test", hm.testHandler.GenerateRandomTest)
		api.GET("/tests", hm.testHandler.ListTests)
	}

	// Question images and rendered tests
	router.Static("/images", hm.config.StaticDir)

	// Health check endpoint
	router.GET("/health", hm.healthCheck)
}

func (hm *HandlerManager) healthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if hm.health != nil {
		if err := hm.health.Ping(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"service": "exam-desk",
				"error":   err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "exam-desk",
	})
}
