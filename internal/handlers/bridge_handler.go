package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SAP-F-2025/exam-desk/internal/bridge"
	"github.com/SAP-F-2025/exam-desk/internal/events"
	"github.com/SAP-F-2025/exam-desk/internal/utils"
	"github.com/SAP-F-2025/exam-desk/internal/validator"
)

const sseKeepAlive = 15 * time.Second

// BridgeHandler serves the command bridge over HTTP.
type BridgeHandler struct {
	BaseHandler
	dispatcher bridge.Dispatcher
	subscriber events.Subscriber
	validator  *validator.Validator
}

func NewBridgeHandler(dispatcher bridge.Dispatcher, subscriber events.Subscriber, validator *validator.Validator, logger utils.Logger) *BridgeHandler {
	return &BridgeHandler{
		BaseHandler: NewBaseHandler(logger),
		dispatcher:  dispatcher,
		subscriber:  subscriber,
		validator:   validator,
	}
}

// Invoke runs one command. The body is the command's JSON params.
// @Router /bridge/invoke/{command} [post]
func (h *BridgeHandler) Invoke(c *gin.Context) {
	command := c.Param("command")

	params, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, bridge.InvokeResponse{Message: "failed to read params"})
		return
	}

	result, err := h.dispatcher.Dispatch(c.Request.Context(), command, json.RawMessage(params))
	if err != nil {
		c.JSON(statusFor(err), bridge.InvokeResponse{Message: err.Error()})
		return
	}

	data, err := json.Marshal(result)
	if err != nil {
		h.LogError(c, err, "Failed to encode command result")
		c.JSON(http.StatusInternalServerError, bridge.InvokeResponse{Message: "failed to encode result"})
		return
	}
	c.JSON(http.StatusOK, bridge.InvokeResponse{Result: data})
}

// Events streams one event name as server-sent events. The first event is
// bridge.ReadyEvent, sent once the subscription is live.
// @Router /bridge/events/{event} [get]
func (h *BridgeHandler) Events(c *gin.Context) {
	event := c.Param("event")
	ctx := c.Request.Context()

	payloads, err := h.subscriber.Subscribe(ctx, event)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.LogRequest(c, "Event stream opened", "event", event)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.SSEvent(bridge.ReadyEvent, "")
	c.Writer.Flush()

	keepAlive := time.NewTicker(sseKeepAlive)
	defer keepAlive.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case payload, ok := <-payloads:
			if !ok {
				return false
			}
			c.SSEvent(event, payload)
			return true
		case <-keepAlive.C:
			_, err := io.WriteString(w, ": keep-alive\n\n")
			return err == nil
		}
	})
	h.LogRequest(c, "Event stream closed", "event", event)
}

// Log writes a client-side message to the host log.
// @Router /bridge/log [post]
func (h *BridgeHandler) Log(c *gin.Context) {
	var req validator.LogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Message: "Invalid request body", Details: err.Error()})
		return
	}
	if errs := h.validator.Validate(&req); len(errs) > 0 {
		h.handleServiceError(c, errs)
		return
	}

	logger := utils.GetLogger(c)
	switch req.Level {
	case "debug":
		logger.Debug("Client log", "message", req.Message)
	case "warn":
		logger.Warn("Client log", "message", req.Message)
	case "error":
		logger.Error("Client log", "message", req.Message)
	default:
		logger.Info("Client log", "message", req.Message)
	}
	c.Status(http.StatusNoContent)
}
