package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	contractx "github.com/Sampath-yadav/Sahay-Project/agent/contract"
	nodex "github.com/Sampath-yadav/Sahay-Project/agent/nodes/orchestrator"
)

type handler struct {
	chat         ChatHandler
	checks       []Check
	readyTimeout time.Duration
}

type chatRequest struct {
	SessionID string           `json:"session_id"`
	Message   string           `json:"message" binding:"required"`
	History   []contractx.Turn `json:"history"`
}

type chatResponse struct {
	Reply     string `json:"reply"`
	SessionID string `json:"session_id,omitempty"`
}

type errorBody struct {
	Error string `json:"error"`
}

const replyUnavailable = "The assistant is unavailable right now. Please try again shortly."

func (h *handler) postChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorBody{Error: "message is required"})
		return
	}

	out, err := h.chat.Handle(c.Request.Context(), nodex.GraphInput{
		SessionID: req.SessionID,
		Text:      req.Message,
		History:   req.History,
	})
	if err != nil {
		status, msg := statusFor(err)
		log.Warn().Err(err).Str("request_id", c.GetString(requestIDKey)).Int("status", status).Msg("chat failed")
		c.JSON(status, errorBody{Error: msg})
		return
	}

	c.JSON(http.StatusOK, chatResponse{Reply: out.Reply, SessionID: req.SessionID})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, replyUnavailable
	case errors.Is(err, contractx.ErrModelInvoke),
		errors.Is(err, contractx.ErrSchemaViolation),
		errors.Is(err, contractx.ErrPromptMissing):
		return http.StatusBadGateway, replyUnavailable
	default:
		return http.StatusInternalServerError, replyUnavailable
	}
}

func (h *handler) healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handler) readyz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.readyTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Probe(ctx); err != nil {
			status = http.StatusServiceUnavailable
			results[chk.Name] = err.Error()
			continue
		}
		results[chk.Name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not_ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": results})
}
