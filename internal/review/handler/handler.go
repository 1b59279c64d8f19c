// Package handler provides HTTP handlers for review and review comment webhooks.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/review/service"
	"github.com/festy23/prmetrics/internal/webhook"
)

// Handler handles HTTP requests for review webhooks.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new review handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Submitted handles POST /webhooks/reviews/submitted.
func (h *Handler) Submitted(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Submitted)
}

// CommentCreated handles POST /webhooks/review-comments/created.
func (h *Handler) CommentCreated(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.CommentCreated)
}

// CommentEdited handles POST /webhooks/review-comments/edited.
func (h *Handler) CommentEdited(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.CommentEdited)
}
