// Package handler provides HTTP handlers for pull request webhooks.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/pullrequest/service"
	"github.com/festy23/prmetrics/internal/webhook"
)

// Handler handles HTTP requests for pull request webhooks.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new pull request handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Opened handles POST /webhooks/pull-requests/opened.
func (h *Handler) Opened(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Opened)
}

// Synchronize handles POST /webhooks/pull-requests/synchronize.
func (h *Handler) Synchronize(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Synchronized)
}

// Closed handles POST /webhooks/pull-requests/closed.
func (h *Handler) Closed(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Closed)
}

// ConvertedToDraft handles POST /webhooks/pull-requests/converted-to-draft.
func (h *Handler) ConvertedToDraft(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.ConvertedToDraft)
}

// ReadyForReview handles POST /webhooks/pull-requests/ready-for-review.
func (h *Handler) ReadyForReview(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.ReadyForReview)
}
