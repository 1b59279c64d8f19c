// Package handler provides HTTP handlers for reviewer request webhooks.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/reviewer/service"
	"github.com/festy23/prmetrics/internal/webhook"
)

// Handler handles HTTP requests for reviewer request webhooks.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new reviewer handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Added handles POST /webhooks/reviewers/added.
func (h *Handler) Added(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Added)
}

// Removed handles POST /webhooks/reviewers/removed.
func (h *Handler) Removed(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Removed)
}
