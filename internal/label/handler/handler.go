// Package handler provides HTTP handlers for label webhooks.
package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/label/service"
	"github.com/festy23/prmetrics/internal/webhook"
)

// Handler handles HTTP requests for label webhooks.
type Handler struct {
	service service.Service
	logger  *zap.SugaredLogger
}

// New creates a new label handler instance.
func New(svc service.Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{service: svc, logger: logger}
}

// Added handles POST /webhooks/labels/added.
func (h *Handler) Added(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Added)
}

// Removed handles POST /webhooks/labels/removed.
func (h *Handler) Removed(c *gin.Context) {
	webhook.Handle(c, h.logger, h.service.Removed)
}
