// Package router provides label webhook routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/ingest"
	"github.com/festy23/prmetrics/internal/label/handler"
	"github.com/festy23/prmetrics/internal/label/service"
)

// RegisterRoutes registers label webhook routes on an authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, runner *ingest.Runner, logger *zap.SugaredLogger) {
	h := handler.New(service.New(runner, logger), logger)

	labels := rg.Group("/labels")
	labels.POST("/added", h.Added)
	labels.POST("/removed", h.Removed)
}
