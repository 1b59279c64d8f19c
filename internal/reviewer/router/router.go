// Package router provides reviewer request webhook routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/ingest"
	"github.com/festy23/prmetrics/internal/reviewer/handler"
	"github.com/festy23/prmetrics/internal/reviewer/service"
)

// RegisterRoutes registers reviewer webhook routes on an authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, runner *ingest.Runner, logger *zap.SugaredLogger) {
	h := handler.New(service.New(runner, logger), logger)

	reviewers := rg.Group("/reviewers")
	reviewers.POST("/added", h.Added)
	reviewers.POST("/removed", h.Removed)
}
