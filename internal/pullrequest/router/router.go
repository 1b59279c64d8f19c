// Package router provides pull request webhook routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/ingest"
	"github.com/festy23/prmetrics/internal/pullrequest/handler"
	"github.com/festy23/prmetrics/internal/pullrequest/service"
)

// RegisterRoutes registers pull request webhook routes on an authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, runner *ingest.Runner, logger *zap.SugaredLogger) {
	svc := service.New(runner, logger)
	h := handler.New(svc, logger)

	prs := rg.Group("/pull-requests")
	prs.POST("/opened", h.Opened)
	prs.POST("/synchronize", h.Synchronize)
	prs.POST("/closed", h.Closed)
	prs.POST("/converted-to-draft", h.ConvertedToDraft)
	prs.POST("/ready-for-review", h.ReadyForReview)
}
