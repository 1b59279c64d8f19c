// Package router provides review webhook routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/ingest"
	"github.com/festy23/prmetrics/internal/review/handler"
	"github.com/festy23/prmetrics/internal/review/service"
)

// RegisterRoutes registers review and review comment webhook routes on an authenticated group.
func RegisterRoutes(rg *gin.RouterGroup, runner *ingest.Runner, logger *zap.SugaredLogger) {
	h := handler.New(service.New(runner, logger), logger)

	rg.POST("/reviews/submitted", h.Submitted)

	comments := rg.Group("/review-comments")
	comments.POST("/created", h.CommentCreated)
	comments.POST("/edited", h.CommentEdited)
}
