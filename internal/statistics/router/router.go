// Package router provides statistics module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
	"github.com/festy23/prmetrics/internal/statistics/handler"
	"github.com/festy23/prmetrics/internal/statistics/repository"
	"github.com/festy23/prmetrics/internal/statistics/service"
)

// RegisterRoutes registers statistics module routes.
func RegisterRoutes(r gin.IRouter, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(projectRepository.New(db, logger), repo, logger)
	h := handler.New(svc, logger)

	projects := r.Group("/statistics/projects/:projectId")
	projects.GET("/reviewer-concentration", h.GetReviewerConcentration)
	projects.GET("/size-correlation", h.GetSizeCorrelation)
	projects.GET("/review-wait", h.GetReviewWaitTime)
	projects.GET("/trend", h.GetTrend)
	projects.GET("/size-distribution", h.GetSizeDistribution)
	projects.GET("/lifecycle", h.GetLifecycleSummary)
}
