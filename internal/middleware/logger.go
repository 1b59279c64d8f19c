// Package middleware provides HTTP middleware functions.
package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GitHub delivery headers, logged so a webhook can be matched to its redelivery.
const (
	HeaderGitHubDelivery = "X-GitHub-Delivery"
	HeaderGitHubEvent    = "X-GitHub-Event"
)

// Logger logs one entry per request. The level follows the response status.
func Logger(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := requestFields(c, status, time.Since(start))

		log := logger.Infow
		if status >= 500 {
			log = logger.Errorw
		} else if status >= 400 {
			log = logger.Warnw
		}
		log("HTTP request", fields...)
	}
}

func requestFields(c *gin.Context, status int, latency time.Duration) []interface{} {
	fields := []interface{}{
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", status,
		"latency_ms", latency.Milliseconds(),
		"client_ip", c.ClientIP(),
	}
	optional := [][2]string{
		{"request_id", GetRequestID(c)},
		{"route", c.FullPath()},
		{"query", c.Request.URL.RawQuery},
		{"github_delivery", c.GetHeader(HeaderGitHubDelivery)},
		{"github_event", c.GetHeader(HeaderGitHubEvent)},
	}
	for _, f := range optional {
		if f[1] != "" {
			fields = append(fields, f[0], f[1])
		}
	}
	if len(c.Errors) > 0 {
		fields = append(fields, "errors", c.Errors.String())
	}
	return fields
}
