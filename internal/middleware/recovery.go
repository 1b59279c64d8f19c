package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/metrics"
)

// Recovery turns a handler panic into a 500 with the standard error body.
// Nothing is written when the handler already started the response.
func Recovery(logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			route := c.FullPath()
			metrics.PanicsTotal.WithLabelValues(route).Inc()
			logger.Errorw("panic recovered",
				"error", rec,
				"request_id", GetRequestID(c),
				"route", route,
				"method", c.Request.Method,
				"stack", string(debug.Stack()),
			)

			if c.Writer.Written() {
				c.Abort()
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error": gin.H{"code": "INTERNAL_ERROR", "message": "internal server error"},
			})
		}()

		c.Next()
	}
}
