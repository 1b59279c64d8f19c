// Package webhook holds the HTTP plumbing shared by every webhook endpoint:
// authentication, signature verification, payload binding and error mapping.
package webhook

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/festy23/prmetrics/internal/database/tx"
	projectModel "github.com/festy23/prmetrics/internal/project/model"
	pullrequestModel "github.com/festy23/prmetrics/internal/pullrequest/model"
	"github.com/festy23/prmetrics/internal/validation"
)

// ErrorResponse represents error response structure.
type ErrorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// AcceptedResponse is returned for every processed delivery, including absorbed duplicates.
type AcceptedResponse struct {
	Status string `json:"status"`
}

// retryAfterSeconds is sent with 503 so GitHub and other senders back off before redelivery.
const retryAfterSeconds = "5"

func errorResponse(c *gin.Context, code, message string, status int) {
	resp := ErrorResponse{}
	resp.Error.Code = code
	resp.Error.Message = message
	c.AbortWithStatusJSON(status, resp)
}

// Handle binds the JSON body into T and calls fn with the authenticated API key.
func Handle[T any](c *gin.Context, logger *zap.SugaredLogger, fn func(context.Context, string, *T) error) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		errorResponse(c, "INVALID_REQUEST", "invalid request body", http.StatusBadRequest)
		return
	}

	if err := fn(c.Request.Context(), APIKey(c), &payload); err != nil {
		Respond(c, logger, err)
		return
	}

	c.JSON(http.StatusAccepted, AcceptedResponse{Status: "accepted"})
}

// Respond maps a handler error to an HTTP status.
func Respond(c *gin.Context, logger *zap.SugaredLogger, err error) {
	switch {
	case errors.Is(err, projectModel.ErrInvalidAPIKey):
		errorResponse(c, "UNAUTHORIZED", "invalid api key", http.StatusUnauthorized)
	case errors.Is(err, ErrInvalidSignature):
		errorResponse(c, "UNAUTHORIZED", "invalid signature", http.StatusUnauthorized)
	case errors.Is(err, validation.ErrInvalidArgument):
		errorResponse(c, "INVALID_REQUEST", err.Error(), http.StatusBadRequest)
	case errors.Is(err, pullrequestModel.ErrPullRequestNotFound):
		errorResponse(c, "NOT_FOUND", "pull request not found", http.StatusNotFound)
	case errors.Is(err, tx.ErrTransient):
		c.Header("Retry-After", retryAfterSeconds)
		errorResponse(c, "UNAVAILABLE", "temporarily unavailable, retry later", http.StatusServiceUnavailable)
	default:
		logger.Errorw("webhook processing failed",
			"path", c.FullPath(),
			"error", err,
		)
		errorResponse(c, "INTERNAL_ERROR", "internal server error", http.StatusInternalServerError)
	}
}
