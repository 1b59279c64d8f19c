package webhook

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/go-github/v62/github"
	"go.uber.org/zap"

	projectRepository "github.com/festy23/prmetrics/internal/project/repository"
)

// Request headers read by Authenticate.
const (
	HeaderAPIKey    = "X-API-Key"
	HeaderSignature = "X-Hub-Signature-256"
)

const apiKeyContextKey = "webhook.api_key"

// ErrInvalidSignature indicates a missing or wrong X-Hub-Signature-256 for a project with a webhook secret.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// Authenticate resolves the project for X-API-Key and, when the project has a webhook
// secret, verifies the body signature. The body is restored for binding.
func Authenticate(projects projectRepository.Repository, logger *zap.SugaredLogger) gin.HandlerFunc {
	return func(c *gin.Context) {
		apiKey := c.GetHeader(HeaderAPIKey)
		project, err := projects.FindByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			Respond(c, logger, err)
			return
		}

		if project.WebhookSecret != "" {
			body, err := io.ReadAll(c.Request.Body)
			if err != nil {
				errorResponse(c, "INVALID_REQUEST", "failed to read request body", http.StatusBadRequest)
				return
			}
			c.Request.Body = io.NopCloser(bytes.NewReader(body))

			signature := c.GetHeader(HeaderSignature)
			if err := github.ValidateSignature(signature, body, []byte(project.WebhookSecret)); err != nil {
				logger.Warnw("webhook signature rejected",
					"project_id", project.ID,
					"path", c.FullPath(),
					"error", err,
				)
				Respond(c, logger, ErrInvalidSignature)
				return
			}
		}

		c.Set(apiKeyContextKey, apiKey)
		c.Next()
	}
}

// APIKey returns the key stored by Authenticate, falling back to the header.
func APIKey(c *gin.Context) string {
	if key, ok := c.Get(apiKeyContextKey); ok {
		if s, ok := key.(string); ok {
			return s
		}
	}
	return c.GetHeader(HeaderAPIKey)
}
