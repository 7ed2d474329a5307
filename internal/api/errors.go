package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/pipeline"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/slug"
)

// origin says who produced the document a pipeline error is about.
type origin int

const (
	// fromModel documents came out of the LLM; their failures are upstream (502).
	fromModel origin = iota
	// fromClient documents were submitted by the caller (400).
	fromClient
)

// writeError renders err as {"error", "kind", "path", "attempts", "raw"}.
func writeError(c *gin.Context, log *logger.Logger, err error, src origin) {
	if perr, ok := pipeline.AsError(err); ok {
		status := http.StatusBadGateway
		if src == fromClient {
			status = http.StatusBadRequest
		}
		if errors.Is(err, pipeline.ErrSlugConflict) {
			status = http.StatusConflict
		}

		body := gin.H{"error": perr.Error(), "kind": perr.KindName()}
		if perr.Path != "" {
			body["path"] = perr.Path
		}
		if perr.Attempt > 0 {
			body["attempts"] = perr.Attempt
		}
		if perr.Raw != "" {
			body["raw"] = perr.Raw
		}
		c.JSON(status, body)
		return
	}

	switch {
	case errors.Is(err, service.ErrRecipeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipe not found"})
	case errors.Is(err, service.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
	case errors.Is(err, service.ErrAlreadyLiked):
		c.JSON(http.StatusBadRequest, gin.H{"error": "already liked"})
	case errors.Is(err, service.ErrEmptyInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrTextGeneration):
		log.Warn("text generation failed", "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "text generation failed", "kind": "llm_error"})
	case errors.Is(err, service.ErrLLMNotAvailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	case errors.Is(err, slug.ErrExhausted):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "slug_conflict", "path": "slug"})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.JSON(http.StatusGatewayTimeout, gin.H{"error": "request cancelled"})
	default:
		log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// currentUserID returns the caller stored by middleware.AuthMiddleware.
func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userIDVal, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, false
	}
	userID, ok := userIDVal.(uuid.UUID)
	return userID, ok && userID != uuid.Nil
}
