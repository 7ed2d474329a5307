package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/service"
)

// LLMHandler serves ask-ai drafts and the creation quota.
type LLMHandler struct {
	drafts  service.DraftStore
	limiter *middleware.RateLimiter
	log     *logger.Logger
}

func NewLLMHandler(drafts service.DraftStore, limiter *middleware.RateLimiter, log *logger.Logger) *LLMHandler {
	return &LLMHandler{drafts: drafts, limiter: limiter, log: log}
}

func (h *LLMHandler) GetDraft(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.drafts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}

	draft, err := service.OwnedDraft(c.Request.Context(), h.drafts, c.Param("id"), userID)
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (h *LLMHandler) DeleteDraft(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	if h.drafts == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "draft not found"})
		return
	}

	id := c.Param("id")
	if _, err := service.OwnedDraft(c.Request.Context(), h.drafts, id, userID); err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	if err := h.drafts.DeleteDraft(c.Request.Context(), id); err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "draft deleted"})
}

// RecipeCreationLimit reports how many LLM-backed creations the caller has left.
func (h *LLMHandler) RecipeCreationLimit(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	remaining, resetTime, err := h.limiter.GetRemainingRequests(c.Request.Context(), userID.String())
	if err != nil {
		h.log.Warn("failed to read rate limit", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "rate limit status unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"limit":     h.limiter.Limit(),
		"remaining": remaining,
		"reset_at":  resetTime.Unix(),
		"enabled":   h.limiter.Enabled(),
	})
}
