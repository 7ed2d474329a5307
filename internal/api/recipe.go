package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/types"
)

type RecipeHandler struct {
	recipes service.IRecipeService
	drafts  service.DraftStore
	log     *logger.Logger
}

// NewRecipeHandler creates a RecipeHandler. drafts may be nil, in which case
// ask-ai previews are returned but not stored.
func NewRecipeHandler(recipes service.IRecipeService, drafts service.DraftStore, log *logger.Logger) *RecipeHandler {
	return &RecipeHandler{
		recipes: recipes,
		drafts:  drafts,
		log:     log,
	}
}

// CreateRecipe structures free recipe text through the LLM and saves it.
func (h *RecipeHandler) CreateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req types.CreateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if strings.TrimSpace(req.RawRecipeText) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rawRecipeText must not be empty"})
		return
	}

	recipe, err := h.recipes.ProduceRecipe(c.Request.Context(), service.ProduceInput{Text: req.RawRecipeText}, userID)
	if err != nil {
		writeError(c, h.log, err, fromModel)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": recipe})
}

// AskAI returns an unsaved recipe invented for the query, with the slug it
// would be saved under.
func (h *RecipeHandler) AskAI(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req types.AskAIRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	doc, err := h.recipes.PreviewRecipe(c.Request.Context(), req.Query, userID)
	if err != nil {
		writeError(c, h.log, err, fromModel)
		return
	}

	resp := gin.H{"recipe": doc}
	if h.drafts != nil {
		draft := &service.RecipeDraft{UserID: userID.String(), Query: req.Query, Recipe: doc}
		if err := h.drafts.SaveDraft(c.Request.Context(), draft); err != nil {
			h.log.Warn("failed to store draft", "error", err)
		} else {
			resp["draft_id"] = draft.ID
		}
	}
	c.JSON(http.StatusOK, resp)
}

// CreateFromJSON saves a client-edited recipe document.
func (h *RecipeHandler) CreateFromJSON(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var tree map[string]any
	if err := c.ShouldBindJSON(&tree); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}
	if tree == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must be a JSON object"})
		return
	}

	recipe, err := h.recipes.CreateFromDocument(c.Request.Context(), tree, userID)
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}

	if draftID := c.Query("draft_id"); draftID != "" && h.drafts != nil {
		if _, err := service.OwnedDraft(c.Request.Context(), h.drafts, draftID, userID); err == nil {
			if err := h.drafts.DeleteDraft(c.Request.Context(), draftID); err != nil {
				h.log.Warn("failed to delete saved draft", "draft_id", draftID, "error", err)
			}
		}
	}
	c.JSON(http.StatusCreated, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) ListRecipes(c *gin.Context) {
	var q types.ListRecipesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	filter := service.ListFilter{Query: strings.TrimSpace(q.Query), Tag: q.Tag, Limit: q.Limit}
	if q.Author != "" {
		authorID, err := uuid.Parse(q.Author)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid author id"})
			return
		}
		filter.AuthorID = &authorID
	}

	recipes, err := h.recipes.ListRecipes(c.Request.Context(), filter)
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipes": recipes})
}

func (h *RecipeHandler) GetRecipe(c *gin.Context) {
	recipe, err := h.recipes.GetRecipe(c.Request.Context(), c.Param("slug"))
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) UpdateRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	var req types.UpdateRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	recipe, err := h.recipes.UpdateRecipe(c.Request.Context(), c.Param("slug"), userID, &req)
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}

func (h *RecipeHandler) DeleteRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	slugValue := c.Param("slug")
	if err := h.recipes.DeleteRecipe(c.Request.Context(), slugValue, userID); err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Recipe deleted successfully",
		"slug":    slugValue,
	})
}

func (h *RecipeHandler) LikeRecipe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return
	}

	recipe, err := h.recipes.LikeRecipe(c.Request.Context(), c.Param("slug"), userID)
	if err != nil {
		writeError(c, h.log, err, fromClient)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recipe": recipe})
}
