package service

import (
	"context"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"

	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/pipeline"
	"github.com/pageza/recipeforge/backend/internal/types"
)

// TextGenerator is the LLM boundary: one system and one user message in, raw
// reply text out.
type TextGenerator interface {
	Complete(ctx context.Context, systemPrompt, userMessage string) (string, error)
}

// EmbeddingServiceInterface turns recipe text into a search vector
type EmbeddingServiceInterface interface {
	GenerateEmbedding(text string) (pgvector.Vector, error)
}

// IAuthService defines the interface for authentication operations
type IAuthService interface {
	Register(ctx context.Context, name, email, password string) (*models.User, string, error)
	Login(ctx context.Context, email, password string) (*models.User, string, error)
	ValidateToken(token string) (*types.TokenClaims, error)
	GenerateToken(claims *types.TokenClaims) (string, error)
}

// IRecipeService defines the interface for recipe operations
type IRecipeService interface {
	ProduceRecipe(ctx context.Context, in ProduceInput, authorID uuid.UUID) (*models.Recipe, error)
	PreviewRecipe(ctx context.Context, query string, authorID uuid.UUID) (*pipeline.Document, error)
	CreateFromDocument(ctx context.Context, tree map[string]any, authorID uuid.UUID) (*models.Recipe, error)
	CreateRecipe(ctx context.Context, doc *pipeline.Document, authorID uuid.UUID) (*models.Recipe, error)
	GetRecipe(ctx context.Context, slug string) (*models.Recipe, error)
	ListRecipes(ctx context.Context, filter ListFilter) ([]*models.Recipe, error)
	UpdateRecipe(ctx context.Context, slug string, authorID uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error)
	DeleteRecipe(ctx context.Context, slug string, authorID uuid.UUID) error
	LikeRecipe(ctx context.Context, slug string, userID uuid.UUID) (*models.Recipe, error)
	ResolveSlug(ctx context.Context, candidate string) (string, error)
}

// DraftStore keeps ask-ai previews until the user saves or discards them.
type DraftStore interface {
	SaveDraft(ctx context.Context, draft *RecipeDraft) error
	GetDraft(ctx context.Context, id string) (*RecipeDraft, error)
	DeleteDraft(ctx context.Context, id string) error
}

// FailureArchiver stores the raw output of pipeline runs that never produced a
// recipe, for offline inspection.
type FailureArchiver interface {
	Archive(ctx context.Context, failure *PipelineFailure) (string, error)
}
