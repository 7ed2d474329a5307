package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/pipeline"
	"github.com/pageza/recipeforge/backend/internal/slug"
	"github.com/pageza/recipeforge/backend/internal/types"
)

var (
	ErrRecipeNotFound  = errors.New("recipe not found")
	ErrAlreadyLiked    = errors.New("already liked")
	ErrLLMNotAvailable = errors.New("recipe generation is not configured")
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ListFilter narrows ListRecipes. Zero values mean no filter.
type ListFilter struct {
	Query    string
	Tag      string
	AuthorID *uuid.UUID
	Limit    int
}

// RecipeService handles recipe operations
type RecipeService struct {
	db               *gorm.DB
	producer         *RecipeProducer
	embeddingService EmbeddingServiceInterface
	resolver         *slug.Resolver
	log              *logger.Logger
}

// NewRecipeService creates a new RecipeService instance. producer may be nil
// when no LLM is configured; the document paths still work.
func NewRecipeService(db *gorm.DB, producer *RecipeProducer, embeddingService EmbeddingServiceInterface, log *logger.Logger) *RecipeService {
	s := &RecipeService{
		db:               db,
		producer:         producer,
		embeddingService: embeddingService,
		log:              log,
	}
	s.resolver = slug.NewResolver(s)
	return s
}

// SlugExists implements slug.Checker against the recipes table.
func (s *RecipeService) SlugExists(ctx context.Context, candidate string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("slug = ?", candidate).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ResolveSlug returns the first free slug for candidate.
func (s *RecipeService) ResolveSlug(ctx context.Context, candidate string) (string, error) {
	return s.resolver.Resolve(ctx, candidate)
}

// ProduceRecipe asks the model for a recipe, recovers it through the retried
// pipeline and persists it under a unique slug.
func (s *RecipeService) ProduceRecipe(ctx context.Context, in ProduceInput, authorID uuid.UUID) (*models.Recipe, error) {
	if s.producer == nil {
		return nil, ErrLLMNotAvailable
	}
	doc, err := s.producer.Produce(ctx, in, authorID.String())
	if err != nil {
		return nil, err
	}
	return s.CreateRecipe(ctx, doc, authorID)
}

// PreviewRecipe runs one ask-ai attempt and returns the unsaved document with
// the slug it would get right now.
func (s *RecipeService) PreviewRecipe(ctx context.Context, query string, authorID uuid.UUID) (*pipeline.Document, error) {
	if s.producer == nil {
		return nil, ErrLLMNotAvailable
	}
	doc, err := s.producer.Once(ctx, ProduceInput{Prompt: query}, authorID.String())
	if err != nil {
		return nil, err
	}
	if doc.Slug, err = s.ResolveSlug(ctx, slugCandidate(doc)); err != nil {
		return nil, err
	}
	return doc, nil
}

// CreateFromDocument validates a client-supplied tree and persists it.
func (s *RecipeService) CreateFromDocument(ctx context.Context, tree map[string]any, authorID uuid.UUID) (*models.Recipe, error) {
	doc, err := pipeline.Validate(tree, authorID.String())
	if err != nil {
		return nil, err
	}
	return s.CreateRecipe(ctx, doc, authorID)
}

// CreateRecipe persists doc. The slug is resolved first; if the insert still
// hits the unique index the slug is resolved once more and the insert retried.
// A second collision is reported as pipeline.ErrSlugConflict.
func (s *RecipeService) CreateRecipe(ctx context.Context, doc *pipeline.Document, authorID uuid.UUID) (*models.Recipe, error) {
	recipe := recipeFromDocument(doc, authorID)
	vec, err := s.embeddingService.GenerateEmbedding(recipeEmbeddingText(recipe))
	if err != nil {
		return nil, fmt.Errorf("failed to embed recipe: %w", err)
	}
	recipe.Embedding = vec

	candidate := slugCandidate(doc)
	for attempt := 1; attempt <= 2; attempt++ {
		resolved, err := s.resolver.Resolve(ctx, candidate)
		if err != nil {
			return nil, err
		}
		recipe.Slug = resolved

		err = s.db.WithContext(ctx).Create(recipe).Error
		if err == nil {
			recipe.LikedBy = []uuid.UUID{}
			return recipe, nil
		}
		if !isDuplicateKey(err) {
			return nil, fmt.Errorf("failed to create recipe: %w", err)
		}
		s.log.Warn("slug taken between check and insert", "slug", resolved, "attempt", attempt)
	}
	return nil, &pipeline.Error{
		Kind: pipeline.ErrSlugConflict,
		Path: "slug",
		Err:  fmt.Errorf("%q is taken", recipe.Slug),
	}
}

// GetRecipe retrieves a recipe by slug
func (s *RecipeService) GetRecipe(ctx context.Context, slugValue string) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ?", slugValue).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	if err := s.loadLikes(ctx, []*models.Recipe{&recipe}); err != nil {
		return nil, err
	}
	return &recipe, nil
}

// ListRecipes lists recipes, newest first. A query orders by vector distance on
// PostgreSQL and falls back to keyword matching elsewhere.
func (s *RecipeService) ListRecipes(ctx context.Context, filter ListFilter) ([]*models.Recipe, error) {
	postgres := s.db.Dialector.Name() == "postgres"
	query := s.db.WithContext(ctx).Model(&models.Recipe{})

	if filter.AuthorID != nil {
		query = query.Where("author_id = ?", *filter.AuthorID)
	}

	if filter.Tag != "" {
		if postgres {
			tagJSON, err := json.Marshal([]string{filter.Tag})
			if err != nil {
				return nil, err
			}
			query = query.Where("tags @> ?::jsonb", string(tagJSON))
		} else {
			query = query.Where("EXISTS (SELECT 1 FROM json_each(recipes.tags) WHERE json_each.value = ?)", filter.Tag)
		}
	}

	switch {
	case filter.Query != "" && postgres:
		vec, err := s.embeddingService.GenerateEmbedding(filter.Query)
		if err != nil {
			return nil, err
		}
		query = query.Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "embedding <-> ?", Vars: []interface{}{vec}},
		})
	case filter.Query != "":
		like := "%" + strings.ToLower(filter.Query) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like).
			Order("created_at DESC")
	default:
		query = query.Order("created_at DESC")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var recipes []*models.Recipe
	if err := query.Limit(limit).Find(&recipes).Error; err != nil {
		return nil, err
	}
	if err := s.loadLikes(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// UpdateRecipe applies a partial update to a recipe owned by authorID. The
// merged result is validated like any other document. Slug and author never
// change.
func (s *RecipeService) UpdateRecipe(ctx context.Context, slugValue string, authorID uuid.UUID, req *types.UpdateRecipeRequest) (*models.Recipe, error) {
	var recipe models.Recipe
	if err := s.db.WithContext(ctx).First(&recipe, "slug = ? AND author_id = ?", slugValue, authorID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	tree, err := mergeUpdate(&recipe, req)
	if err != nil {
		return nil, err
	}
	doc, err := pipeline.Validate(tree, authorID.String())
	if err != nil {
		return nil, err
	}

	updated := recipeFromDocument(doc, authorID)
	updated.ID = recipe.ID
	updated.Slug = recipe.Slug
	updated.CreatedAt = recipe.CreatedAt
	if updated.Embedding, err = s.embeddingService.GenerateEmbedding(recipeEmbeddingText(updated)); err != nil {
		return nil, fmt.Errorf("failed to embed recipe: %w", err)
	}

	if err := s.db.WithContext(ctx).Save(updated).Error; err != nil {
		return nil, fmt.Errorf("failed to update recipe: %w", err)
	}
	if err := s.loadLikes(ctx, []*models.Recipe{updated}); err != nil {
		return nil, err
	}
	return updated, nil
}

// DeleteRecipe removes a recipe owned by authorID together with its likes.
func (s *RecipeService) DeleteRecipe(ctx context.Context, slugValue string, authorID uuid.UUID) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var recipe models.Recipe
		if err := tx.First(&recipe, "slug = ? AND author_id = ?", slugValue, authorID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRecipeNotFound
			}
			return err
		}
		if err := tx.Where("recipe_id = ?", recipe.ID).Delete(&models.RecipeLike{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Recipe{}, "id = ?", recipe.ID).Error
	})
}

// LikeRecipe adds userID to the recipe's like-set.
func (s *RecipeService) LikeRecipe(ctx context.Context, slugValue string, userID uuid.UUID) (*models.Recipe, error) {
	recipe, err := s.GetRecipe(ctx, slugValue)
	if err != nil {
		return nil, err
	}

	like := &models.RecipeLike{RecipeID: recipe.ID, UserID: userID}
	if err := s.db.WithContext(ctx).Create(like).Error; err != nil {
		if isDuplicateKey(err) {
			return nil, ErrAlreadyLiked
		}
		return nil, err
	}
	recipe.LikedBy = append(recipe.LikedBy, userID)
	return recipe, nil
}

func (s *RecipeService) loadLikes(ctx context.Context, recipes []*models.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(recipes))
	byID := make(map[uuid.UUID]*models.Recipe, len(recipes))
	for i, r := range recipes {
		ids[i] = r.ID
		byID[r.ID] = r
		r.LikedBy = []uuid.UUID{}
	}

	var likes []models.RecipeLike
	if err := s.db.WithContext(ctx).Where("recipe_id IN ?", ids).Order("created_at ASC").Find(&likes).Error; err != nil {
		return fmt.Errorf("failed to load likes: %w", err)
	}
	for _, l := range likes {
		if r, ok := byID[l.RecipeID]; ok {
			r.LikedBy = append(r.LikedBy, l.UserID)
		}
	}
	return nil
}

func slugCandidate(doc *pipeline.Document) string {
	if doc.Slug != "" {
		return doc.Slug
	}
	return doc.Title
}

func recipeFromDocument(doc *pipeline.Document, authorID uuid.UUID) *models.Recipe {
	ingredients := make(models.IngredientList, len(doc.Ingredients))
	for i, ing := range doc.Ingredients {
		ingredients[i] = models.Ingredient{
			Name:     ing.Name,
			Quantity: ing.Quantity,
			Unit:     ing.Unit,
			Notes:    ing.Notes,
		}
	}
	return &models.Recipe{
		Title:            doc.Title,
		Description:      doc.Description,
		Servings:         doc.Servings,
		PrepTimeMinutes:  doc.PrepTimeMinutes,
		CookTimeMinutes:  doc.CookTimeMinutes,
		TotalTimeMinutes: doc.TotalTimeMinutes,
		Ingredients:      ingredients,
		Instructions:     models.JSONBStringArray(doc.Instructions),
		Tags:             models.JSONBStringArray(doc.Tags),
		AuthorID:         authorID,
	}
}

// mergeUpdate renders recipe as a document tree and overlays the non-nil
// fields of req.
func mergeUpdate(recipe *models.Recipe, req *types.UpdateRecipeRequest) (map[string]any, error) {
	current, err := json.Marshal(recipe)
	if err != nil {
		return nil, err
	}
	tree := map[string]any{}
	if err := json.Unmarshal(current, &tree); err != nil {
		return nil, err
	}
	for _, key := range []string{"id", "created_at", "updated_at", "liked_by", "author", "slug"} {
		delete(tree, key)
	}

	patch, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	changes := map[string]any{}
	if err := json.Unmarshal(patch, &changes); err != nil {
		return nil, err
	}
	for key, value := range changes {
		if value != nil {
			tree[key] = value
		}
	}
	return tree, nil
}

// isDuplicateKey reports a unique index violation on either driver.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
