package testhelpers

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/types"
)

// TokenGenerator signs session tokens; satisfied by *service.AuthService.
type TokenGenerator interface {
	GenerateToken(claims *types.TokenClaims) (string, error)
}

// CreateTestUser inserts a user with password "password123".
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := &models.User{
		Name:         "Test User",
		Email:        "test-" + uuid.NewString()[:8] + "@example.com",
		PasswordHash: string(hash),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestUserAndToken inserts a user and signs a token for it.
func CreateTestUserAndToken(t *testing.T, db *gorm.DB, tokens TokenGenerator) (*models.User, string) {
	t.Helper()
	user := CreateTestUser(t, db)
	token, err := tokens.GenerateToken(types.NewTokenClaims(user.ID, user.Name, time.Hour))
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return user, token
}

// RecipeDocument returns a valid recipe document tree as a client would send it.
func RecipeDocument(title string) map[string]any {
	return map[string]any{
		"title":              title,
		"description":        "A test recipe",
		"servings":           float64(2),
		"prep_time_minutes":  float64(10),
		"cook_time_minutes":  float64(20),
		"total_time_minutes": float64(30),
		"ingredients": []any{
			map[string]any{"name": "flour", "quantity": float64(2), "unit": "cups", "notes": ""},
			map[string]any{"name": "salt", "quantity": 0.5, "unit": "tsp"},
		},
		"instructions": []any{"Mix.", "Bake."},
		"tags":         []any{"test"},
	}
}
