package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	pgvector "github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// JSONBStringArray is a string slice stored as a JSONB array.
type JSONBStringArray []string

// Value implements the driver.Valuer interface
func (a JSONBStringArray) Value() (driver.Value, error) {
	if len(a) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (a *JSONBStringArray) Scan(value interface{}) error {
	*a = JSONBStringArray{}
	return scanJSON(value, a)
}

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// IngredientList is stored as a JSONB array of objects, preserving order.
type IngredientList []Ingredient

// Value implements the driver.Valuer interface
func (l IngredientList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements the sql.Scanner interface
func (l *IngredientList) Scan(value interface{}) error {
	*l = IngredientList{}
	return scanJSON(value, l)
}

func scanJSON(value interface{}, dst interface{}) error {
	var bytes []byte
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB source type %T", value)
	}
	if len(bytes) == 0 {
		return nil
	}
	return json.Unmarshal(bytes, dst)
}

// EmbeddingDimensions is the width of Recipe.Embedding.
const EmbeddingDimensions = 64

// Recipe is a persisted, validated recipe. Slug is unique; the unique index is
// the only real guarantee of that, see service.RecipeService.
type Recipe struct {
	ID               uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
	Title            string           `gorm:"size:255;not null" json:"title"`
	Slug             string           `gorm:"size:255;not null;uniqueIndex:idx_recipes_slug" json:"slug"`
	Description      string           `gorm:"type:text;not null" json:"description"`
	Servings         int              `gorm:"not null;default:0" json:"servings"`
	PrepTimeMinutes  int              `gorm:"not null;default:0" json:"prep_time_minutes"`
	CookTimeMinutes  int              `gorm:"not null;default:0" json:"cook_time_minutes"`
	TotalTimeMinutes int              `gorm:"not null;default:0" json:"total_time_minutes"`
	Ingredients      IngredientList   `gorm:"type:jsonb;not null;default:'[]'" json:"ingredients"`
	Instructions     JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"instructions"`
	Tags             JSONBStringArray `gorm:"type:jsonb;not null;default:'[]'" json:"tags"`
	AuthorID         uuid.UUID        `gorm:"type:uuid;not null;index" json:"author"`
	Embedding        pgvector.Vector  `gorm:"type:vector(64)" json:"-"`

	// LikedBy is filled from recipe_likes on read.
	LikedBy []uuid.UUID `gorm:"-" json:"liked_by"`
}

// BeforeCreate assigns an ID so the same code works on SQLite, which has no
// gen_random_uuid().
func (r *Recipe) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RecipeLike records one user liking one recipe. (RecipeID, UserID) is unique.
type RecipeLike struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	RecipeID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_likes_recipe_user" json:"recipe_id"`
	UserID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_recipe_likes_recipe_user" json:"user_id"`
}

func (RecipeLike) TableName() string {
	return "recipe_likes"
}

func (l *RecipeLike) BeforeCreate(tx *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
