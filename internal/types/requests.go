package types

// RegisterRequest represents the request body for creating an account
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest represents the request body for logging in
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// CreateRecipeRequest carries free recipe text to be structured by the LLM.
type CreateRecipeRequest struct {
	RawRecipeText string `json:"rawRecipeText" binding:"required"`
}

// AskAIRequest asks the LLM to invent a recipe.
type AskAIRequest struct {
	Query string `json:"query" binding:"required"`
}

// IngredientInput is one ingredient in an update request
type IngredientInput struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
	Notes    string  `json:"notes"`
}

// UpdateRecipeRequest represents a partial recipe update. Nil fields are left
// untouched. The slug cannot be changed.
type UpdateRecipeRequest struct {
	Title            *string            `json:"title"`
	Description      *string            `json:"description"`
	Servings         *int               `json:"servings"`
	PrepTimeMinutes  *int               `json:"prep_time_minutes"`
	CookTimeMinutes  *int               `json:"cook_time_minutes"`
	TotalTimeMinutes *int               `json:"total_time_minutes"`
	Ingredients      *[]IngredientInput `json:"ingredients"`
	Instructions     *[]string          `json:"instructions"`
	Tags             *[]string          `json:"tags"`
}

// ListRecipesQuery holds the optional filters of GET /recipes
type ListRecipesQuery struct {
	Query  string `form:"q"`
	Tag    string `form:"tag"`
	Author string `form:"author"`
	Limit  int    `form:"limit"`
}
