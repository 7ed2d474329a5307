package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/recipeforge/backend/internal/api"
	"github.com/pageza/recipeforge/backend/internal/database"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/router"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/testhelpers"
)

type memoryDrafts struct {
	mu     sync.Mutex
	drafts map[string]service.RecipeDraft
}

func (m *memoryDrafts) SaveDraft(ctx context.Context, draft *service.RecipeDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if draft.ID == "" {
		draft.ID = time.Now().Format("150405.000000000")
	}
	m.drafts[draft.ID] = *draft
	return nil
}

func (m *memoryDrafts) GetDraft(ctx context.Context, id string) (*service.RecipeDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, service.ErrDraftNotFound
	}
	return &d, nil
}

func (m *memoryDrafts) DeleteDraft(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, id)
	return nil
}

type testEnv struct {
	router *gin.Engine
	db     *gorm.DB
	llm    *testhelpers.MockTextGenerator
	auth   *service.AuthService
	drafts *memoryDrafts
	user   *models.User
	token  string
}

func setupAPI(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db := testhelpers.SetupSQLite(t)
	log := logger.Nop()
	authSvc := service.NewAuthService(db, "test-secret", time.Hour)
	llm := &testhelpers.MockTextGenerator{}
	recipes := service.NewRecipeService(db, service.NewRecipeProducer(llm, log), service.NewEmbeddingService(), log)
	drafts := &memoryDrafts{drafts: map[string]service.RecipeDraft{}}
	limiter := middleware.NewRecipeCreationRateLimiter(nil, 20)

	r := router.SetupRouter(router.Handlers{
		Auth:    api.NewAuthHandler(authSvc, time.Hour, false, log),
		Recipes: api.NewRecipeHandler(recipes, drafts, log),
		LLM:     api.NewLLMHandler(drafts, limiter, log),
		Health: api.NewHealthHandler(map[string]api.Pinger{
			"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
		}),
	}, router.Options{
		AllowedOrigins:  []string{"http://localhost:5173"},
		Validator:       authSvc,
		CreationLimiter: limiter,
		Log:             log,
	})

	user, token := testhelpers.CreateTestUserAndToken(t, db, authSvc)
	return &testEnv{router: r, db: db, llm: llm, auth: authSvc, drafts: drafts, user: user, token: token}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)

	out := map[string]any{}
	if rr.Body.Len() > 0 {
		_ = json.Unmarshal(rr.Body.Bytes(), &out)
	}
	return rr, out
}

func recipeField(t *testing.T, resp map[string]any, key string) any {
	t.Helper()
	recipe, ok := resp["recipe"].(map[string]any)
	require.True(t, ok, "response has no recipe: %v", resp)
	return recipe[key]
}

const fencedReply = "Sure! Here is your recipe:\n```json\n" + `{
  "title": "Lemon Rice",
  "description": "Bright and quick",
  "servings": 2,
  "prep_time_minutes": 5,
  "cook_time_minutes": 15,
  "total_time_minutes": 20,
  "ingredients": [
    {"name": "rice", "quantity": 1, "unit": "cup", "notes": "rinsed",},
    {"name": "lemon", "quantity": 1/2, "unit": "", "notes": ""},
  ],
  "instructions": ["Cook rice", "Add lemon",],
  "tags": ["quick",],
}` + "\n```\nEnjoy!"

func TestHealth(t *testing.T) {
	env := setupAPI(t)
	rr, body := env.do(t, http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestAuthFlow(t *testing.T) {
	env := setupAPI(t)

	rr, body := env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.NotEmpty(t, body["token"])
	assert.Contains(t, rr.Header().Get("Set-Cookie"), middleware.SessionCookie+"=")
	assert.NotContains(t, rr.Body.String(), "password_hash")

	rr, body = env.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name": "Ada", "email": "ada@example.com", "password": "password123",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "user already exists", body["error"])

	rr, body = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "wrong-password",
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "invalid credentials", body["error"])

	rr, body = env.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email": "ada@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusOK, rr.Code)
	token, _ := body["token"].(string)

	claims, err := env.auth.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "Ada", claims.Name)

	rr, _ = env.do(t, http.MethodPost, "/api/v1/auth/logout", "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Header().Get("Set-Cookie"), "Max-Age=0")
}

func TestRecipesRequireAuth(t *testing.T) {
	env := setupAPI(t)
	rr, _ := env.do(t, http.MethodGet, "/api/v1/recipes", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateRecipeFromText(t *testing.T) {
	env := setupAPI(t)
	env.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(fencedReply, nil).Once()

	rr, body := env.do(t, http.MethodPost, "/api/v1/recipes", env.token, map[string]string{
		"rawRecipeText": "lemon rice: 1 cup rice, half a lemon",
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "lemon-rice", recipeField(t, body, "slug"))
	assert.Equal(t, env.user.ID.String(), recipeField(t, body, "author"))

	ingredients := recipeField(t, body, "ingredients").([]any)
	require.Len(t, ingredients, 2)
	assert.Equal(t, 0.5, ingredients[1].(map[string]any)["quantity"])
	assert.Equal(t, []any{"quick"}, recipeField(t, body, "tags"))
	assert.Equal(t, []any{}, recipeField(t, body, "liked_by"))
}

func TestCreateRecipeFromTextFailures(t *testing.T) {
	t.Run("every attempt unusable", func(t *testing.T) {
		env := setupAPI(t)
		env.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("I cannot do that.", nil)

		rr, body := env.do(t, http.MethodPost, "/api/v1/recipes", env.token, map[string]string{"rawRecipeText": "x"})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "no_json_found", body["kind"])
		assert.Equal(t, float64(3), body["attempts"])
		assert.Equal(t, "I cannot do that.", body["raw"])
		env.llm.AssertNumberOfCalls(t, "Complete", 3)
	})

	t.Run("model unreachable", func(t *testing.T) {
		env := setupAPI(t)
		env.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("", errors.New("dial tcp: refused"))

		rr, body := env.do(t, http.MethodPost, "/api/v1/recipes", env.token, map[string]string{"rawRecipeText": "x"})
		assert.Equal(t, http.StatusBadGateway, rr.Code)
		assert.Equal(t, "llm_error", body["kind"])
	})

	t.Run("missing text", func(t *testing.T) {
		env := setupAPI(t)
		rr, _ := env.do(t, http.MethodPost, "/api/v1/recipes", env.token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		env.llm.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCreateFromJSON(t *testing.T) {
	env := setupAPI(t)

	rr, body := env.do(t, http.MethodPost, "/api/v1/recipes/from-json", env.token, testhelpers.RecipeDocument("Green Salad"))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	assert.Equal(t, "green-salad", recipeField(t, body, "slug"))

	rr, body = env.do(t, http.MethodPost, "/api/v1/recipes/from-json", env.token, testhelpers.RecipeDocument("Green Salad"))
	require.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "green-salad-1", recipeField(t, body, "slug"))

	doc := testhelpers.RecipeDocument("Broken")
	doc["ingredients"] = []any{
		map[string]any{"name": "a", "quantity": 1},
		map[string]any{"quantity": 2},
	}
	rr, body = env.do(t, http.MethodPost, "/api/v1/recipes/from-json", env.token, doc)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "schema_violation", body["kind"])
	assert.Equal(t, "ingredients[1].name", body["path"])
	assert.NotContains(t, body, "raw")

	rr, _ = env.do(t, http.MethodPost, "/api/v1/recipes/from-json", env.token, "[1, 2]")
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAskAIAndDrafts(t *testing.T) {
	env := setupAPI(t)
	env.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(fencedReply, nil).Once()

	rr, body := env.do(t, http.MethodPost, "/api/v1/recipes/ask-ai", env.token, map[string]string{"query": "something citrusy"})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.Equal(t, "lemon-rice", recipeField(t, body, "slug"))
	draftID, _ := body["draft_id"].(string)
	require.NotEmpty(t, draftID)

	var count int64
	require.NoError(t, env.db.Model(&models.Recipe{}).Count(&count).Error)
	assert.Zero(t, count)

	rr, _ = env.do(t, http.MethodGet, "/api/v1/llm/drafts/"+draftID, env.token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	_, otherToken := testhelpers.CreateTestUserAndToken(t, env.db, env.auth)
	rr, _ = env.do(t, http.MethodGet, "/api/v1/llm/drafts/"+draftID, otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	saved := map[string]any{}
	draftJSON, _ := json.Marshal(body["recipe"])
	require.NoError(t, json.Unmarshal(draftJSON, &saved))
	rr, _ = env.do(t, http.MethodPost, "/api/v1/recipes/from-json?draft_id="+draftID, env.token, saved)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, _ = env.do(t, http.MethodGet, "/api/v1/llm/drafts/"+draftID, env.token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAskAISingleAttempt(t *testing.T) {
	env := setupAPI(t)
	env.llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(`{"title": "Only a title"}`, nil)

	rr, body := env.do(t, http.MethodPost, "/api/v1/recipes/ask-ai", env.token, map[string]string{"query": "x"})
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Equal(t, "description", body["path"])
	assert.Equal(t, float64(1), body["attempts"])
	env.llm.AssertNumberOfCalls(t, "Complete", 1)
}

func TestRecipeLifecycle(t *testing.T) {
	env := setupAPI(t)
	_, otherToken := testhelpers.CreateTestUserAndToken(t, env.db, env.auth)

	doc := testhelpers.RecipeDocument("Tomato Soup")
	doc["tags"] = []any{"soup"}
	rr, _ := env.do(t, http.MethodPost, "/api/v1/recipes/from-json", env.token, doc)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr, body := env.do(t, http.MethodGet, "/api/v1/recipes?tag=soup", otherToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, body["recipes"], 1)

	rr, body = env.do(t, http.MethodGet, "/api/v1/recipes?author=not-a-uuid", otherToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr, _ = env.do(t, http.MethodGet, "/api/v1/recipes/missing", env.token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, body = env.do(t, http.MethodPost, "/api/v1/recipes/tomato-soup/like", otherToken, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, recipeField(t, body, "liked_by"), 1)

	rr, body = env.do(t, http.MethodPost, "/api/v1/recipes/tomato-soup/like", otherToken, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "already liked", body["error"])

	rr, _ = env.do(t, http.MethodPut, "/api/v1/recipes/tomato-soup", otherToken, map[string]any{"title": "Mine now"})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, body = env.do(t, http.MethodPut, "/api/v1/recipes/tomato-soup", env.token, map[string]any{"title": "Roasted Tomato Soup", "servings": -2})
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "servings", body["path"])

	rr, body = env.do(t, http.MethodPut, "/api/v1/recipes/tomato-soup", env.token, map[string]any{"title": "Roasted Tomato Soup"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Roasted Tomato Soup", recipeField(t, body, "title"))
	assert.Equal(t, "tomato-soup", recipeField(t, body, "slug"))

	rr, _ = env.do(t, http.MethodDelete, "/api/v1/recipes/tomato-soup", otherToken, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr, _ = env.do(t, http.MethodDelete, "/api/v1/recipes/tomato-soup", env.token, nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr, _ = env.do(t, http.MethodGet, "/api/v1/recipes/tomato-soup", env.token, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRecipeCreationLimitStatus(t *testing.T) {
	env := setupAPI(t)
	rr, body := env.do(t, http.MethodGet, "/api/v1/rate-limits/recipe-creation", env.token, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, float64(20), body["limit"])
	assert.Equal(t, float64(20), body["remaining"])
	assert.Equal(t, false, body["enabled"])
}
