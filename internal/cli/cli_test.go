package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipeforge/backend/config"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/testhelpers"
)

const modelReply = "Here you go:\n```json\n" + `{
  "title": "Pancakes",
  "description": "Fluffy",
  "servings": 4,
  "prep_time_minutes": 5,
  "cook_time_minutes": 10,
  "total_time_minutes": 15,
  "ingredients": [{"name": "flour", "quantity": "1 1/2", "unit": "cups", "notes": ""},],
  "instructions": ["Mix", "Fry"],
  "tags": ["breakfast"],
}` + "\n```"

func testApp(llm service.TextGenerator) *app {
	return &app{
		loadConfig: func(string) (*config.Config, error) {
			return &config.Config{LogMode: "test", PipelineMaxAttempts: 2, JWTTTL: time.Hour}, nil
		},
		newLLM: func(*config.Config) (service.TextGenerator, error) {
			if llm == nil {
				return nil, errors.New("LLM_API_KEY must be set")
			}
			return llm, nil
		},
	}
}

func run(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCommand(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestFormatFromStdin(t *testing.T) {
	out, err := run(t, testApp(nil), modelReply, "format", "--author", "u-1")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Pancakes"`)
	assert.Contains(t, out, `"quantity": 1.5`)
	assert.Contains(t, out, `"author": "u-1"`)
}

func TestFormatFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reply.txt")
	require.NoError(t, os.WriteFile(path, []byte(modelReply), 0o600))

	out, err := run(t, testApp(nil), "", "format", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"tags": [`)
}

func TestFormatReportsKind(t *testing.T) {
	_, err := run(t, testApp(nil), "I'd rather not.", "format")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_json_found")

	degenerate := strings.Replace(modelReply, `"1 1/2"`, `1/0`, 1)
	_, err = run(t, testApp(nil), degenerate, "format")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_numeric_literal")

	out, err := run(t, testApp(nil), degenerate, "format", "--zero-degenerate")
	require.NoError(t, err)
	assert.Contains(t, out, `"quantity": 0`)
}

func TestSlug(t *testing.T) {
	out, err := run(t, testApp(nil), "", "slug", "Crème", "Brûlée!")
	require.NoError(t, err)
	assert.Equal(t, "creme-brulee\n", out)
}

func TestGenerate(t *testing.T) {
	llm := &testhelpers.MockTextGenerator{}
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("no recipe here", nil).Once()
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(modelReply, nil).Once()

	out, err := run(t, testApp(llm), "", "generate", "--prompt", "something for breakfast")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "Pancakes"`)
	llm.AssertNumberOfCalls(t, "Complete", 2)
}

func TestGenerateFlags(t *testing.T) {
	_, err := run(t, testApp(nil), "", "generate")
	require.Error(t, err)

	_, err = run(t, testApp(nil), "", "generate", "--text", "a", "--prompt", "b")
	require.Error(t, err)

	_, err = run(t, testApp(nil), "", "generate", "--text", "a")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LLM_API_KEY")
}

func TestGenerateExhausted(t *testing.T) {
	llm := &testhelpers.MockTextGenerator{}
	llm.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return("still nothing", nil)

	_, err := run(t, testApp(llm), "", "generate", "--text", "pancakes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_json_found (attempt 2)")
}

func TestRunSeed(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	log := logger.Nop()
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	recipes := service.NewRecipeService(db, nil, service.NewEmbeddingService(), log)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.json"), []byte(`{
		"title": "Flatbread", "description": "Simple", "servings": 2,
		"prep_time_minutes": 5, "cook_time_minutes": 5, "total_time_minutes": 10,
		"ingredients": [{"name": "flour", "quantity": 1}], "instructions": ["Bake"]
	}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.json"), []byte(`{"title": "Flatbread"}`), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "c.json"), []byte(`[1, 2]`), 0o600))

	opts := seedOptions{dir: dir, email: "Seed@Example.com", name: "Seeder", password: "password123"}
	var out bytes.Buffer
	err := runSeed(context.Background(), db, auth, recipes, opts, &out)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 documents")
	assert.Contains(t, out.String(), "created flatbread from a.json")
	assert.Contains(t, out.String(), "skipped b.json: schema_violation")
	assert.Contains(t, out.String(), "skipped c.json")

	var owner models.User
	require.NoError(t, db.Where("email = ?", "seed@example.com").First(&owner).Error)

	// A second run reuses the owner and suffixes the slug.
	require.NoError(t, os.Remove(filepath.Join(dir, "b.json")))
	require.NoError(t, os.Remove(filepath.Join(dir, "c.json")))
	out.Reset()
	require.NoError(t, runSeed(context.Background(), db, auth, recipes, opts, &out))
	assert.Contains(t, out.String(), "created flatbread-1 from a.json")

	var users int64
	require.NoError(t, db.Model(&models.User{}).Count(&users).Error)
	assert.Equal(t, int64(1), users)
}

func TestRunSeedEmptyDir(t *testing.T) {
	db := testhelpers.SetupSQLite(t)
	auth := service.NewAuthService(db, "test-secret", time.Hour)
	recipes := service.NewRecipeService(db, nil, service.NewEmbeddingService(), logger.Nop())

	err := runSeed(context.Background(), db, auth, recipes, seedOptions{dir: t.TempDir(), email: "x@example.com", name: "X", password: "password123"}, &bytes.Buffer{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no *.json")
}
