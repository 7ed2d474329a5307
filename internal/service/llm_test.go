package service

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/recipeforge/backend/config"
)

func fakeCompletionServer(t *testing.T, reply string, seen *openai.ChatCompletionRequest) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(seen))

		resp := openai.ChatCompletionResponse{
			ID:     "cmpl-1",
			Object: "chat.completion",
			Model:  seen.Model,
		}
		if reply != "" {
			resp.Choices = []openai.ChatCompletionChoice{{
				Index:   0,
				Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: reply},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestNewLLMService(t *testing.T) {
	t.Run("requires api key", func(t *testing.T) {
		_, err := NewLLMService(&config.Config{LLMModel: "m"})
		assert.ErrorContains(t, err, "LLM_API_KEY")
	})

	t.Run("requires model", func(t *testing.T) {
		_, err := NewLLMService(&config.Config{LLMAPIKey: "k"})
		assert.ErrorContains(t, err, "LLM_MODEL")
	})
}

func TestLLMService_Complete(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := fakeCompletionServer(t, "```json\n{\"title\": \"x\"}\n```", &seen)

	llm, err := NewLLMService(&config.Config{
		LLMAPIKey:  "test-key",
		LLMBaseURL: srv.URL + "/v1",
		LLMModel:   "llama3-70b-8192",
	})
	require.NoError(t, err)

	reply, err := llm.Complete(context.Background(), formatSystemPrompt, FormatRecipePrompt("2 eggs, fry"))
	require.NoError(t, err)
	assert.Equal(t, "```json\n{\"title\": \"x\"}\n```", reply)

	assert.Equal(t, "llama3-70b-8192", seen.Model)
	require.Len(t, seen.Messages, 2)
	assert.Equal(t, openai.ChatMessageRoleSystem, seen.Messages[0].Role)
	assert.Contains(t, seen.Messages[1].Content, "2 eggs, fry")
}

func TestLLMService_CompleteEmpty(t *testing.T) {
	var seen openai.ChatCompletionRequest
	srv := fakeCompletionServer(t, "", &seen)

	llm, err := NewLLMService(&config.Config{LLMAPIKey: "test-key", LLMBaseURL: srv.URL + "/v1", LLMModel: "m"})
	require.NoError(t, err)

	_, err = llm.Complete(context.Background(), "s", "u")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestPrompts(t *testing.T) {
	format := FormatRecipePrompt("  Pancakes: flour, milk  ")
	assert.Contains(t, format, "\"\"\"\nPancakes: flour, milk\n\"\"\"")
	assert.Contains(t, format, `"ingredients"`)

	ask := AskRecipePrompt("something with lentils")
	assert.Contains(t, ask, `"something with lentils"`)
	assert.Contains(t, ask, "decimal")
}
