package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"

	"github.com/pageza/recipeforge/backend/config"
)

// ErrEmptyCompletion is returned when the model answers with no content.
var ErrEmptyCompletion = errors.New("llm returned empty response")

const recipeSchemaTemplate = `{
  "title": "...",
  "slug": "...",
  "description": "...",
  "servings": 1,
  "prep_time_minutes": 0,
  "cook_time_minutes": 0,
  "total_time_minutes": 0,
  "ingredients": [
    { "name": "...", "quantity": 1, "unit": "", "notes": "" }
  ],
  "instructions": ["..."],
  "tags": []
}`

const (
	formatSystemPrompt = "You are a helpful assistant that formats recipes into structured JSON."
	askSystemPrompt    = "You are a helpful recipe assistant that returns structured recipes."
)

// FormatRecipePrompt asks the model to structure free recipe text.
func FormatRecipePrompt(rawText string) string {
	return fmt.Sprintf(`Convert the following recipe into **valid JSON**, following this format:
%s
Recipe:
"""
%s
"""
ONLY return a valid JSON object, no explanations, markdown, or backticks.
If any value is missing, use a best-guess default (e.g., 1, 0, empty string, etc.).
`, recipeSchemaTemplate, strings.TrimSpace(rawText))
}

// AskRecipePrompt asks the model to invent a recipe for a request.
func AskRecipePrompt(query string) string {
	return fmt.Sprintf(`Generate a recipe based on the following request: %q

Format the recipe as **valid JSON**:
%s

Only return the JSON. No explanations, markdown, or extra text.
**Important**: Convert all fractions like 1/2 to decimal format like 0.5.
If something is unclear, use best-guess defaults.
`, strings.TrimSpace(query), recipeSchemaTemplate)
}

// LLMService talks to an OpenAI-compatible chat completion endpoint
type LLMService struct {
	client      *openai.Client
	model       string
	temperature float32
}

// NewLLMService creates a new LLMService from configuration
func NewLLMService(cfg *config.Config) (*LLMService, error) {
	if cfg.LLMAPIKey == "" {
		return nil, errors.New("LLM_API_KEY must be set")
	}
	if cfg.LLMModel == "" {
		return nil, errors.New("LLM_MODEL must be set")
	}

	clientCfg := openai.DefaultConfig(cfg.LLMAPIKey)
	if cfg.LLMBaseURL != "" {
		clientCfg.BaseURL = cfg.LLMBaseURL
	}

	return &LLMService{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.LLMModel,
		temperature: cfg.LLMTemperature,
	}, nil
}

// Complete sends one system and one user message and returns the reply text verbatim.
func (s *LLMService) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
		{Role: openai.ChatMessageRoleUser, Content: userMessage},
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.model,
		Messages:    messages,
		Temperature: s.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyCompletion
	}
	return resp.Choices[0].Message.Content, nil
}
