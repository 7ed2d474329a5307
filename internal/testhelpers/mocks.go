package testhelpers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/pageza/recipeforge/backend/internal/types"
)

// MockAuthService is a mock implementation of middleware.TokenValidator
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) ValidateToken(token string) (*types.TokenClaims, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*types.TokenClaims), args.Error(1)
}

// MockTextGenerator is a scripted LLM. Queue replies with
// m.On("Complete", mock.Anything, mock.Anything, mock.Anything).Return(reply, nil).Once().
type MockTextGenerator struct {
	mock.Mock
}

func (m *MockTextGenerator) Complete(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	args := m.Called(ctx, systemPrompt, userMessage)
	return args.String(0), args.Error(1)
}
