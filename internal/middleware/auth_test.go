package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/testhelpers"
	"github.com/pageza/recipeforge/backend/internal/types"
)

func TestAuthMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	userID := uuid.New()

	validator := &testhelpers.MockAuthService{}
	validator.On("ValidateToken", "good").Return(&types.TokenClaims{UserID: userID, Name: "Ada"}, nil)
	validator.On("ValidateToken", "bad").Return(nil, errors.New("signature is invalid"))

	router := gin.New()
	router.GET("/me", middleware.AuthMiddleware(validator), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": c.MustGet("user_id")})
	})

	tests := []struct {
		name   string
		header string
		cookie string
		status int
	}{
		{"bearer", "Bearer good", "", http.StatusOK},
		{"cookie", "", "good", http.StatusOK},
		{"header wins over cookie", "Bearer bad", "good", http.StatusUnauthorized},
		{"invalid token", "Bearer bad", "", http.StatusUnauthorized},
		{"malformed header", "Token good", "", http.StatusUnauthorized},
		{"missing", "", "", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: middleware.SessionCookie, Value: tt.cookie})
			}
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, req)
			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Contains(t, rr.Body.String(), userID.String())
			}
		})
	}
}
