package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/models"
	"github.com/pageza/recipeforge/backend/internal/service"
	"github.com/pageza/recipeforge/backend/internal/types"
)

type AuthHandler struct {
	authService  service.IAuthService
	tokenTTL     time.Duration
	secureCookie bool
	log          *logger.Logger
}

func NewAuthHandler(authService service.IAuthService, tokenTTL time.Duration, secureCookie bool, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		tokenTTL:     tokenTTL,
		secureCookie: secureCookie,
		log:          log,
	}
}

type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req types.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "user already exists"})
			return
		}
		h.log.Error("failed to register user", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to register user"})
		return
	}

	h.setSessionCookie(c, token, int(h.tokenTTL.Seconds()))
	c.JSON(http.StatusCreated, AuthResponse{Token: token, User: user})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req types.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, token, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials"})
			return
		}
		h.log.Error("failed to log in", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to log in"})
		return
	}

	h.setSessionCookie(c, token, int(h.tokenTTL.Seconds()))
	c.JSON(http.StatusOK, AuthResponse{Token: token, User: user})
}

// Logout clears the session cookie. Bearer tokens stay valid until they expire.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"message": "logged out"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, token string, maxAge int) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.SessionCookie, token, maxAge, "/", "", h.secureCookie, true)
}
