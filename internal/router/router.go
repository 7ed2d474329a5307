package router

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pageza/recipeforge/backend/internal/api"
	"github.com/pageza/recipeforge/backend/internal/logger"
	"github.com/pageza/recipeforge/backend/internal/middleware"
	"github.com/pageza/recipeforge/backend/internal/telemetry"
)

// Handlers groups the API handlers the router mounts.
type Handlers struct {
	Auth    *api.AuthHandler
	Recipes *api.RecipeHandler
	LLM     *api.LLMHandler
	Health  *api.HealthHandler
}

// Options carries the cross-cutting pieces of the router.
type Options struct {
	AllowedOrigins  []string
	Tracing         bool
	Validator       middleware.TokenValidator
	CreationLimiter *middleware.RateLimiter
	Log             *logger.Logger
}

// SetupRouter configures the application routes
func SetupRouter(h Handlers, opts Options) *gin.Engine {
	router := gin.New()

	if opts.Tracing {
		router.Use(otelgin.Middleware(telemetry.ServiceName))
	}
	router.Use(middleware.RequestLogger(opts.Log), middleware.Recovery(opts.Log))
	router.Use(middleware.CORS(opts.AllowedOrigins))

	router.GET("/health", h.Health.HealthCheck)

	v1 := router.Group("/api/v1")
	v1.GET("/health", h.Health.HealthCheck)

	// Auth routes
	auth := v1.Group("/auth")
	{
		auth.POST("/register", h.Auth.Register)
		auth.POST("/login", h.Auth.Login)
		auth.POST("/logout", h.Auth.Logout)
	}

	// Protected routes
	protected := v1.Group("")
	protected.Use(middleware.AuthMiddleware(opts.Validator))
	{
		limited := opts.CreationLimiter.RateLimitMiddleware()

		recipes := protected.Group("/recipes")
		{
			recipes.GET("", h.Recipes.ListRecipes)
			recipes.POST("", limited, h.Recipes.CreateRecipe)
			recipes.POST("/ask-ai", limited, h.Recipes.AskAI)
			recipes.POST("/from-json", h.Recipes.CreateFromJSON)
			recipes.GET("/:slug", h.Recipes.GetRecipe)
			recipes.PUT("/:slug", h.Recipes.UpdateRecipe)
			recipes.DELETE("/:slug", h.Recipes.DeleteRecipe)
			recipes.POST("/:slug/like", h.Recipes.LikeRecipe)
		}

		llm := protected.Group("/llm")
		{
			llm.GET("/drafts/:id", h.LLM.GetDraft)
			llm.DELETE("/drafts/:id", h.LLM.DeleteDraft)
		}

		protected.GET("/rate-limits/recipe-creation", h.LLM.RecipeCreationLimit)
	}

	return router
}
