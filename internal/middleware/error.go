package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/pageza/recipeforge/backend/internal/logger"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// Recovery turns a panic in a handler into a JSON 500.
func Recovery(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("panic recovered", "error", err, "method", c.Request.Method, "path", c.Request.URL.Path)
				c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Error: "Internal Server Error"})
			}
		}()
		c.Next()
	}
}

// RequestLogger logs every request once it completes. 5xx responses log at
// error level, 4xx at warn.
func RequestLogger(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", status,
			"duration_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID, ok := c.Get("user_id"); ok {
			kv = append(kv, "user_id", userID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			log.Error("request failed", kv...)
		case status >= http.StatusBadRequest:
			log.Warn("request rejected", kv...)
		default:
			log.Info("request completed", kv...)
		}
	}
}
