package api

import (
	"github.com/gin-gonic/gin"

	"github.com/ramosjr18/categorizar-docs/internal/config"
	userapi "github.com/ramosjr18/categorizar-docs/internal/user_service/api"
	"github.com/ramosjr18/categorizar-docs/pkg/ratelimiter"
)

// Register mounts the document routes on an API group. Every route
// requires an authenticated principal; the upload route additionally sits
// behind the configured rate limiter.
func Register(apiGroup *gin.RouterGroup, h *Handler, cfg *config.AppConfig) {
	authMiddleware := userapi.AuthMiddleware(cfg.Auth.JwtSecret)

	docs := apiGroup.Group("/documents")
	docs.Use(authMiddleware)
	{
		upload := docs.Group("")
		if rl := cfg.Middleware.RateLimiter; rl.Enabled {
			upload.Use(RateLimit(ratelimiter.NewTokenBucket(rl.Rate, rl.Capacity)))
		}
		upload.POST("", h.Upload)

		docs.GET("", h.List)
		docs.GET("/:id", h.Get)
		docs.GET("/:id/download", h.Download)
		docs.DELETE("/:id", h.Delete)
		docs.GET("/:id/sheets", h.Sheets)
		docs.POST("/chartable", h.Chartable)
	}

	charts := apiGroup.Group("/charts")
	charts.Use(authMiddleware)
	{
		charts.POST("", h.Charts)
	}
}
