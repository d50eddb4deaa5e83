package api

import "github.com/gin-gonic/gin"

// Register mounts the account routes on an API group.
func Register(apiGroup *gin.RouterGroup, h *Handler, jwtSecret string) {
	authMiddleware := AuthMiddleware(jwtSecret)

	auth := apiGroup.Group("/auth")
	{
		auth.GET("/registration-status", h.RegistrationStatus)
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/me", authMiddleware, h.Me)
	}

	admin := apiGroup.Group("/admin")
	admin.Use(authMiddleware)
	{
		admin.POST("/users", h.CreateUser)
	}
}
