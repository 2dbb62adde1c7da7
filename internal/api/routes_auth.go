package api

import "github.com/gin-gonic/gin"

func registerAuthRoutes(group *gin.RouterGroup, h Handlers) {
	authGroup := group.Group("/auth")
	authGroup.POST("/register", h.Auth.Register)
	authGroup.POST("/login", h.Auth.Login)

	// The setup token authenticates these, not a JWT.
	group.GET("/invitations/validate-token/:token", h.Invitations.ValidateToken)
	group.POST("/invitations/complete-setup", h.Invitations.CompleteSetup)
}
