package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/auth"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/response"
)

// Context keys set by RequireAuth.
const (
	ContextUserID    = "auth.user_id"
	ContextUserEmail = "auth.user_email"
)

// RequireAuth validates the Bearer token and stores the caller identity in
// the request context.
func RequireAuth(jwtService *auth.JWTService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}

		claims, err := jwtService.ValidateAccessToken(token)
		if err != nil {
			response.Error(c, apperrors.ErrUnauthorized.WithInternal(err))
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// UserID returns the authenticated user's id from the gin context.
func UserID(c *gin.Context) string {
	if value, ok := c.Get(ContextUserID); ok {
		if id, ok := value.(string); ok {
			return id
		}
	}
	return ""
}

func extractBearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	// WebSocket clients cannot set headers from the browser, so the stream
	// endpoint accepts the token as a query parameter.
	return strings.TrimSpace(c.Query("token"))
}
