package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/logger"
	"github.com/boxhub/boxhub/pkg/response"
)

// Recovery converts panics into 500 responses with the standard envelope.
func Recovery() gin.HandlerFunc {
	log := logger.WithModule("http")

	return func(c *gin.Context) {
		defer func() {
			if recovered := recover(); recovered != nil {
				log.Error("panic recovered",
					zap.Any("panic", recovered),
					zap.String("path", c.Request.URL.Path),
					zap.Stack("stack"))
				response.Error(c, apperrors.ErrInternalServer.WithInternal(
					fmt.Errorf("panic: %v", recovered)))
				c.Abort()
			}
		}()
		c.Next()
	}
}
