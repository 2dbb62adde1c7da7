package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/response"
)

// HealthHandler reports process and database liveness.
type HealthHandler struct {
	db *gorm.DB
}

// NewHealthHandler constructs a HealthHandler.
func NewHealthHandler(db *gorm.DB) (*HealthHandler, error) {
	if db == nil {
		return nil, errors.New("health handler: db is required")
	}
	return &HealthHandler{db: db}, nil
}

// Check pings the database and reports status.
func (h *HealthHandler) Check(c *gin.Context) {
	sqlDB, err := h.db.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		response.Error(c, apperrors.New("UNHEALTHY", "Database unreachable", http.StatusServiceUnavailable).WithInternal(err))
		return
	}
	response.Success(c, http.StatusOK, gin.H{"status": "ok"})
}
