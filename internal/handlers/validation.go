package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/middleware"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/validator"
)

// bindAndValidate decodes the JSON body into T and runs struct validation.
func bindAndValidate[T any](c *gin.Context) (*T, error) {
	var payload T
	if err := c.ShouldBindJSON(&payload); err != nil {
		return nil, apperrors.NewBadRequest("invalid request payload")
	}
	if err := validator.ValidateStruct(&payload); err != nil {
		return nil, apperrors.NewBadRequest(err.Error())
	}
	return &payload, nil
}

// currentUserID reads the authenticated user's id from the request context.
func currentUserID(c *gin.Context) string {
	return middleware.UserID(c)
}

// parsePagination reads page/limit query parameters with sane bounds.
func parsePagination(c *gin.Context) (page, limit int) {
	page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "10"))
	if page <= 0 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return page, limit
}
