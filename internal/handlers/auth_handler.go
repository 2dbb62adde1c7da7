package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// AuthHandler exposes registration and login endpoints.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(authService *services.AuthService) (*AuthHandler, error) {
	if authService == nil {
		return nil, errors.New("auth handler: auth service is required")
	}
	return &AuthHandler{authService: authService}, nil
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	FullName string `json:"full_name" validate:"required,min=1,max=255"`
	Role     string `json:"role" validate:"omitempty,oneof=owner athlete"`
	BoxName  string `json:"box_name" validate:"omitempty,max=255"`
	BoxID    string `json:"box_id" validate:"omitempty,uuid"`
}

// Register creates an account plus its role-dependent local rows.
func (h *AuthHandler) Register(c *gin.Context) {
	req, err := bindAndValidate[registerRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authService.Register(c.Request.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		FullName: req.FullName,
		Role:     req.Role,
		BoxName:  req.BoxName,
		BoxID:    req.BoxID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, result)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Login verifies credentials and returns an access token.
func (h *AuthHandler) Login(c *gin.Context) {
	req, err := bindAndValidate[loginRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// Me returns the caller's profile with memberships.
func (h *AuthHandler) Me(c *gin.Context) {
	profile, err := h.authService.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, profile)
}
