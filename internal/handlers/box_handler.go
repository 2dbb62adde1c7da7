package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// BoxHandler exposes box management endpoints.
type BoxHandler struct {
	boxService *services.BoxService
}

// NewBoxHandler constructs a BoxHandler.
func NewBoxHandler(boxService *services.BoxService) (*BoxHandler, error) {
	if boxService == nil {
		return nil, errors.New("box handler: box service is required")
	}
	return &BoxHandler{boxService: boxService}, nil
}

type createBoxRequest struct {
	Name    string `json:"name" validate:"required,min=1,max=255"`
	Address string `json:"address" validate:"omitempty,max=512"`
	Phone   string `json:"phone" validate:"omitempty,max=32"`
	Email   string `json:"email" validate:"omitempty,email"`
	Website string `json:"website" validate:"omitempty,max=2048"`
}

// Create opens a new box owned by the caller.
func (h *BoxHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createBoxRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	box, err := h.boxService.Create(c.Request.Context(), currentUserID(c), services.CreateBoxInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, box)
}

// List returns the caller's boxes.
func (h *BoxHandler) List(c *gin.Context) {
	boxes, err := h.boxService.ListMine(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, boxes)
}

// Get returns a single box with its disciplines.
func (h *BoxHandler) Get(c *gin.Context) {
	box, err := h.boxService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, box)
}

type updateBoxRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=1,max=255"`
	Address *string `json:"address" validate:"omitempty,max=512"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Website *string `json:"website" validate:"omitempty,max=2048"`
}

// Update applies partial changes to a box.
func (h *BoxHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateBoxRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	box, err := h.boxService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateBoxInput{
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
		Email:   req.Email,
		Website: req.Website,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, box)
}

// Deactivate retires a box.
func (h *BoxHandler) Deactivate(c *gin.Context) {
	if err := h.boxService.Deactivate(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deactivated": true})
}
