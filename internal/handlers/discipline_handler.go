package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// DisciplineHandler exposes discipline management endpoints.
type DisciplineHandler struct {
	disciplineService *services.DisciplineService
}

// NewDisciplineHandler constructs a DisciplineHandler.
func NewDisciplineHandler(disciplineService *services.DisciplineService) (*DisciplineHandler, error) {
	if disciplineService == nil {
		return nil, errors.New("discipline handler: discipline service is required")
	}
	return &DisciplineHandler{disciplineService: disciplineService}, nil
}

// List returns a page of the disciplines of a box.
func (h *DisciplineHandler) List(c *gin.Context) {
	includeInactive := c.Query("include_inactive") == "true"
	page, limit := parsePagination(c)

	disciplines, total, err := h.disciplineService.List(
		c.Request.Context(), currentUserID(c), c.Param("id"), includeInactive, page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, disciplines,
		response.NewMeta(page, limit, len(disciplines), total))
}

// Get returns a single discipline.
func (h *DisciplineHandler) Get(c *gin.Context) {
	discipline, err := h.disciplineService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, discipline)
}

type createDisciplineRequest struct {
	BoxID           string `json:"box_id" validate:"required,uuid"`
	Name            string `json:"name" validate:"required,min=1,max=255"`
	Color           string `json:"color" validate:"omitempty,max=32"`
	Description     string `json:"description" validate:"omitempty,max=2048"`
	DurationMinutes int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	DisplayOrder    int    `json:"display_order" validate:"omitempty,min=0"`
}

// Create adds a discipline to a box.
func (h *DisciplineHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createDisciplineRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	discipline, err := h.disciplineService.Create(c.Request.Context(), currentUserID(c), services.CreateDisciplineInput{
		BoxID:           req.BoxID,
		Name:            req.Name,
		Color:           req.Color,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		DisplayOrder:    req.DisplayOrder,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, discipline)
}

type updateDisciplineRequest struct {
	Name            *string `json:"name" validate:"omitempty,min=1,max=255"`
	Color           *string `json:"color" validate:"omitempty,max=32"`
	Description     *string `json:"description" validate:"omitempty,max=2048"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,min=5,max=480"`
	DisplayOrder    *int    `json:"display_order" validate:"omitempty,min=0"`
	IsActive        *bool   `json:"is_active"`
}

// Update applies partial changes to a discipline.
func (h *DisciplineHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateDisciplineRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	discipline, err := h.disciplineService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateDisciplineInput{
		Name:            req.Name,
		Color:           req.Color,
		Description:     req.Description,
		DurationMinutes: req.DurationMinutes,
		DisplayOrder:    req.DisplayOrder,
		IsActive:        req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, discipline)
}

// Delete removes or deactivates a discipline.
func (h *DisciplineHandler) Delete(c *gin.Context) {
	if err := h.disciplineService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
