package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// TemplateHandler exposes week template endpoints.
type TemplateHandler struct {
	templateService *services.TemplateService
}

// NewTemplateHandler constructs a TemplateHandler.
func NewTemplateHandler(templateService *services.TemplateService) (*TemplateHandler, error) {
	if templateService == nil {
		return nil, errors.New("template handler: template service is required")
	}
	return &TemplateHandler{templateService: templateService}, nil
}

// List returns the box's templates.
func (h *TemplateHandler) List(c *gin.Context) {
	page, limit := parsePagination(c)

	templates, total, err := h.templateService.List(
		c.Request.Context(), currentUserID(c), c.Param("id"), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, templates,
		response.NewMeta(page, limit, len(templates), total))
}

// Get returns a template with its items.
func (h *TemplateHandler) Get(c *gin.Context) {
	template, err := h.templateService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

type templateItemRequest struct {
	DisciplineID string  `json:"discipline_id" validate:"required,uuid"`
	TrainerID    *string `json:"trainer_id" validate:"omitempty,uuid"`
	DayOfWeek    int     `json:"day_of_week" validate:"required,min=1,max=7"`
	StartTime    string  `json:"start_time" validate:"required,clocktime"`
	EndTime      string  `json:"end_time" validate:"required,clocktime"`
	MaxCapacity  int     `json:"max_capacity" validate:"omitempty,min=1,max=500"`
	Name         string  `json:"name" validate:"omitempty,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=2048"`
}

func (r templateItemRequest) toInput() services.TemplateItemInput {
	return services.TemplateItemInput{
		DisciplineID: r.DisciplineID,
		TrainerID:    r.TrainerID,
		DayOfWeek:    r.DayOfWeek,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		MaxCapacity:  r.MaxCapacity,
		Name:         r.Name,
		Description:  r.Description,
	}
}

type createTemplateRequest struct {
	BoxID       string                `json:"box_id" validate:"required,uuid"`
	Name        string                `json:"name" validate:"required,min=1,max=255"`
	Description string                `json:"description" validate:"omitempty,max=2048"`
	Items       []templateItemRequest `json:"items" validate:"omitempty,max=100,dive"`
}

// Create stores a new template.
func (h *TemplateHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createTemplateRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	items := make([]services.TemplateItemInput, len(req.Items))
	for i, item := range req.Items {
		items[i] = item.toInput()
	}

	template, err := h.templateService.Create(c.Request.Context(), currentUserID(c), services.CreateTemplateInput{
		BoxID:       req.BoxID,
		Name:        req.Name,
		Description: req.Description,
		Items:       items,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, template)
}

type updateTemplateRequest struct {
	Name        *string `json:"name" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2048"`
	IsActive    *bool   `json:"is_active"`
}

// Update applies partial changes to a template header.
func (h *TemplateHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateTemplateRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	template, err := h.templateService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateTemplateInput{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    req.IsActive,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, template)
}

// Delete removes a template and its items.
func (h *TemplateHandler) Delete(c *gin.Context) {
	if err := h.templateService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// AddItem appends a slot to a template.
func (h *TemplateHandler) AddItem(c *gin.Context) {
	req, err := bindAndValidate[templateItemRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	item, err := h.templateService.AddItem(c.Request.Context(), currentUserID(c), c.Param("id"), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, item)
}

// RemoveItem deletes a single template slot.
func (h *TemplateHandler) RemoveItem(c *gin.Context) {
	if err := h.templateService.RemoveItem(
		c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

type importWeekRequest struct {
	BoxID     string `json:"box_id" validate:"required,uuid"`
	WeekStart string `json:"week_start" validate:"required,dateonly"`
	Name      string `json:"name" validate:"omitempty,max=255"`
}

// ImportFromWeek builds a template from an existing calendar week.
func (h *TemplateHandler) ImportFromWeek(c *gin.Context) {
	req, err := bindAndValidate[importWeekRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	template, err := h.templateService.ImportFromWeek(
		c.Request.Context(), currentUserID(c), req.BoxID, req.WeekStart, req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, template)
}

type applyTemplateRequest struct {
	WeekStart string `json:"week_start" validate:"required,dateonly"`
}

// Apply materialises a template onto a calendar week.
func (h *TemplateHandler) Apply(c *gin.Context) {
	req, err := bindAndValidate[applyTemplateRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.templateService.Apply(c.Request.Context(), currentUserID(c), c.Param("id"), req.WeekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// CheckConflicts previews collisions before applying a template.
func (h *TemplateHandler) CheckConflicts(c *gin.Context) {
	weekStart := c.Query("week_start")

	conflicts, err := h.templateService.CheckConflicts(
		c.Request.Context(), currentUserID(c), c.Param("id"), weekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"conflicts": conflicts,
		"count":     len(conflicts),
	})
}
