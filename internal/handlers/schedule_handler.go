package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// ScheduleHandler exposes class calendar endpoints.
type ScheduleHandler struct {
	scheduleService *services.ScheduleService
}

// NewScheduleHandler constructs a ScheduleHandler.
func NewScheduleHandler(scheduleService *services.ScheduleService) (*ScheduleHandler, error) {
	if scheduleService == nil {
		return nil, errors.New("schedule handler: schedule service is required")
	}
	return &ScheduleHandler{scheduleService: scheduleService}, nil
}

type createScheduleRequest struct {
	BoxID        string  `json:"box_id" validate:"required,uuid"`
	DisciplineID string  `json:"discipline_id" validate:"required,uuid"`
	TrainerID    *string `json:"trainer_id" validate:"omitempty,uuid"`
	Date         string  `json:"date" validate:"required,dateonly"`
	StartTime    string  `json:"start_time" validate:"required,clocktime"`
	EndTime      string  `json:"end_time" validate:"required,clocktime"`
	Name         string  `json:"name" validate:"omitempty,max=255"`
	Description  string  `json:"description" validate:"omitempty,max=2048"`
	MaxCapacity  int     `json:"max_capacity" validate:"omitempty,min=1,max=500"`
}

func (r createScheduleRequest) toInput() services.CreateScheduleInput {
	return services.CreateScheduleInput{
		BoxID:        r.BoxID,
		DisciplineID: r.DisciplineID,
		TrainerID:    r.TrainerID,
		Date:         r.Date,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		Name:         r.Name,
		Description:  r.Description,
		MaxCapacity:  r.MaxCapacity,
	}
}

// Create adds a single draft slot.
func (h *ScheduleHandler) Create(c *gin.Context) {
	req, err := bindAndValidate[createScheduleRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	schedule, err := h.scheduleService.Create(c.Request.Context(), currentUserID(c), req.toInput())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, schedule)
}

type bulkCreateScheduleRequest struct {
	BoxID     string                  `json:"box_id" validate:"required,uuid"`
	Schedules []createScheduleRequest `json:"schedules" validate:"required,min=1,max=100,dive"`
}

// CreateBulk adds several draft slots at once.
func (h *ScheduleHandler) CreateBulk(c *gin.Context) {
	req, err := bindAndValidate[bulkCreateScheduleRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	inputs := make([]services.CreateScheduleInput, len(req.Schedules))
	for i, item := range req.Schedules {
		inputs[i] = item.toInput()
	}

	schedules, err := h.scheduleService.CreateBulk(c.Request.Context(), currentUserID(c), req.BoxID, inputs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, schedules)
}

// ListByBox returns the box calendar for an optional date range.
func (h *ScheduleHandler) ListByBox(c *gin.Context) {
	includeHidden := c.Query("include_hidden") == "true"

	schedules, err := h.scheduleService.ListByBox(
		c.Request.Context(), currentUserID(c), c.Param("id"),
		c.Query("from"), c.Query("to"), includeHidden)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedules)
}

// Get returns a single slot with booking stats.
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.scheduleService.Get(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedule)
}

type updateScheduleRequest struct {
	TrainerID   *string `json:"trainer_id"`
	Date        *string `json:"date" validate:"omitempty,dateonly"`
	StartTime   *string `json:"start_time" validate:"omitempty,clocktime"`
	EndTime     *string `json:"end_time" validate:"omitempty,clocktime"`
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=2048"`
	MaxCapacity *int    `json:"max_capacity" validate:"omitempty,min=1,max=500"`
	IsVisible   *bool   `json:"is_visible"`
}

// Update applies partial changes to a slot.
func (h *ScheduleHandler) Update(c *gin.Context) {
	req, err := bindAndValidate[updateScheduleRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	schedule, err := h.scheduleService.Update(c.Request.Context(), currentUserID(c), c.Param("id"), services.UpdateScheduleInput{
		TrainerID:   req.TrainerID,
		Date:        req.Date,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Name:        req.Name,
		Description: req.Description,
		MaxCapacity: req.MaxCapacity,
		IsVisible:   req.IsVisible,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedule)
}

type cancelScheduleRequest struct {
	Reason string `json:"reason" validate:"omitempty,max=1024"`
}

// Cancel marks a slot cancelled and notifies its bookers.
func (h *ScheduleHandler) Cancel(c *gin.Context) {
	req, err := bindAndValidate[cancelScheduleRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	schedule, err := h.scheduleService.Cancel(c.Request.Context(), currentUserID(c), c.Param("id"), req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedule)
}

// Reactivate undoes a cancellation.
func (h *ScheduleHandler) Reactivate(c *gin.Context) {
	schedule, err := h.scheduleService.Reactivate(c.Request.Context(), currentUserID(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, schedule)
}

// Delete removes a slot and its bookings.
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.scheduleService.Delete(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

type cancelSchedulesRequest struct {
	ScheduleIDs []string `json:"schedule_ids" validate:"required,min=1,max=100,dive,uuid"`
	Reason      string   `json:"reason" validate:"omitempty,max=1024"`
}

// CancelMany cancels a batch of slots.
func (h *ScheduleHandler) CancelMany(c *gin.Context) {
	req, err := bindAndValidate[cancelSchedulesRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	cancelled, err := h.scheduleService.CancelMany(c.Request.Context(), currentUserID(c), req.ScheduleIDs, req.Reason)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"cancelled": cancelled})
}

type scheduleBatchRequest struct {
	ScheduleIDs []string `json:"schedule_ids" validate:"required,min=1,max=100,dive,uuid"`
}

// ReactivateMany undoes the cancellation of a batch of slots.
func (h *ScheduleHandler) ReactivateMany(c *gin.Context) {
	req, err := bindAndValidate[scheduleBatchRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	reactivated, err := h.scheduleService.ReactivateMany(c.Request.Context(), currentUserID(c), req.ScheduleIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"reactivated": reactivated})
}

// DeleteMany removes a batch of slots and their bookings.
func (h *ScheduleHandler) DeleteMany(c *gin.Context) {
	req, err := bindAndValidate[scheduleBatchRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	deleted, err := h.scheduleService.DeleteMany(c.Request.Context(), currentUserID(c), req.ScheduleIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": deleted})
}

type weekRequest struct {
	BoxID     string `json:"box_id" validate:"required,uuid"`
	WeekStart string `json:"week_start" validate:"required,dateonly"`
}

// PublishWeek makes every draft of the given week visible.
func (h *ScheduleHandler) PublishWeek(c *gin.Context) {
	req, err := bindAndValidate[weekRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	published, err := h.scheduleService.PublishWeek(c.Request.Context(), currentUserID(c), req.BoxID, req.WeekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"published": published})
}

// CopyWeek duplicates the given week onto the next one as drafts.
func (h *ScheduleHandler) CopyWeek(c *gin.Context) {
	req, err := bindAndValidate[weekRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	copied, err := h.scheduleService.CopyWeek(c.Request.Context(), currentUserID(c), req.BoxID, req.WeekStart)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"copied": copied})
}
