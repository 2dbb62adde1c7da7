package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/boxhub/boxhub/internal/notifications"
	"github.com/boxhub/boxhub/internal/services"
	"github.com/boxhub/boxhub/pkg/response"
)

// NotificationHandler exposes the notification feed, preferences, and the
// WebSocket stream.
type NotificationHandler struct {
	notificationService *services.NotificationService
	hub                 *notifications.Hub
}

// NewNotificationHandler constructs a NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService, hub *notifications.Hub) (*NotificationHandler, error) {
	if notificationService == nil {
		return nil, errors.New("notification handler: notification service is required")
	}
	if hub == nil {
		return nil, errors.New("notification handler: hub is required")
	}
	return &NotificationHandler{notificationService: notificationService, hub: hub}, nil
}

// ListUnread returns the caller's unread notifications.
func (h *NotificationHandler) ListUnread(c *gin.Context) {
	items, err := h.notificationService.ListUnread(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, items)
}

// ListAll returns the caller's notifications page by page.
func (h *NotificationHandler) ListAll(c *gin.Context) {
	page, limit := parsePagination(c)

	items, total, err := h.notificationService.ListAll(c.Request.Context(), currentUserID(c), page, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.SuccessWithMeta(c, http.StatusOK, items,
		response.NewMeta(page, limit, len(items), total))
}

// MarkRead stamps one notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationService.MarkRead(c.Request.Context(), currentUserID(c), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"read": true})
}

// MarkAllRead stamps every unread notification as read.
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	updated, err := h.notificationService.MarkAllRead(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}

// GetPreferences returns the caller's delivery preferences.
func (h *NotificationHandler) GetPreferences(c *gin.Context) {
	prefs, err := h.notificationService.GetOrCreatePreferences(c.Request.Context(), currentUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs)
}

type updatePreferencesRequest struct {
	EmailEnabled *bool                      `json:"email_enabled"`
	PushEnabled  *bool                      `json:"push_enabled"`
	InAppEnabled *bool                      `json:"in_app_enabled"`
	Preferences  map[string]map[string]bool `json:"preferences"`
}

// UpdatePreferences applies partial preference changes.
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	req, err := bindAndValidate[updatePreferencesRequest](c)
	if err != nil {
		response.Error(c, err)
		return
	}

	prefs, err := h.notificationService.UpdatePreferences(c.Request.Context(), currentUserID(c), services.UpdatePreferencesInput{
		EmailEnabled: req.EmailEnabled,
		PushEnabled:  req.PushEnabled,
		InAppEnabled: req.InAppEnabled,
		Preferences:  req.Preferences,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, prefs)
}

// Stream upgrades the connection to a WebSocket and pushes live notification
// events until the client disconnects.
func (h *NotificationHandler) Stream(c *gin.Context) {
	h.hub.Serve(currentUserID(c), c.Writer, c.Request)
}
