package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/models"
	"github.com/boxhub/boxhub/internal/notifications"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/logger"
	"github.com/boxhub/boxhub/pkg/mail"
	"github.com/boxhub/boxhub/pkg/metrics"
)

// Delivery channels a notification can be routed to.
const (
	ChannelInApp = "in_app"
	ChannelEmail = "email"
	ChannelPush  = "push"
)

// unreadListLimit caps the unread feed so a long-ignored inbox cannot blow up
// the payload.
const unreadListLimit = 50

// NotificationService stores notifications and routes them to the channels a
// user has left enabled.
type NotificationService struct {
	db       *gorm.DB
	hub      *notifications.Hub
	mailer   mail.Mailer
	provider identity.Provider
	log      *zap.Logger
}

// NewNotificationService constructs a NotificationService. Hub, mailer and
// provider are optional; missing ones disable the matching channel.
func NewNotificationService(db *gorm.DB, hub *notifications.Hub, mailer mail.Mailer, provider identity.Provider) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:       db,
		hub:      hub,
		mailer:   mailer,
		provider: provider,
		log:      logger.WithModule("notifications"),
	}, nil
}

// SendNotificationInput describes a notification to dispatch.
type SendNotificationInput struct {
	UserID   string
	Type     string
	Title    string
	Message  string
	Data     map[string]any
	Channels []string
	Priority string
}

// Send persists the notification and delivers it over every requested channel
// the user's preferences allow. Channel delivery failures are logged, never
// returned: a broken mail server must not fail a booking.
func (s *NotificationService) Send(ctx context.Context, input SendNotificationInput) (*models.Notification, error) {
	ctx = ensureContext(ctx)

	if input.UserID == "" || input.Type == "" || input.Title == "" {
		return nil, apperrors.NewBadRequest("user id, type, and title are required")
	}

	prefs, err := s.GetOrCreatePreferences(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	requested := uniqueStrings(input.Channels)
	if len(requested) == 0 {
		requested = []string{ChannelInApp}
	}
	channels := filterChannels(requested, prefs, input.Type)

	dataJSON, err := marshalJSONField(input.Data)
	if err != nil {
		return nil, fmt.Errorf("notification service: encode data: %w", err)
	}
	channelsJSON, err := marshalJSONField(channels)
	if err != nil {
		return nil, fmt.Errorf("notification service: encode channels: %w", err)
	}

	notification := models.Notification{
		UserID:         input.UserID,
		Type:           input.Type,
		Title:          input.Title,
		Message:        input.Message,
		Data:           dataJSON,
		Channels:       channelsJSON,
		Priority:       defaultIfEmpty(input.Priority, models.PriorityNormal),
		DeliveryStatus: models.DeliveryPending,
	}
	if err := s.db.WithContext(ctx).Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	for _, channel := range channels {
		switch channel {
		case ChannelInApp:
			s.broadcast(notification)
		case ChannelEmail:
			s.sendEmail(ctx, notification)
		case ChannelPush:
			// No push provider is wired up yet; in-app delivery covers it.
		}
	}

	now := time.Now().UTC()
	notification.DeliveryStatus = models.DeliverySent
	notification.DeliveredAt = &now
	if err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ?", notification.ID).
		Updates(map[string]any{"delivery_status": models.DeliverySent, "delivered_at": now}).Error; err != nil {
		s.log.Warn("failed to mark notification delivered",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}

	metrics.NotificationsSent.WithLabelValues(input.Type).Inc()
	return &notification, nil
}

// ListUnread returns the newest unread notifications for the user.
func (s *NotificationService) ListUnread(ctx context.Context, userID string) ([]models.Notification, error) {
	var items []models.Notification
	err := s.db.WithContext(ensureContext(ctx)).
		Where("user_id = ? AND read_at IS NULL", userID).
		Order("created_at DESC").
		Limit(unreadListLimit).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("notification service: list unread: %w", err)
	}
	return items, nil
}

// ListAll returns the user's notifications page by page, newest first.
func (s *NotificationService) ListAll(ctx context.Context, userID string, page, limit int) ([]models.Notification, int64, error) {
	ctx = ensureContext(ctx)
	_, limit, offset := normalisePagination(page, limit)

	query := s.db.WithContext(ctx).Model(&models.Notification{}).Where("user_id = ?", userID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var items []models.Notification
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead stamps a single notification as read. Reading someone else's
// notification is indistinguishable from a missing one.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	now := time.Now().UTC()
	result := s.db.WithContext(ensureContext(ctx)).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", notificationID, userID).
		Updates(map[string]any{"read_at": now, "delivery_status": models.DeliveryRead})
	if result.Error != nil {
		return fmt.Errorf("notification service: mark read: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// MarkAllRead stamps every unread notification of the user as read and
// reports how many rows changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	now := time.Now().UTC()
	result := s.db.WithContext(ensureContext(ctx)).Model(&models.Notification{}).
		Where("user_id = ? AND read_at IS NULL", userID).
		Updates(map[string]any{"read_at": now, "delivery_status": models.DeliveryRead})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// GetOrCreatePreferences returns the user's preference row, creating the
// default all-channels-enabled row on first access.
func (s *NotificationService) GetOrCreatePreferences(ctx context.Context, userID string) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	var prefs models.NotificationPreference
	err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if err == nil {
		return &prefs, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("notification service: load preferences: %w", err)
	}

	matrix, err := marshalJSONField(defaultPreferenceMatrix())
	if err != nil {
		return nil, fmt.Errorf("notification service: encode default matrix: %w", err)
	}
	prefs = models.NotificationPreference{
		UserID:       userID,
		EmailEnabled: true,
		PushEnabled:  true,
		InAppEnabled: true,
		Preferences:  matrix,
	}
	if err := s.db.WithContext(ctx).Create(&prefs).Error; err != nil {
		// Lost a create race with a concurrent request; the row exists now.
		if isUniqueConstraintError(err) {
			if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error; err != nil {
				return nil, fmt.Errorf("notification service: load preferences: %w", err)
			}
			return &prefs, nil
		}
		return nil, fmt.Errorf("notification service: create preferences: %w", err)
	}
	return &prefs, nil
}

// UpdatePreferencesInput carries the preference fields a user may change.
type UpdatePreferencesInput struct {
	EmailEnabled *bool
	PushEnabled  *bool
	InAppEnabled *bool
	Preferences  map[string]map[string]bool
}

// UpdatePreferences applies partial changes to the user's preference row.
func (s *NotificationService) UpdatePreferences(ctx context.Context, userID string, input UpdatePreferencesInput) (*models.NotificationPreference, error) {
	ctx = ensureContext(ctx)

	prefs, err := s.GetOrCreatePreferences(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.EmailEnabled != nil {
		updates["email_enabled"] = *input.EmailEnabled
	}
	if input.PushEnabled != nil {
		updates["push_enabled"] = *input.PushEnabled
	}
	if input.InAppEnabled != nil {
		updates["in_app_enabled"] = *input.InAppEnabled
	}
	if input.Preferences != nil {
		matrix, err := marshalJSONField(input.Preferences)
		if err != nil {
			return nil, fmt.Errorf("notification service: encode preferences: %w", err)
		}
		updates["preferences"] = matrix
	}
	if len(updates) == 0 {
		return prefs, nil
	}

	if err := s.db.WithContext(ctx).Model(prefs).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("notification service: update preferences: %w", err)
	}

	if err := s.db.WithContext(ctx).Where("user_id = ?", userID).First(prefs).Error; err != nil {
		return nil, fmt.Errorf("notification service: reload preferences: %w", err)
	}
	return prefs, nil
}

func (s *NotificationService) broadcast(notification models.Notification) {
	if s.hub == nil {
		return
	}
	s.hub.Broadcast(notification.UserID, notifications.Event{
		Event:          "notification.created",
		Notification:   notification,
		NotificationID: notification.ID,
	})
}

func (s *NotificationService) sendEmail(ctx context.Context, notification models.Notification) {
	if s.mailer == nil || s.provider == nil {
		return
	}

	account, err := s.provider.FindByID(ctx, notification.UserID)
	if err != nil {
		s.log.Warn("email channel skipped, account lookup failed",
			zap.String("user_id", notification.UserID), zap.Error(err))
		return
	}

	msg := mail.Message{
		To:      []string{account.Email},
		Subject: notification.Title,
		HTML:    fmt.Sprintf("<h2>%s</h2><p>%s</p>", notification.Title, notification.Message),
	}
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("email delivery failed",
			zap.String("notification_id", notification.ID), zap.Error(err))
	}
}

// filterChannels drops every requested channel the user has switched off,
// first by the global per-channel toggles and then by the per-type matrix. A
// matrix row is authoritative for its type: channels it does not list are
// off. When filtering removes everything the in-app feed still gets the row.
func filterChannels(requested []string, prefs *models.NotificationPreference, notificationType string) []string {
	matrix := decodePreferenceMatrix(prefs.Preferences)
	typePrefs := matrix[notificationType]

	var out []string
	for _, channel := range requested {
		enabled := true
		switch channel {
		case ChannelEmail:
			enabled = prefs.EmailEnabled
		case ChannelPush:
			enabled = prefs.PushEnabled
		case ChannelInApp:
			enabled = prefs.InAppEnabled
		}
		if enabled && typePrefs != nil {
			enabled = typePrefs[channel]
		}
		if enabled {
			out = append(out, channel)
		}
	}
	if len(out) == 0 {
		return []string{ChannelInApp}
	}
	return out
}

// defaultPreferenceMatrix seeds the per-type channels new users start with:
// booking confirmations skip push, reminders skip the in-app feed. Types
// without a row keep every channel the globals allow.
func defaultPreferenceMatrix() map[string]map[string]bool {
	return map[string]map[string]bool{
		models.NotificationBookingConfirmed: {ChannelEmail: true, ChannelPush: false, ChannelInApp: true},
		models.NotificationClassCancelled:   {ChannelEmail: true, ChannelPush: true, ChannelInApp: true},
		models.NotificationClassReminder24h: {ChannelEmail: true, ChannelPush: true, ChannelInApp: false},
	}
}

func decodePreferenceMatrix(raw datatypes.JSON) map[string]map[string]bool {
	if len(raw) == 0 {
		return nil
	}
	var matrix map[string]map[string]bool
	if err := json.Unmarshal(raw, &matrix); err != nil {
		return nil
	}
	return matrix
}

func marshalJSONField(value any) (datatypes.JSON, error) {
	if value == nil {
		return nil, nil
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}
