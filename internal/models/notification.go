package models

import (
	"time"

	"gorm.io/datatypes"
)

// Notification types emitted by the domain senders.
const (
	NotificationClassCancelled     = "class_cancelled"
	NotificationBookingConfirmed   = "booking_confirmed"
	NotificationClassReminder24h   = "reminder_24h"
	NotificationInvitationReceived = "invitation_received"
	NotificationInvitationAccepted = "invitation_accepted"
	NotificationMembershipChanged  = "membership_status_changed"
)

// Notification priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Delivery lifecycle of a notification.
const (
	DeliveryPending = "pending"
	DeliverySent    = "sent"
	DeliveryFailed  = "failed"
	DeliveryRead    = "read"
)

// Notification represents an in-app (and optionally email) notification for a
// user.
type Notification struct {
	BaseModel

	UserID   string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Type     string         `gorm:"type:varchar(50);not null" json:"type"`
	Title    string         `gorm:"type:varchar(255);not null" json:"title"`
	Message  string         `gorm:"type:text" json:"message"`
	Data     datatypes.JSON `json:"data"`
	Channels datatypes.JSON `json:"channels"`
	Priority string         `gorm:"type:varchar(20);default:'normal'" json:"priority"`

	ReadAt         *time.Time `json:"read_at"`
	DeliveredAt    *time.Time `json:"delivered_at"`
	DeliveryStatus string     `gorm:"type:varchar(20);default:'pending';index" json:"delivery_status"`
}

// NotificationPreference stores a user's per-channel and per-type delivery
// switches. Preferences holds a JSON matrix keyed by notification type.
type NotificationPreference struct {
	BaseModel

	UserID string `gorm:"type:uuid;uniqueIndex;not null" json:"user_id"`

	EmailEnabled bool `gorm:"default:true" json:"email_enabled"`
	PushEnabled  bool `gorm:"default:true" json:"push_enabled"`
	InAppEnabled bool `gorm:"default:true" json:"in_app_enabled"`

	Preferences datatypes.JSON `json:"preferences"`
}
