package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/boxhub/boxhub/internal/models"
	"github.com/boxhub/boxhub/pkg/logger"
)

// Notifier wraps NotificationService with the domain-specific messages. Every
// method is fire-and-forget: failures are logged and swallowed so that
// notification trouble never fails the operation that triggered it.
type Notifier struct {
	svc *NotificationService
	log *zap.Logger
}

// NewNotifier constructs a Notifier.
func NewNotifier(svc *NotificationService) (*Notifier, error) {
	if svc == nil {
		return nil, errors.New("notifier: notification service is required")
	}
	return &Notifier{svc: svc, log: logger.WithModule("notifier")}, nil
}

// ClassCancelled tells a booked athlete their class was cancelled.
func (n *Notifier) ClassCancelled(ctx context.Context, userID string, schedule *models.Schedule, reason string) {
	message := fmt.Sprintf("%s has been cancelled.", describeSlot(schedule))
	if reason != "" {
		message = fmt.Sprintf("%s Reason: %s", message, reason)
	}
	n.dispatch(ctx, SendNotificationInput{
		UserID:   userID,
		Type:     models.NotificationClassCancelled,
		Title:    "Class cancelled",
		Message:  message,
		Priority: models.PriorityHigh,
		Channels: []string{ChannelInApp, ChannelEmail, ChannelPush},
		Data: map[string]any{
			"schedule_id": schedule.ID,
			"box_id":      schedule.BoxID,
			"reason":      reason,
		},
	})
}

// BookingConfirmed confirms a new reservation to the athlete.
func (n *Notifier) BookingConfirmed(ctx context.Context, userID string, schedule *models.Schedule) {
	n.dispatch(ctx, SendNotificationInput{
		UserID:  userID,
		Type:    models.NotificationBookingConfirmed,
		Title:   "Booking confirmed",
		Message: fmt.Sprintf("Your spot for %s is confirmed.", describeSlot(schedule)),
		Data: map[string]any{
			"schedule_id": schedule.ID,
			"box_id":      schedule.BoxID,
		},
	})
}

// ClassReminder nudges a booked athlete about tomorrow's class.
func (n *Notifier) ClassReminder(ctx context.Context, userID string, schedule *models.Schedule) {
	n.dispatch(ctx, SendNotificationInput{
		UserID:   userID,
		Type:     models.NotificationClassReminder24h,
		Title:    "Class reminder",
		Message:  fmt.Sprintf("Reminder: %s is coming up.", describeSlot(schedule)),
		Channels: []string{ChannelInApp, ChannelPush},
		Data: map[string]any{
			"schedule_id": schedule.ID,
			"box_id":      schedule.BoxID,
		},
	})
}

// InvitationReceived tells an existing user they were invited to a box.
func (n *Notifier) InvitationReceived(ctx context.Context, userID, boxName, invitationID string) {
	n.dispatch(ctx, SendNotificationInput{
		UserID:   userID,
		Type:     models.NotificationInvitationReceived,
		Title:    "Box invitation",
		Message:  fmt.Sprintf("You have been invited to join %s.", boxName),
		Priority: models.PriorityHigh,
		Channels: []string{ChannelInApp, ChannelEmail},
		Data: map[string]any{
			"invitation_id": invitationID,
		},
	})
}

// InvitationAccepted tells the box owner that an invited member joined.
func (n *Notifier) InvitationAccepted(ctx context.Context, ownerID, boxName, memberName string) {
	member := defaultIfEmpty(memberName, "A new member")
	n.dispatch(ctx, SendNotificationInput{
		UserID:  ownerID,
		Type:    models.NotificationInvitationAccepted,
		Title:   "Invitation accepted",
		Message: fmt.Sprintf("%s joined %s.", member, boxName),
	})
}

// MembershipStatusChanged tells a member their membership was toggled.
func (n *Notifier) MembershipStatusChanged(ctx context.Context, userID, boxName string, isActive bool) {
	state := "deactivated"
	if isActive {
		state = "reactivated"
	}
	n.dispatch(ctx, SendNotificationInput{
		UserID:   userID,
		Type:     models.NotificationMembershipChanged,
		Title:    "Membership updated",
		Message:  fmt.Sprintf("Your membership at %s has been %s.", boxName, state),
		Channels: []string{ChannelInApp, ChannelEmail},
		Data: map[string]any{
			"is_active": isActive,
		},
	})
}

func (n *Notifier) dispatch(ctx context.Context, input SendNotificationInput) {
	if _, err := n.svc.Send(ensureContext(ctx), input); err != nil {
		n.log.Warn("notification dispatch failed",
			zap.String("type", input.Type),
			zap.String("user_id", input.UserID),
			zap.Error(err))
	}
}

func describeSlot(schedule *models.Schedule) string {
	name := schedule.Name
	if name == "" && schedule.Discipline != nil {
		name = schedule.Discipline.Name
	}
	name = defaultIfEmpty(name, "Your class")
	return fmt.Sprintf("%s on %s at %s", name, schedule.Date, schedule.StartTime)
}
