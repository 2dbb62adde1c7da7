package services

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func newNotificationService(t *testing.T, f *fixture) *NotificationService {
	t.Helper()

	svc, err := NewNotificationService(f.db, nil, nil, f.provider)
	require.NoError(t, err)
	return svc
}

func TestSendDefaultsToInApp(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID: f.athlete.ID,
		Type:   models.NotificationBookingConfirmed,
		Title:  "Booking confirmed",
	})
	require.NoError(t, err)

	var channels []string
	require.NoError(t, json.Unmarshal(notification.Channels, &channels))
	require.Equal(t, []string{ChannelInApp}, channels)
	require.Equal(t, models.DeliverySent, notification.DeliveryStatus)
	require.NotNil(t, notification.DeliveredAt)
	require.Equal(t, models.PriorityNormal, notification.Priority)
}

func TestSendFiltersGloballyDisabledChannels(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	off := false
	_, err := svc.UpdatePreferences(context.Background(), f.athlete.ID, UpdatePreferencesInput{
		EmailEnabled: &off,
	})
	require.NoError(t, err)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:   f.athlete.ID,
		Type:     models.NotificationClassCancelled,
		Title:    "Class cancelled",
		Channels: []string{ChannelInApp, ChannelEmail, ChannelPush},
	})
	require.NoError(t, err)

	var channels []string
	require.NoError(t, json.Unmarshal(notification.Channels, &channels))
	require.Equal(t, []string{ChannelInApp, ChannelPush}, channels)
}

func TestSendHonoursPerTypeMatrix(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	_, err := svc.UpdatePreferences(context.Background(), f.athlete.ID, UpdatePreferencesInput{
		Preferences: map[string]map[string]bool{
			models.NotificationClassReminder24h: {ChannelInApp: true, ChannelPush: false},
		},
	})
	require.NoError(t, err)

	reminder, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:   f.athlete.ID,
		Type:     models.NotificationClassReminder24h,
		Title:    "Class reminder",
		Channels: []string{ChannelInApp, ChannelPush},
	})
	require.NoError(t, err)

	var channels []string
	require.NoError(t, json.Unmarshal(reminder.Channels, &channels))
	require.Equal(t, []string{ChannelInApp}, channels)

	// The matrix is per type; types without a row keep the channel.
	other, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:   f.athlete.ID,
		Type:     models.NotificationInvitationReceived,
		Title:    "Invitation",
		Channels: []string{ChannelPush},
	})
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(other.Channels, &channels))
	require.Equal(t, []string{ChannelPush}, channels)
}

func TestSendMatrixRowDisablesUnlistedChannels(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	// A row that only lists email leaves push off for that type.
	_, err := svc.UpdatePreferences(context.Background(), f.athlete.ID, UpdatePreferencesInput{
		Preferences: map[string]map[string]bool{
			models.NotificationClassCancelled: {ChannelEmail: true},
		},
	})
	require.NoError(t, err)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:   f.athlete.ID,
		Type:     models.NotificationClassCancelled,
		Title:    "Class cancelled",
		Channels: []string{ChannelEmail, ChannelPush},
	})
	require.NoError(t, err)

	var channels []string
	require.NoError(t, json.Unmarshal(notification.Channels, &channels))
	require.Equal(t, []string{ChannelEmail}, channels)
}

func TestSendFallsBackToInAppWhenEverythingIsOff(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	off := false
	_, err := svc.UpdatePreferences(context.Background(), f.athlete.ID, UpdatePreferencesInput{
		EmailEnabled: &off,
		PushEnabled:  &off,
		InAppEnabled: &off,
	})
	require.NoError(t, err)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID:   f.athlete.ID,
		Type:     models.NotificationClassCancelled,
		Title:    "Class cancelled",
		Channels: []string{ChannelInApp, ChannelEmail, ChannelPush},
	})
	require.NoError(t, err)

	var channels []string
	require.NoError(t, json.Unmarshal(notification.Channels, &channels))
	require.Equal(t, []string{ChannelInApp}, channels, "the in-app feed is the floor")
}

func TestMarkReadScopedToOwner(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	notification, err := svc.Send(context.Background(), SendNotificationInput{
		UserID: f.athlete.ID,
		Type:   models.NotificationBookingConfirmed,
		Title:  "Booking confirmed",
	})
	require.NoError(t, err)

	err = svc.MarkRead(context.Background(), f.owner.ID, notification.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), f.athlete.ID, notification.ID))

	unread, err := svc.ListUnread(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestMarkAllRead(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	for i := 0; i < 3; i++ {
		_, err := svc.Send(context.Background(), SendNotificationInput{
			UserID: f.athlete.ID,
			Type:   models.NotificationBookingConfirmed,
			Title:  "Booking confirmed",
		})
		require.NoError(t, err)
	}

	updated, err := svc.MarkAllRead(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, updated)

	unread, err := svc.ListUnread(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.Empty(t, unread)
}

func TestListAllPaginates(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	for i := 0; i < 5; i++ {
		_, err := svc.Send(context.Background(), SendNotificationInput{
			UserID: f.athlete.ID,
			Type:   models.NotificationBookingConfirmed,
			Title:  "Booking confirmed",
		})
		require.NoError(t, err)
	}

	items, total, err := svc.ListAll(context.Background(), f.athlete.ID, 1, 2)
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.EqualValues(t, 5, total)

	items, _, err = svc.ListAll(context.Background(), f.athlete.ID, 3, 2)
	require.NoError(t, err)
	require.Len(t, items, 1)
}

func TestGetOrCreatePreferencesDefaults(t *testing.T) {
	f := newFixture(t)
	svc := newNotificationService(t, f)

	prefs, err := svc.GetOrCreatePreferences(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.True(t, prefs.EmailEnabled)
	require.True(t, prefs.PushEnabled)
	require.True(t, prefs.InAppEnabled)

	matrix := decodePreferenceMatrix(prefs.Preferences)
	require.False(t, matrix[models.NotificationBookingConfirmed][ChannelPush])
	require.False(t, matrix[models.NotificationClassReminder24h][ChannelInApp])
	require.True(t, matrix[models.NotificationClassCancelled][ChannelEmail])

	again, err := svc.GetOrCreatePreferences(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.Equal(t, prefs.ID, again.ID)
}
