package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func TestCreateScheduleDefaults(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule, err := svc.Create(context.Background(), f.owner.ID, CreateScheduleInput{
		BoxID:        f.box.ID,
		DisciplineID: f.discipline.ID,
		Date:         "2026-09-07",
		StartTime:    "18:00",
		EndTime:      "19:00",
	})
	require.NoError(t, err)

	require.False(t, schedule.IsVisible, "new slots start as drafts")
	require.Equal(t, models.DefaultMaxCapacity, schedule.MaxCapacity)
	require.Equal(t, "WOD", schedule.Name, "falls back to the discipline name")
}

func TestCreateScheduleRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), f.athlete.ID, CreateScheduleInput{
		BoxID:        f.box.ID,
		DisciplineID: f.discipline.ID,
		Date:         "2026-09-07",
		StartTime:    "18:00",
		EndTime:      "19:00",
	})
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestCancelNotifiesConfirmedBookers(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, f.newNotifier(t))
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")

	athletes := []models.Profile{f.athlete}
	for _, email := range []string{"b1@box.test", "b2@box.test"} {
		member := f.createUser(t, email, "Booker")
		f.addMembership(t, member.ID, models.RoleAthlete)
		athletes = append(athletes, member)
	}
	for _, athlete := range athletes {
		require.NoError(t, f.db.Create(&models.Booking{
			ScheduleID: schedule.ID,
			AthleteID:  athlete.ID,
			Status:     models.BookingConfirmed,
		}).Error)
	}

	cancelled, err := svc.Cancel(context.Background(), f.owner.ID, schedule.ID, "trainer is ill")
	require.NoError(t, err)

	require.True(t, cancelled.IsCancelled)
	require.False(t, cancelled.IsVisible)
	require.Equal(t, "trainer is ill", cancelled.CancellationReason)

	for _, athlete := range athletes {
		items := f.notificationsFor(t, athlete.ID)
		require.Len(t, items, 1)
		require.Equal(t, models.NotificationClassCancelled, items[0].Type)
		require.Contains(t, items[0].Message, "trainer is ill")
	}

	// Bookings survive the cancellation.
	var count int64
	require.NoError(t, f.db.Model(&models.Booking{}).
		Where("schedule_id = ?", schedule.ID).Count(&count).Error)
	require.EqualValues(t, len(athletes), count)
}

func TestCancelTwiceIsANoOp(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, f.newNotifier(t))
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")
	require.NoError(t, f.db.Create(&models.Booking{
		ScheduleID: schedule.ID,
		AthleteID:  f.athlete.ID,
		Status:     models.BookingConfirmed,
	}).Error)

	_, err = svc.Cancel(context.Background(), f.owner.ID, schedule.ID, "first")
	require.NoError(t, err)
	_, err = svc.Cancel(context.Background(), f.owner.ID, schedule.ID, "second")
	require.NoError(t, err)

	require.Len(t, f.notificationsFor(t, f.athlete.ID), 1)
}

func TestPublishWeek(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	// 2026-09-07 is a Monday.
	inWeek := f.createSchedule(t, "2026-09-09", "18:00", func(s *models.Schedule) {
		s.IsVisible = false
	})
	cancelled := f.createSchedule(t, "2026-09-10", "18:00", func(s *models.Schedule) {
		s.IsVisible = false
		s.IsCancelled = true
	})
	nextWeek := f.createSchedule(t, "2026-09-14", "18:00", func(s *models.Schedule) {
		s.IsVisible = false
	})

	published, err := svc.PublishWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 1, published)

	var reloaded models.Schedule
	require.NoError(t, f.db.First(&reloaded, "id = ?", inWeek.ID).Error)
	require.True(t, reloaded.IsVisible)

	require.NoError(t, f.db.First(&reloaded, "id = ?", cancelled.ID).Error)
	require.False(t, reloaded.IsVisible, "cancelled slots stay hidden")

	require.NoError(t, f.db.First(&reloaded, "id = ?", nextWeek.ID).Error)
	require.False(t, reloaded.IsVisible, "slots outside the week stay hidden")
}

func TestPublishWeekRejectsNonMonday(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	_, err = svc.PublishWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-08")
	require.ErrorIs(t, err, ErrNotMonday)
}

func TestCopyWeekCreatesHiddenDrafts(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	f.createSchedule(t, "2026-09-07", "18:00")
	f.createSchedule(t, "2026-09-09", "09:00")
	f.createSchedule(t, "2026-09-08", "18:00", func(s *models.Schedule) {
		s.IsCancelled = true
	})

	copied, err := svc.CopyWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 2, copied, "cancelled slots are not copied")

	var drafts []models.Schedule
	require.NoError(t, f.db.
		Where("box_id = ? AND date BETWEEN ? AND ?", f.box.ID, "2026-09-14", "2026-09-20").
		Order("date").
		Find(&drafts).Error)
	require.Len(t, drafts, 2)
	require.Equal(t, "2026-09-14", drafts[0].Date)
	require.Equal(t, "2026-09-16", drafts[1].Date)
	for _, draft := range drafts {
		require.False(t, draft.IsVisible)
		require.False(t, draft.IsCancelled)
	}
}

func TestCopyWeekSkipsExistingSlots(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	f.createSchedule(t, "2026-09-07", "18:00")
	// The target slot already exists.
	f.createSchedule(t, "2026-09-14", "18:00")

	copied, err := svc.CopyWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 0, copied)

	var count int64
	require.NoError(t, f.db.Model(&models.Schedule{}).
		Where("date = ?", "2026-09-14").Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestListByBoxHidesDraftsFromAthletes(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	visible := f.createSchedule(t, "2026-09-07", "18:00")
	f.createSchedule(t, "2026-09-07", "19:00", func(s *models.Schedule) {
		s.IsVisible = false
	})

	views, err := svc.ListByBox(context.Background(), f.athlete.ID, f.box.ID, "2026-09-07", "2026-09-13", false)
	require.NoError(t, err)
	require.Len(t, views, 1)
	require.Equal(t, visible.ID, views[0].ID)

	_, err = svc.ListByBox(context.Background(), f.athlete.ID, f.box.ID, "", "", true)
	require.ErrorIs(t, err, apperrors.ErrForbidden, "athletes cannot request drafts")

	all, err := svc.ListByBox(context.Background(), f.owner.ID, f.box.ID, "", "", true)
	require.NoError(t, err)
	require.Len(t, all, 2)
}

func TestScheduleViewBookingStats(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00", func(s *models.Schedule) {
		s.MaxCapacity = 10
	})
	require.NoError(t, f.db.Create(&models.Booking{
		ScheduleID: schedule.ID,
		AthleteID:  f.athlete.ID,
		Status:     models.BookingConfirmed,
	}).Error)

	view, err := svc.Get(context.Background(), f.athlete.ID, schedule.ID)
	require.NoError(t, err)
	require.Equal(t, 1, view.BookedCount)
	require.Equal(t, 9, view.AvailableSpots)
	require.True(t, view.IsBooked)

	ownerView, err := svc.Get(context.Background(), f.owner.ID, schedule.ID)
	require.NoError(t, err)
	require.False(t, ownerView.IsBooked)
}

func TestCancelManyNotifiesAndSkipsCancelled(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, f.newNotifier(t))
	require.NoError(t, err)

	first := f.createSchedule(t, "2026-09-07", "18:00")
	second := f.createSchedule(t, "2026-09-08", "18:00")
	already := f.createSchedule(t, "2026-09-09", "18:00", func(s *models.Schedule) {
		s.IsCancelled = true
	})

	require.NoError(t, f.db.Create(&models.Booking{
		ScheduleID: first.ID,
		AthleteID:  f.athlete.ID,
		Status:     models.BookingConfirmed,
	}).Error)

	cancelled, err := svc.CancelMany(context.Background(), f.owner.ID,
		[]string{first.ID, second.ID, already.ID}, "power outage")
	require.NoError(t, err)
	require.EqualValues(t, 2, cancelled)

	var reloaded models.Schedule
	require.NoError(t, f.db.First(&reloaded, "id = ?", first.ID).Error)
	require.True(t, reloaded.IsCancelled)
	require.False(t, reloaded.IsVisible)
	require.Equal(t, "power outage", reloaded.CancellationReason)

	items := f.notificationsFor(t, f.athlete.ID)
	require.Len(t, items, 1)
	require.Equal(t, models.NotificationClassCancelled, items[0].Type)
}

func TestCancelManyRequiresManagerRole(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")

	_, err = svc.CancelMany(context.Background(), f.athlete.ID, []string{schedule.ID}, "nope")
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestReactivateManyRestoresCancelledOnly(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	cancelled := f.createSchedule(t, "2026-09-07", "18:00", func(s *models.Schedule) {
		s.IsCancelled = true
		s.CancellationReason = "rain"
		s.IsVisible = false
	})
	active := f.createSchedule(t, "2026-09-08", "18:00")

	restored, err := svc.ReactivateMany(context.Background(), f.owner.ID,
		[]string{cancelled.ID, active.ID})
	require.NoError(t, err)
	require.EqualValues(t, 1, restored)

	var reloaded models.Schedule
	require.NoError(t, f.db.First(&reloaded, "id = ?", cancelled.ID).Error)
	require.False(t, reloaded.IsCancelled)
	require.Empty(t, reloaded.CancellationReason)
	require.False(t, reloaded.IsVisible, "reactivated slots come back as drafts")
}

func TestDeleteManyRemovesSchedulesAndBookings(t *testing.T) {
	f := newFixture(t)
	svc, err := NewScheduleService(f.db, f.authz, nil)
	require.NoError(t, err)

	first := f.createSchedule(t, "2026-09-07", "18:00")
	second := f.createSchedule(t, "2026-09-08", "18:00")

	require.NoError(t, f.db.Create(&models.Booking{
		ScheduleID: first.ID,
		AthleteID:  f.athlete.ID,
		Status:     models.BookingConfirmed,
	}).Error)

	deleted, err := svc.DeleteMany(context.Background(), f.owner.ID,
		[]string{first.ID, second.ID})
	require.NoError(t, err)
	require.EqualValues(t, 2, deleted)

	var schedules int64
	require.NoError(t, f.db.Model(&models.Schedule{}).Count(&schedules).Error)
	require.Zero(t, schedules)

	var bookings int64
	require.NoError(t, f.db.Model(&models.Booking{}).Count(&bookings).Error)
	require.Zero(t, bookings)
}
