package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func TestBookIsIdempotent(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")

	first, err := svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.NoError(t, err)
	require.False(t, first.AlreadyBooked)

	second, err := svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.NoError(t, err)
	require.True(t, second.AlreadyBooked)
	require.Equal(t, first.Booking.ID, second.Booking.ID)

	var count int64
	require.NoError(t, f.db.Model(&models.Booking{}).
		Where("schedule_id = ?", schedule.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestBookRejectsWhenFull(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00", func(s *models.Schedule) {
		s.MaxCapacity = 2
	})

	for i := 0; i < 2; i++ {
		member := f.createUser(t, fmt.Sprintf("member%d@box.test", i), "Member")
		f.addMembership(t, member.ID, models.RoleAthlete)
		_, err := svc.Book(context.Background(), member.ID, schedule.ID)
		require.NoError(t, err)
	}

	_, err = svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.ErrorIs(t, err, ErrClassFull)
}

func TestBookRejectsCancelledClass(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00", func(s *models.Schedule) {
		s.IsCancelled = true
	})

	_, err = svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.ErrorIs(t, err, ErrClassCancelled)
}

func TestBookRequiresActiveMembership(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")
	outsider := f.createUser(t, "outsider@box.test", "Oscar Outsider")

	_, err = svc.Book(context.Background(), outsider.ID, schedule.ID)
	require.ErrorIs(t, err, ErrMembershipInactive)

	require.NoError(t, f.db.Model(&models.BoxMembership{}).
		Where("box_id = ? AND user_id = ?", f.box.ID, f.athlete.ID).
		Update("is_active", false).Error)

	_, err = svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.ErrorIs(t, err, ErrMembershipInactive)
}

func TestUnsubscribeFreesTheSpot(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00", func(s *models.Schedule) {
		s.MaxCapacity = 1
	})

	_, err = svc.Book(context.Background(), f.athlete.ID, schedule.ID)
	require.NoError(t, err)

	other := f.createUser(t, "other@box.test", "Other")
	f.addMembership(t, other.ID, models.RoleAthlete)
	_, err = svc.Book(context.Background(), other.ID, schedule.ID)
	require.ErrorIs(t, err, ErrClassFull)

	require.NoError(t, svc.Unsubscribe(context.Background(), f.athlete.ID, schedule.ID))

	result, err := svc.Book(context.Background(), other.ID, schedule.ID)
	require.NoError(t, err)
	require.False(t, result.AlreadyBooked)
}

func TestUnsubscribeWithoutBooking(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	schedule := f.createSchedule(t, "2026-09-07", "18:00")

	err = svc.Unsubscribe(context.Background(), f.athlete.ID, schedule.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListMineOrdersByClassTime(t *testing.T) {
	f := newFixture(t)
	svc, err := NewBookingService(f.db, f.authz, nil)
	require.NoError(t, err)

	later := f.createSchedule(t, "2026-09-08", "18:00")
	earlier := f.createSchedule(t, "2026-09-07", "09:00")

	_, err = svc.Book(context.Background(), f.athlete.ID, later.ID)
	require.NoError(t, err)
	_, err = svc.Book(context.Background(), f.athlete.ID, earlier.ID)
	require.NoError(t, err)

	bookings, err := svc.ListMine(context.Background(), f.athlete.ID)
	require.NoError(t, err)
	require.Len(t, bookings, 2)
	require.Equal(t, earlier.ID, bookings[0].ScheduleID)
	require.Equal(t, later.ID, bookings[1].ScheduleID)
	require.NotNil(t, bookings[0].Schedule)
}
