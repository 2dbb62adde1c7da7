package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/metrics"
)

// BookingService manages class reservations.
type BookingService struct {
	db       *gorm.DB
	authz    *BoxAuthorizer
	notifier *Notifier
}

// NewBookingService constructs a BookingService. The notifier may be nil in
// tests.
func NewBookingService(db *gorm.DB, authz *BoxAuthorizer, notifier *Notifier) (*BookingService, error) {
	if db == nil {
		return nil, errors.New("booking service: db is required")
	}
	if authz == nil {
		return nil, errors.New("booking service: authorizer is required")
	}
	return &BookingService{db: db, authz: authz, notifier: notifier}, nil
}

// BookResult reports the outcome of a booking request. AlreadyBooked marks
// the idempotent case where the athlete held a confirmed spot all along.
type BookResult struct {
	Booking       *models.Booking `json:"booking"`
	AlreadyBooked bool            `json:"already_booked"`
}

// Book reserves a spot on a class. Booking twice is a no-op that returns the
// existing reservation.
func (s *BookingService) Book(ctx context.Context, userID, scheduleID string) (*BookResult, error) {
	ctx = ensureContext(ctx)

	var schedule models.Schedule
	err := s.db.WithContext(ctx).Where("id = ?", scheduleID).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			metrics.BookingAttempts.WithLabelValues("rejected").Inc()
			return nil, apperrors.ErrNotFound
		}
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("booking service: load schedule: %w", err)
	}

	if schedule.IsCancelled {
		metrics.BookingAttempts.WithLabelValues("rejected").Inc()
		return nil, ErrClassCancelled
	}

	membership, err := s.authz.ActiveMembership(ctx, userID, schedule.BoxID)
	if err != nil {
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, err
	}
	if membership == nil {
		metrics.BookingAttempts.WithLabelValues("rejected").Inc()
		return nil, ErrMembershipInactive
	}

	var existing models.Booking
	err = s.db.WithContext(ctx).
		Where("schedule_id = ? AND athlete_id = ? AND status = ?",
			scheduleID, userID, models.BookingConfirmed).
		First(&existing).Error
	if err == nil {
		metrics.BookingAttempts.WithLabelValues("duplicate").Inc()
		return &BookResult{Booking: &existing, AlreadyBooked: true}, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("booking service: lookup booking: %w", err)
	}

	capacity := schedule.MaxCapacity
	if capacity <= 0 {
		capacity = models.DefaultMaxCapacity
	}

	var confirmed int64
	if err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("schedule_id = ? AND status = ?", scheduleID, models.BookingConfirmed).
		Count(&confirmed).Error; err != nil {
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("booking service: count bookings: %w", err)
	}
	if confirmed >= int64(capacity) {
		metrics.BookingAttempts.WithLabelValues("full").Inc()
		return nil, ErrClassFull
	}

	booking := models.Booking{
		ScheduleID: scheduleID,
		AthleteID:  userID,
		Status:     models.BookingConfirmed,
	}
	if err := s.db.WithContext(ctx).Create(&booking).Error; err != nil {
		metrics.BookingAttempts.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("booking service: create booking: %w", err)
	}

	if s.notifier != nil {
		s.notifier.BookingConfirmed(ctx, userID, &schedule)
	}

	metrics.BookingAttempts.WithLabelValues("created").Inc()
	return &BookResult{Booking: &booking}, nil
}

// Unsubscribe releases the athlete's confirmed spot. The row is deleted
// outright so the spot opens up immediately.
func (s *BookingService) Unsubscribe(ctx context.Context, userID, scheduleID string) error {
	result := s.db.WithContext(ensureContext(ctx)).
		Where("schedule_id = ? AND athlete_id = ? AND status = ?",
			scheduleID, userID, models.BookingConfirmed).
		Delete(&models.Booking{})
	if result.Error != nil {
		return fmt.Errorf("booking service: delete booking: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListMine returns the athlete's confirmed bookings in class order.
func (s *BookingService) ListMine(ctx context.Context, userID string) ([]models.Booking, error) {
	var bookings []models.Booking
	err := s.db.WithContext(ensureContext(ctx)).
		Preload("Schedule").
		Preload("Schedule.Discipline").
		Joins("JOIN schedules ON schedules.id = bookings.schedule_id").
		Where("bookings.athlete_id = ? AND bookings.status = ?", userID, models.BookingConfirmed).
		Order("schedules.date, schedules.start_time").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("booking service: list bookings: %w", err)
	}
	return bookings, nil
}

// ListForSchedule returns every confirmed booking of a class with athlete
// profiles. Managers only.
func (s *BookingService) ListForSchedule(ctx context.Context, callerID, scheduleID string) ([]models.Booking, error) {
	ctx = ensureContext(ctx)

	var schedule models.Schedule
	err := s.db.WithContext(ctx).Where("id = ?", scheduleID).First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("booking service: load schedule: %w", err)
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	var bookings []models.Booking
	err = s.db.WithContext(ctx).
		Preload("Athlete").
		Where("schedule_id = ? AND status = ?", scheduleID, models.BookingConfirmed).
		Order("created_at").
		Find(&bookings).Error
	if err != nil {
		return nil, fmt.Errorf("booking service: list bookings: %w", err)
	}
	return bookings, nil
}
