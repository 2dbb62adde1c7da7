package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	"github.com/boxhub/boxhub/pkg/logger"
)

// ReminderService periodically reminds booked athletes about tomorrow's
// classes. Each (user, schedule) pair is reminded at most once, so the sweep
// can run as often as the cron expression fires.
type ReminderService struct {
	db       *gorm.DB
	notifier *Notifier
	cron     *cron.Cron
	spec     string
	log      *zap.Logger
	now      func() time.Time
}

// NewReminderService constructs a ReminderService with the given cron
// expression (e.g. "@hourly").
func NewReminderService(db *gorm.DB, notifier *Notifier, spec string) (*ReminderService, error) {
	if db == nil {
		return nil, errors.New("reminder service: db is required")
	}
	if notifier == nil {
		return nil, errors.New("reminder service: notifier is required")
	}
	return &ReminderService{
		db:       db,
		notifier: notifier,
		cron:     cron.New(),
		spec:     defaultIfEmpty(spec, "@hourly"),
		log:      logger.WithModule("reminders"),
		now:      time.Now,
	}, nil
}

// Start registers the sweep with the cron runner and kicks it off.
func (s *ReminderService) Start() error {
	_, err := s.cron.AddFunc(s.spec, func() {
		if err := s.RunOnce(context.Background()); err != nil {
			s.log.Warn("reminder sweep finished with errors", zap.Error(err))
		}
	})
	if err != nil {
		return fmt.Errorf("reminder service: schedule sweep: %w", err)
	}

	s.cron.Start()
	s.log.Info("reminder sweep scheduled", zap.String("spec", s.spec))
	return nil
}

// Stop halts the cron runner and waits for a running sweep to finish.
func (s *ReminderService) Stop() {
	<-s.cron.Stop().Done()
}

// RunOnce sweeps tomorrow's visible classes and reminds every confirmed
// booker who has not been reminded yet. Per-row failures are collected, not
// fatal.
func (s *ReminderService) RunOnce(ctx context.Context) error {
	ctx = ensureContext(ctx)
	tomorrow := formatDate(s.now().AddDate(0, 0, 1))

	var schedules []models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Discipline").
		Where("date = ? AND is_visible = ? AND is_cancelled = ?", tomorrow, true, false).
		Find(&schedules).Error
	if err != nil {
		return fmt.Errorf("reminder service: load schedules: %w", err)
	}

	var errs error
	reminded := 0
	for i := range schedules {
		schedule := &schedules[i]

		var bookings []models.Booking
		err := s.db.WithContext(ctx).
			Where("schedule_id = ? AND status = ?", schedule.ID, models.BookingConfirmed).
			Find(&bookings).Error
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("load bookings for %s: %w", schedule.ID, err))
			continue
		}

		for _, booking := range bookings {
			sent, err := s.alreadyReminded(ctx, booking.AthleteID, schedule.ID)
			if err != nil {
				errs = multierr.Append(errs, fmt.Errorf("check reminder for %s: %w", booking.AthleteID, err))
				continue
			}
			if sent {
				continue
			}
			s.notifier.ClassReminder(ctx, booking.AthleteID, schedule)
			reminded++
		}
	}

	if reminded > 0 {
		s.log.Info("reminder sweep complete",
			zap.String("date", tomorrow), zap.Int("reminded", reminded))
	}
	return errs
}

// alreadyReminded checks for an earlier reminder of the same class via the
// schedule_id stored in the notification payload.
func (s *ReminderService) alreadyReminded(ctx context.Context, userID, scheduleID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND type = ?", userID, models.NotificationClassReminder24h).
		Where(datatypes.JSONQuery("data").Equals(scheduleID, "schedule_id")).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
