package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// ScheduleService manages the concrete class calendar of a box, including the
// draft/publish week workflow.
type ScheduleService struct {
	db       *gorm.DB
	authz    *BoxAuthorizer
	notifier *Notifier
}

// NewScheduleService constructs a ScheduleService. The notifier may be nil in
// tests.
func NewScheduleService(db *gorm.DB, authz *BoxAuthorizer, notifier *Notifier) (*ScheduleService, error) {
	if db == nil {
		return nil, errors.New("schedule service: db is required")
	}
	if authz == nil {
		return nil, errors.New("schedule service: authorizer is required")
	}
	return &ScheduleService{db: db, authz: authz, notifier: notifier}, nil
}

// ScheduleView decorates a schedule with booking statistics for the caller.
type ScheduleView struct {
	models.Schedule
	BookedCount    int  `json:"booked_count"`
	AvailableSpots int  `json:"available_spots"`
	IsBooked       bool `json:"is_booked"`
}

// CreateScheduleInput holds the fields for a new class slot. New slots always
// start as hidden drafts; publishing the week makes them visible.
type CreateScheduleInput struct {
	BoxID        string
	DisciplineID string
	TrainerID    *string
	Date         string
	StartTime    string
	EndTime      string
	Name         string
	Description  string
	MaxCapacity  int
}

// Create adds a single draft slot to the calendar. Managers only.
func (s *ScheduleService) Create(ctx context.Context, callerID string, input CreateScheduleInput) (*models.Schedule, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, input.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	schedule, err := s.buildSchedule(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(schedule).Error; err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBusiness("SCHEDULE_SLOT_TAKEN",
				"A class for this discipline already exists at that date and time")
		}
		return nil, fmt.Errorf("schedule service: create: %w", err)
	}
	return schedule, nil
}

// CreateBulk adds several draft slots at once, all within the same box, in a
// single transaction.
func (s *ScheduleService) CreateBulk(ctx context.Context, callerID, boxID string, inputs []CreateScheduleInput) ([]models.Schedule, error) {
	ctx = ensureContext(ctx)

	if len(inputs) == 0 {
		return nil, apperrors.NewBadRequest("at least one schedule is required")
	}
	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, err
	}

	schedules := make([]models.Schedule, 0, len(inputs))
	for _, input := range inputs {
		if input.BoxID != boxID {
			return nil, apperrors.NewBadRequest("all schedules must belong to the same box")
		}
		schedule, err := s.buildSchedule(ctx, input)
		if err != nil {
			return nil, err
		}
		schedules = append(schedules, *schedule)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range schedules {
			if err := tx.Create(&schedules[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if isUniqueConstraintError(err) {
			return nil, apperrors.NewBusiness("SCHEDULE_SLOT_TAKEN",
				"A class for this discipline already exists at that date and time")
		}
		return nil, fmt.Errorf("schedule service: bulk create: %w", err)
	}
	return schedules, nil
}

// ListByBox returns the box calendar for a date range, decorated with booking
// stats for the caller. Athletes only see visible slots; managers can ask for
// drafts too.
func (s *ScheduleService) ListByBox(ctx context.Context, callerID, boxID, from, to string, includeHidden bool) ([]ScheduleView, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID); err != nil {
		return nil, err
	}
	if includeHidden {
		if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
			return nil, err
		}
	}

	query := s.db.WithContext(ctx).
		Preload("Discipline").
		Preload("Trainer").
		Where("box_id = ?", boxID)
	if from != "" {
		query = query.Where("date >= ?", from)
	}
	if to != "" {
		query = query.Where("date <= ?", to)
	}
	if !includeHidden {
		query = query.Where("is_visible = ?", true)
	}

	var schedules []models.Schedule
	if err := query.Order("date, start_time").Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule service: list: %w", err)
	}

	return s.decorate(ctx, callerID, schedules)
}

// Get loads a single schedule with discipline, trainer, and booking stats.
func (s *ScheduleService) Get(ctx context.Context, callerID, scheduleID string) (*ScheduleView, error) {
	ctx = ensureContext(ctx)

	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID); err != nil {
		return nil, err
	}

	views, err := s.decorate(ctx, callerID, []models.Schedule{*schedule})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

// UpdateScheduleInput holds the mutable schedule fields.
type UpdateScheduleInput struct {
	TrainerID   *string
	Date        *string
	StartTime   *string
	EndTime     *string
	Name        *string
	Description *string
	MaxCapacity *int
	IsVisible   *bool
}

// Update applies partial changes to a slot. Managers only.
func (s *ScheduleService) Update(ctx context.Context, callerID, scheduleID string, input UpdateScheduleInput) (*models.Schedule, error) {
	ctx = ensureContext(ctx)

	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.TrainerID != nil {
		if *input.TrainerID == "" {
			updates["trainer_id"] = nil
		} else {
			updates["trainer_id"] = *input.TrainerID
		}
	}
	if input.Date != nil {
		if _, err := parseDate(*input.Date); err != nil {
			return nil, apperrors.NewBadRequest("date must be formatted YYYY-MM-DD")
		}
		updates["date"] = *input.Date
	}
	if input.StartTime != nil {
		updates["start_time"] = *input.StartTime
	}
	if input.EndTime != nil {
		updates["end_time"] = *input.EndTime
	}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.MaxCapacity != nil {
		if *input.MaxCapacity <= 0 {
			return nil, apperrors.NewBadRequest("max capacity must be positive")
		}
		updates["max_capacity"] = *input.MaxCapacity
	}
	if input.IsVisible != nil {
		updates["is_visible"] = *input.IsVisible
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(schedule).Updates(updates).Error; err != nil {
			if isUniqueConstraintError(err) {
				return nil, apperrors.NewBusiness("SCHEDULE_SLOT_TAKEN",
					"A class for this discipline already exists at that date and time")
			}
			return nil, fmt.Errorf("schedule service: update: %w", err)
		}
	}
	return s.load(ctx, scheduleID)
}

// Cancel marks the slot cancelled, hides it, and notifies every confirmed
// booker. The bookings themselves are kept for the record.
func (s *ScheduleService) Cancel(ctx context.Context, callerID, scheduleID, reason string) (*models.Schedule, error) {
	ctx = ensureContext(ctx)

	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}
	if schedule.IsCancelled {
		return schedule, nil
	}

	if err := s.db.WithContext(ctx).Model(schedule).Updates(map[string]any{
		"is_cancelled":        true,
		"cancellation_reason": reason,
		"is_visible":          false,
	}).Error; err != nil {
		return nil, fmt.Errorf("schedule service: cancel: %w", err)
	}

	if s.notifier != nil {
		var bookings []models.Booking
		err := s.db.WithContext(ctx).
			Where("schedule_id = ? AND status = ?", scheduleID, models.BookingConfirmed).
			Find(&bookings).Error
		if err != nil {
			return nil, fmt.Errorf("schedule service: load bookings: %w", err)
		}
		for _, booking := range bookings {
			s.notifier.ClassCancelled(ctx, booking.AthleteID, schedule, reason)
		}
	}

	return s.load(ctx, scheduleID)
}

// Reactivate undoes a cancellation. The slot returns as a hidden draft so the
// manager can re-publish deliberately.
func (s *ScheduleService) Reactivate(ctx context.Context, callerID, scheduleID string) (*models.Schedule, error) {
	ctx = ensureContext(ctx)

	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Model(schedule).Updates(map[string]any{
		"is_cancelled":        false,
		"cancellation_reason": "",
	}).Error; err != nil {
		return nil, fmt.Errorf("schedule service: reactivate: %w", err)
	}
	return s.load(ctx, scheduleID)
}

// Delete removes a slot outright; its bookings cascade away with it.
func (s *ScheduleService) Delete(ctx context.Context, callerID, scheduleID string) error {
	ctx = ensureContext(ctx)

	schedule, err := s.load(ctx, scheduleID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id = ?", scheduleID).Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("schedule service: delete bookings: %w", err)
		}
		if err := tx.Delete(&models.Schedule{}, "id = ?", scheduleID).Error; err != nil {
			return fmt.Errorf("schedule service: delete schedule: %w", err)
		}
		return nil
	})
}

// CancelMany cancels a batch of slots in one go, hiding each and notifying
// its confirmed bookers. Already-cancelled slots are skipped. Returns how many
// slots changed state.
func (s *ScheduleService) CancelMany(ctx context.Context, callerID string, scheduleIDs []string, reason string) (int64, error) {
	ctx = ensureContext(ctx)

	schedules, err := s.loadBatch(ctx, callerID, scheduleIDs)
	if err != nil {
		return 0, err
	}

	targets := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		if !schedule.IsCancelled {
			targets = append(targets, schedule.ID)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("id IN ?", targets).
		Updates(map[string]any{
			"is_cancelled":        true,
			"cancellation_reason": reason,
			"is_visible":          false,
		})
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: cancel batch: %w", result.Error)
	}

	if s.notifier != nil {
		var bookings []models.Booking
		err := s.db.WithContext(ctx).
			Where("schedule_id IN ? AND status = ?", targets, models.BookingConfirmed).
			Find(&bookings).Error
		if err != nil {
			return 0, fmt.Errorf("schedule service: load bookings: %w", err)
		}
		byID := make(map[string]*models.Schedule, len(schedules))
		for i := range schedules {
			byID[schedules[i].ID] = &schedules[i]
		}
		for _, booking := range bookings {
			s.notifier.ClassCancelled(ctx, booking.AthleteID, byID[booking.ScheduleID], reason)
		}
	}

	return result.RowsAffected, nil
}

// ReactivateMany undoes the cancellation of a batch of slots. They come back
// as hidden drafts.
func (s *ScheduleService) ReactivateMany(ctx context.Context, callerID string, scheduleIDs []string) (int64, error) {
	ctx = ensureContext(ctx)

	schedules, err := s.loadBatch(ctx, callerID, scheduleIDs)
	if err != nil {
		return 0, err
	}

	targets := make([]string, 0, len(schedules))
	for _, schedule := range schedules {
		if schedule.IsCancelled {
			targets = append(targets, schedule.ID)
		}
	}
	if len(targets) == 0 {
		return 0, nil
	}

	result := s.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("id IN ?", targets).
		Updates(map[string]any{
			"is_cancelled":        false,
			"cancellation_reason": "",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: reactivate batch: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// DeleteMany removes a batch of slots and their bookings.
func (s *ScheduleService) DeleteMany(ctx context.Context, callerID string, scheduleIDs []string) (int64, error) {
	ctx = ensureContext(ctx)

	schedules, err := s.loadBatch(ctx, callerID, scheduleIDs)
	if err != nil {
		return 0, err
	}
	if len(schedules) == 0 {
		return 0, nil
	}

	ids := make([]string, len(schedules))
	for i, schedule := range schedules {
		ids[i] = schedule.ID
	}

	var deleted int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("schedule_id IN ?", ids).Delete(&models.Booking{}).Error; err != nil {
			return fmt.Errorf("schedule service: delete bookings: %w", err)
		}
		result := tx.Where("id IN ?", ids).Delete(&models.Schedule{})
		if result.Error != nil {
			return fmt.Errorf("schedule service: delete schedules: %w", result.Error)
		}
		deleted = result.RowsAffected
		return nil
	})
	if err != nil {
		return 0, err
	}
	return deleted, nil
}

// loadBatch fetches the requested slots and checks the caller manages every
// box they belong to.
func (s *ScheduleService) loadBatch(ctx context.Context, callerID string, scheduleIDs []string) ([]models.Schedule, error) {
	ids := uniqueStrings(scheduleIDs)
	if len(ids) == 0 {
		return nil, apperrors.NewBadRequest("at least one schedule id is required")
	}

	var schedules []models.Schedule
	if err := s.db.WithContext(ctx).Where("id IN ?", ids).Find(&schedules).Error; err != nil {
		return nil, fmt.Errorf("schedule service: load batch: %w", err)
	}

	checked := make(map[string]struct{})
	for _, schedule := range schedules {
		if _, done := checked[schedule.BoxID]; done {
			continue
		}
		if err := s.authz.RequireRole(ctx, callerID, schedule.BoxID, ManagerRoles...); err != nil {
			return nil, err
		}
		checked[schedule.BoxID] = struct{}{}
	}
	return schedules, nil
}

// PublishWeek flips every hidden, non-cancelled slot of the week starting at
// monday to visible and reports how many slots changed.
func (s *ScheduleService) PublishWeek(ctx context.Context, callerID, boxID, monday string) (int64, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return 0, err
	}
	if _, err := mondayOf(monday); err != nil {
		if errors.Is(err, ErrNotMonday) {
			return 0, ErrNotMonday
		}
		return 0, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}
	sunday, err := addDays(monday, 6)
	if err != nil {
		return 0, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}

	result := s.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("box_id = ? AND date BETWEEN ? AND ?", boxID, monday, sunday).
		Where("is_visible = ? AND is_cancelled = ?", false, false).
		Update("is_visible", true)
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: publish week: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// CopyWeek duplicates the week starting at monday onto the following week as
// hidden drafts. Slots already occupying a target position are skipped.
func (s *ScheduleService) CopyWeek(ctx context.Context, callerID, boxID, monday string) (int64, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return 0, err
	}
	if _, err := mondayOf(monday); err != nil {
		if errors.Is(err, ErrNotMonday) {
			return 0, ErrNotMonday
		}
		return 0, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}
	sunday, err := addDays(monday, 6)
	if err != nil {
		return 0, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}

	var sources []models.Schedule
	if err := s.db.WithContext(ctx).
		Where("box_id = ? AND date BETWEEN ? AND ?", boxID, monday, sunday).
		Where("is_cancelled = ?", false).
		Find(&sources).Error; err != nil {
		return 0, fmt.Errorf("schedule service: load source week: %w", err)
	}
	if len(sources) == 0 {
		return 0, nil
	}

	copies := make([]models.Schedule, 0, len(sources))
	for _, src := range sources {
		target, err := addDays(src.Date, 7)
		if err != nil {
			return 0, fmt.Errorf("schedule service: shift date: %w", err)
		}
		copies = append(copies, models.Schedule{
			BoxID:        src.BoxID,
			DisciplineID: src.DisciplineID,
			TrainerID:    src.TrainerID,
			Date:         target,
			StartTime:    src.StartTime,
			EndTime:      src.EndTime,
			Name:         src.Name,
			Description:  src.Description,
			MaxCapacity:  src.MaxCapacity,
			IsVisible:    false,
		})
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&copies)
	if result.Error != nil {
		return 0, fmt.Errorf("schedule service: copy week: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func (s *ScheduleService) buildSchedule(ctx context.Context, input CreateScheduleInput) (*models.Schedule, error) {
	if _, err := parseDate(input.Date); err != nil {
		return nil, apperrors.NewBadRequest("date must be formatted YYYY-MM-DD")
	}

	var discipline models.Discipline
	err := s.db.WithContext(ctx).
		Where("id = ? AND box_id = ?", input.DisciplineID, input.BoxID).
		First(&discipline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewBadRequest("discipline does not belong to this box")
		}
		return nil, fmt.Errorf("schedule service: load discipline: %w", err)
	}

	capacity := input.MaxCapacity
	if capacity <= 0 {
		capacity = models.DefaultMaxCapacity
	}

	return &models.Schedule{
		BoxID:        input.BoxID,
		DisciplineID: input.DisciplineID,
		TrainerID:    input.TrainerID,
		Date:         input.Date,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		Name:         defaultIfEmpty(input.Name, discipline.Name),
		Description:  input.Description,
		MaxCapacity:  capacity,
		IsVisible:    false,
	}, nil
}

func (s *ScheduleService) load(ctx context.Context, scheduleID string) (*models.Schedule, error) {
	var schedule models.Schedule
	err := s.db.WithContext(ctx).
		Preload("Discipline").
		Preload("Trainer").
		Where("id = ?", scheduleID).
		First(&schedule).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("schedule service: load schedule: %w", err)
	}
	return &schedule, nil
}

// decorate attaches booking statistics to each schedule with two grouped
// queries instead of one pair per row.
func (s *ScheduleService) decorate(ctx context.Context, callerID string, schedules []models.Schedule) ([]ScheduleView, error) {
	if len(schedules) == 0 {
		return []ScheduleView{}, nil
	}

	ids := make([]string, len(schedules))
	for i, schedule := range schedules {
		ids[i] = schedule.ID
	}

	type bookingCount struct {
		ScheduleID string
		Count      int
	}
	var counts []bookingCount
	err := s.db.WithContext(ctx).Model(&models.Booking{}).
		Select("schedule_id, COUNT(*) AS count").
		Where("schedule_id IN ? AND status = ?", ids, models.BookingConfirmed).
		Group("schedule_id").
		Scan(&counts).Error
	if err != nil {
		return nil, fmt.Errorf("schedule service: count bookings: %w", err)
	}
	countByID := make(map[string]int, len(counts))
	for _, c := range counts {
		countByID[c.ScheduleID] = c.Count
	}

	var mine []string
	err = s.db.WithContext(ctx).Model(&models.Booking{}).
		Where("schedule_id IN ? AND athlete_id = ? AND status = ?", ids, callerID, models.BookingConfirmed).
		Pluck("schedule_id", &mine).Error
	if err != nil {
		return nil, fmt.Errorf("schedule service: load own bookings: %w", err)
	}
	mineSet := make(map[string]struct{}, len(mine))
	for _, id := range mine {
		mineSet[id] = struct{}{}
	}

	views := make([]ScheduleView, len(schedules))
	for i, schedule := range schedules {
		booked := countByID[schedule.ID]
		capacity := schedule.MaxCapacity
		if capacity <= 0 {
			capacity = models.DefaultMaxCapacity
		}
		available := capacity - booked
		if available < 0 {
			available = 0
		}
		_, isBooked := mineSet[schedule.ID]
		views[i] = ScheduleView{
			Schedule:       schedule,
			BookedCount:    booked,
			AvailableSpots: available,
			IsBooked:       isBooked,
		}
	}
	return views, nil
}
