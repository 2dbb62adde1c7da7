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

// TemplateService manages reusable week templates and their application to
// concrete calendar weeks.
type TemplateService struct {
	db    *gorm.DB
	authz *BoxAuthorizer
}

// NewTemplateService constructs a TemplateService.
func NewTemplateService(db *gorm.DB, authz *BoxAuthorizer) (*TemplateService, error) {
	if db == nil {
		return nil, errors.New("template service: db is required")
	}
	if authz == nil {
		return nil, errors.New("template service: authorizer is required")
	}
	return &TemplateService{db: db, authz: authz}, nil
}

// List returns the box's templates page by page. Managers only.
func (s *TemplateService) List(ctx context.Context, callerID, boxID string, page, limit int) ([]models.WeekTemplate, int64, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, 0, err
	}

	_, limit, offset := normalisePagination(page, limit)

	query := s.db.WithContext(ctx).Model(&models.WeekTemplate{}).Where("box_id = ?", boxID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("template service: count templates: %w", err)
	}

	var templates []models.WeekTemplate
	err := query.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("day_of_week, start_time")
	}).Preload("Items.Discipline").
		Order("name").
		Offset(offset).Limit(limit).
		Find(&templates).Error
	if err != nil {
		return nil, 0, fmt.Errorf("template service: list templates: %w", err)
	}
	return templates, total, nil
}

// Get loads a template with its items in week order. Managers only.
func (s *TemplateService) Get(ctx context.Context, callerID, templateID string) (*models.WeekTemplate, error) {
	ctx = ensureContext(ctx)

	template, err := s.load(ctx, templateID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, template.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}
	return template, nil
}

// CreateTemplateInput holds the fields for a new template, optionally with
// initial items.
type CreateTemplateInput struct {
	BoxID       string
	Name        string
	Description string
	Items       []TemplateItemInput
}

// TemplateItemInput describes one template slot.
type TemplateItemInput struct {
	DisciplineID string
	TrainerID    *string
	DayOfWeek    int
	StartTime    string
	EndTime      string
	MaxCapacity  int
	Name         string
	Description  string
}

// Create stores a template with its items in one transaction. Managers only.
func (s *TemplateService) Create(ctx context.Context, callerID string, input CreateTemplateInput) (*models.WeekTemplate, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, input.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	template := models.WeekTemplate{
		BoxID:       input.BoxID,
		Name:        input.Name,
		Description: input.Description,
		IsActive:    true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		for _, itemInput := range input.Items {
			item, err := s.buildItem(tx, template.ID, input.BoxID, itemInput)
			if err != nil {
				return err
			}
			if err := tx.Create(item).Error; err != nil {
				return fmt.Errorf("create item: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("template service: create: %w", err)
	}
	return s.load(ctx, template.ID)
}

// UpdateTemplateInput holds the mutable template header fields.
type UpdateTemplateInput struct {
	Name        *string
	Description *string
	IsActive    *bool
}

// Update applies partial changes to the template header. Managers only.
func (s *TemplateService) Update(ctx context.Context, callerID, templateID string, input UpdateTemplateInput) (*models.WeekTemplate, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, callerID, templateID)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(template).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("template service: update: %w", err)
		}
	}
	return s.load(ctx, templateID)
}

// Delete removes a template and its items.
func (s *TemplateService) Delete(ctx context.Context, callerID, templateID string) error {
	ctx = ensureContext(ctx)

	if _, err := s.Get(ctx, callerID, templateID); err != nil {
		return err
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("template_id = ?", templateID).Delete(&models.WeekTemplateItem{}).Error; err != nil {
			return fmt.Errorf("template service: delete items: %w", err)
		}
		if err := tx.Delete(&models.WeekTemplate{}, "id = ?", templateID).Error; err != nil {
			return fmt.Errorf("template service: delete template: %w", err)
		}
		return nil
	})
}

// AddItem appends a slot to the template. Managers only.
func (s *TemplateService) AddItem(ctx context.Context, callerID, templateID string, input TemplateItemInput) (*models.WeekTemplateItem, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, callerID, templateID)
	if err != nil {
		return nil, err
	}

	item, err := s.buildItem(s.db.WithContext(ctx), templateID, template.BoxID, input)
	if err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, fmt.Errorf("template service: create item: %w", err)
	}
	return item, nil
}

// RemoveItem deletes a single template slot. Managers only.
func (s *TemplateService) RemoveItem(ctx context.Context, callerID, itemID string) error {
	ctx = ensureContext(ctx)

	var item models.WeekTemplateItem
	err := s.db.WithContext(ctx).Where("id = ?", itemID).First(&item).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("template service: load item: %w", err)
	}

	if _, err := s.Get(ctx, callerID, item.TemplateID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(&models.WeekTemplateItem{}, "id = ?", itemID).Error; err != nil {
		return fmt.Errorf("template service: delete item: %w", err)
	}
	return nil
}

// ImportFromWeek builds a new template from the concrete schedules of the
// week starting at monday, all in one transaction.
func (s *TemplateService) ImportFromWeek(ctx context.Context, callerID, boxID, monday, name string) (*models.WeekTemplate, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, err
	}
	if _, err := mondayOf(monday); err != nil {
		if errors.Is(err, ErrNotMonday) {
			return nil, ErrNotMonday
		}
		return nil, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}
	sunday, err := addDays(monday, 6)
	if err != nil {
		return nil, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}

	var sources []models.Schedule
	if err := s.db.WithContext(ctx).
		Where("box_id = ? AND date BETWEEN ? AND ?", boxID, monday, sunday).
		Where("is_cancelled = ?", false).
		Order("date, start_time").
		Find(&sources).Error; err != nil {
		return nil, fmt.Errorf("template service: load week: %w", err)
	}
	if len(sources) == 0 {
		return nil, ErrEmptyWeek
	}

	template := models.WeekTemplate{
		BoxID:       boxID,
		Name:        defaultIfEmpty(name, "Week of "+monday),
		Description: "Imported from week starting " + monday,
		IsActive:    true,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&template).Error; err != nil {
			return fmt.Errorf("create template: %w", err)
		}
		for _, src := range sources {
			date, err := parseDate(src.Date)
			if err != nil {
				return fmt.Errorf("parse schedule date: %w", err)
			}
			item := models.WeekTemplateItem{
				TemplateID:   template.ID,
				DisciplineID: src.DisciplineID,
				TrainerID:    src.TrainerID,
				DayOfWeek:    isoWeekday(date),
				StartTime:    src.StartTime,
				EndTime:      src.EndTime,
				MaxCapacity:  src.MaxCapacity,
				Name:         src.Name,
				Description:  src.Description,
			}
			if err := tx.Create(&item).Error; err != nil {
				return fmt.Errorf("create item: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("template service: import week: %w", txErr)
	}
	return s.load(ctx, template.ID)
}

// ApplyResult reports how an application went.
type ApplyResult struct {
	Created int64 `json:"created"`
	Skipped int   `json:"skipped"`
}

// Apply materialises the template onto the week starting at monday as hidden
// drafts. Slots that already exist at a target position are silently skipped,
// so applying the same template twice is safe.
func (s *TemplateService) Apply(ctx context.Context, callerID, templateID, monday string) (*ApplyResult, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, callerID, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := mondayOf(monday); err != nil {
		if errors.Is(err, ErrNotMonday) {
			return nil, ErrNotMonday
		}
		return nil, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}

	schedules, err := s.materialise(template, monday)
	if err != nil {
		return nil, err
	}
	if len(schedules) == 0 {
		return &ApplyResult{}, nil
	}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&schedules)
	if result.Error != nil {
		return nil, fmt.Errorf("template service: apply: %w", result.Error)
	}
	return &ApplyResult{
		Created: result.RowsAffected,
		Skipped: len(schedules) - int(result.RowsAffected),
	}, nil
}

// CheckConflicts reports which template slots already have a schedule at
// their target position in the week starting at monday.
func (s *TemplateService) CheckConflicts(ctx context.Context, callerID, templateID, monday string) ([]models.Schedule, error) {
	ctx = ensureContext(ctx)

	template, err := s.Get(ctx, callerID, templateID)
	if err != nil {
		return nil, err
	}
	if _, err := mondayOf(monday); err != nil {
		if errors.Is(err, ErrNotMonday) {
			return nil, ErrNotMonday
		}
		return nil, apperrors.NewBadRequest("week start must be formatted YYYY-MM-DD")
	}

	conflicts := []models.Schedule{}
	for _, item := range template.Items {
		date, err := addDays(monday, item.DayOfWeek-1)
		if err != nil {
			return nil, fmt.Errorf("template service: shift date: %w", err)
		}
		var existing models.Schedule
		err = s.db.WithContext(ctx).
			Where("box_id = ? AND discipline_id = ? AND date = ? AND start_time = ?",
				template.BoxID, item.DisciplineID, date, item.StartTime).
			First(&existing).Error
		if err == nil {
			conflicts = append(conflicts, existing)
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("template service: check conflict: %w", err)
		}
	}
	return conflicts, nil
}

func (s *TemplateService) materialise(template *models.WeekTemplate, monday string) ([]models.Schedule, error) {
	schedules := make([]models.Schedule, 0, len(template.Items))
	for _, item := range template.Items {
		if item.DayOfWeek < 1 || item.DayOfWeek > 7 {
			return nil, apperrors.NewBadRequest("day of week must be between 1 and 7")
		}
		date, err := addDays(monday, item.DayOfWeek-1)
		if err != nil {
			return nil, fmt.Errorf("template service: shift date: %w", err)
		}
		capacity := item.MaxCapacity
		if capacity <= 0 {
			capacity = models.DefaultMaxCapacity
		}
		schedules = append(schedules, models.Schedule{
			BoxID:        template.BoxID,
			DisciplineID: item.DisciplineID,
			TrainerID:    item.TrainerID,
			Date:         date,
			StartTime:    item.StartTime,
			EndTime:      item.EndTime,
			Name:         item.Name,
			Description:  item.Description,
			MaxCapacity:  capacity,
			IsVisible:    false,
		})
	}
	return schedules, nil
}

func (s *TemplateService) buildItem(tx *gorm.DB, templateID, boxID string, input TemplateItemInput) (*models.WeekTemplateItem, error) {
	if input.DayOfWeek < 1 || input.DayOfWeek > 7 {
		return nil, apperrors.NewBadRequest("day of week must be between 1 and 7")
	}

	var discipline models.Discipline
	err := tx.Where("id = ? AND box_id = ?", input.DisciplineID, boxID).First(&discipline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewBadRequest("discipline does not belong to this box")
		}
		return nil, fmt.Errorf("load discipline: %w", err)
	}

	capacity := input.MaxCapacity
	if capacity <= 0 {
		capacity = models.DefaultMaxCapacity
	}

	return &models.WeekTemplateItem{
		TemplateID:   templateID,
		DisciplineID: input.DisciplineID,
		TrainerID:    input.TrainerID,
		DayOfWeek:    input.DayOfWeek,
		StartTime:    input.StartTime,
		EndTime:      input.EndTime,
		MaxCapacity:  capacity,
		Name:         defaultIfEmpty(input.Name, discipline.Name),
		Description:  input.Description,
	}, nil
}

func (s *TemplateService) load(ctx context.Context, templateID string) (*models.WeekTemplate, error) {
	var template models.WeekTemplate
	err := s.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("day_of_week, start_time")
		}).
		Preload("Items.Discipline").
		Where("id = ?", templateID).
		First(&template).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("template service: load template: %w", err)
	}
	return &template, nil
}
