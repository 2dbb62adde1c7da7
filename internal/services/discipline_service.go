package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// DisciplineService manages the class types a box offers.
type DisciplineService struct {
	db    *gorm.DB
	authz *BoxAuthorizer
}

// NewDisciplineService constructs a DisciplineService.
func NewDisciplineService(db *gorm.DB, authz *BoxAuthorizer) (*DisciplineService, error) {
	if db == nil {
		return nil, errors.New("discipline service: db is required")
	}
	if authz == nil {
		return nil, errors.New("discipline service: authorizer is required")
	}
	return &DisciplineService{db: db, authz: authz}, nil
}

// List returns a page of the box's disciplines ordered for display. Members
// only.
func (s *DisciplineService) List(ctx context.Context, callerID, boxID string, includeInactive bool, page, limit int) ([]models.Discipline, int64, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID); err != nil {
		return nil, 0, err
	}
	_, limit, offset := normalisePagination(page, limit)

	query := s.db.WithContext(ctx).Model(&models.Discipline{}).Where("box_id = ?", boxID)
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("discipline service: count: %w", err)
	}

	var disciplines []models.Discipline
	if err := query.Order("display_order, name").Offset(offset).Limit(limit).Find(&disciplines).Error; err != nil {
		return nil, 0, fmt.Errorf("discipline service: list: %w", err)
	}
	return disciplines, total, nil
}

// Get loads a single discipline.
func (s *DisciplineService) Get(ctx context.Context, disciplineID string) (*models.Discipline, error) {
	var discipline models.Discipline
	err := s.db.WithContext(ensureContext(ctx)).
		Where("id = ?", disciplineID).
		First(&discipline).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("discipline service: load: %w", err)
	}
	return &discipline, nil
}

// CreateDisciplineInput holds the fields for a new discipline.
type CreateDisciplineInput struct {
	BoxID           string
	Name            string
	Color           string
	Description     string
	DurationMinutes int
	DisplayOrder    int
}

// Create adds a discipline to a box. Managers only.
func (s *DisciplineService) Create(ctx context.Context, callerID string, input CreateDisciplineInput) (*models.Discipline, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, input.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	discipline := models.Discipline{
		BoxID:           input.BoxID,
		Name:            input.Name,
		Color:           input.Color,
		Description:     input.Description,
		DurationMinutes: input.DurationMinutes,
		DisplayOrder:    input.DisplayOrder,
		IsActive:        true,
	}
	if discipline.DurationMinutes <= 0 {
		discipline.DurationMinutes = 60
	}

	if err := s.db.WithContext(ctx).Create(&discipline).Error; err != nil {
		return nil, fmt.Errorf("discipline service: create: %w", err)
	}
	return &discipline, nil
}

// UpdateDisciplineInput holds the mutable discipline fields.
type UpdateDisciplineInput struct {
	Name            *string
	Color           *string
	Description     *string
	DurationMinutes *int
	DisplayOrder    *int
	IsActive        *bool
}

// Update applies partial changes to a discipline. Managers only.
func (s *DisciplineService) Update(ctx context.Context, callerID, disciplineID string, input UpdateDisciplineInput) (*models.Discipline, error) {
	ctx = ensureContext(ctx)

	discipline, err := s.Get(ctx, disciplineID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.RequireRole(ctx, callerID, discipline.BoxID, ManagerRoles...); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Color != nil {
		updates["color"] = *input.Color
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.DurationMinutes != nil {
		updates["duration_minutes"] = *input.DurationMinutes
	}
	if input.DisplayOrder != nil {
		updates["display_order"] = *input.DisplayOrder
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(discipline).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("discipline service: update: %w", err)
		}
	}
	return s.Get(ctx, disciplineID)
}

// Delete removes a discipline with no scheduled classes; one that is already
// referenced is deactivated instead so history keeps resolving.
func (s *DisciplineService) Delete(ctx context.Context, callerID, disciplineID string) error {
	ctx = ensureContext(ctx)

	discipline, err := s.Get(ctx, disciplineID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireRole(ctx, callerID, discipline.BoxID, ManagerRoles...); err != nil {
		return err
	}

	var scheduleCount int64
	if err := s.db.WithContext(ctx).Model(&models.Schedule{}).
		Where("discipline_id = ?", disciplineID).
		Count(&scheduleCount).Error; err != nil {
		return fmt.Errorf("discipline service: count schedules: %w", err)
	}

	if scheduleCount > 0 {
		if err := s.db.WithContext(ctx).Model(discipline).Update("is_active", false).Error; err != nil {
			return fmt.Errorf("discipline service: deactivate: %w", err)
		}
		return nil
	}

	if err := s.db.WithContext(ctx).Delete(&models.Discipline{}, "id = ?", disciplineID).Error; err != nil {
		return fmt.Errorf("discipline service: delete: %w", err)
	}
	return nil
}
