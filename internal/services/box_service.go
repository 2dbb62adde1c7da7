package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// BoxService manages the tenant gyms.
type BoxService struct {
	db    *gorm.DB
	authz *BoxAuthorizer
}

// NewBoxService constructs a BoxService.
func NewBoxService(db *gorm.DB, authz *BoxAuthorizer) (*BoxService, error) {
	if db == nil {
		return nil, errors.New("box service: db is required")
	}
	if authz == nil {
		return nil, errors.New("box service: authorizer is required")
	}
	return &BoxService{db: db, authz: authz}, nil
}

// CreateBoxInput holds the fields for opening a new box.
type CreateBoxInput struct {
	Name    string
	Address string
	Phone   string
	Email   string
	Website string
}

// Create opens a box with the caller as its owner.
func (s *BoxService) Create(ctx context.Context, ownerID string, input CreateBoxInput) (*models.Box, error) {
	ctx = ensureContext(ctx)

	box := models.Box{
		Name:     input.Name,
		OwnerID:  ownerID,
		Address:  input.Address,
		Phone:    input.Phone,
		Email:    input.Email,
		Website:  input.Website,
		IsActive: true,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&box).Error; err != nil {
			return fmt.Errorf("create box: %w", err)
		}
		membership := models.BoxMembership{
			BoxID:    box.ID,
			UserID:   ownerID,
			Role:     models.RoleOwner,
			IsActive: true,
			JoinedAt: time.Now().UTC(),
		}
		if err := tx.Create(&membership).Error; err != nil {
			return fmt.Errorf("create owner membership: %w", err)
		}
		// First box becomes the active one.
		if err := tx.Model(&models.Profile{}).
			Where("id = ? AND active_box_id IS NULL", ownerID).
			Update("active_box_id", box.ID).Error; err != nil {
			return fmt.Errorf("set active box: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("box service: create: %w", err)
	}
	return &box, nil
}

// Get loads a single box with its active disciplines.
func (s *BoxService) Get(ctx context.Context, boxID string) (*models.Box, error) {
	var box models.Box
	err := s.db.WithContext(ensureContext(ctx)).
		Preload("Disciplines", "is_active = ?", true).
		Where("id = ?", boxID).
		First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("box service: load box: %w", err)
	}
	return &box, nil
}

// ListMine returns every active box the user has an active membership in.
func (s *BoxService) ListMine(ctx context.Context, userID string) ([]models.Box, error) {
	var boxes []models.Box
	err := s.db.WithContext(ensureContext(ctx)).
		Joins("JOIN box_memberships ON box_memberships.box_id = boxes.id").
		Where("box_memberships.user_id = ? AND box_memberships.is_active = ?", userID, true).
		Where("boxes.is_active = ?", true).
		Order("boxes.name").
		Find(&boxes).Error
	if err != nil {
		return nil, fmt.Errorf("box service: list boxes: %w", err)
	}
	return boxes, nil
}

// UpdateBoxInput holds the partial box fields an owner may change.
type UpdateBoxInput struct {
	Name    *string
	Address *string
	Phone   *string
	Email   *string
	Website *string
}

// Update applies partial changes to a box. Owner only.
func (s *BoxService) Update(ctx context.Context, callerID, boxID string, input UpdateBoxInput) (*models.Box, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, models.RoleOwner); err != nil {
		return nil, err
	}

	updates := make(map[string]any)
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Website != nil {
		updates["website"] = *input.Website
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Box{}).
			Where("id = ?", boxID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("box service: update box: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperrors.ErrNotFound
		}
	}

	return s.Get(ctx, boxID)
}

// Deactivate hides the box from listings and blocks new activity. Historical
// schedules and bookings stay queryable, so the row is kept.
func (s *BoxService) Deactivate(ctx context.Context, callerID, boxID string) error {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, models.RoleOwner); err != nil {
		return err
	}

	result := s.db.WithContext(ctx).Model(&models.Box{}).
		Where("id = ?", boxID).
		Update("is_active", false)
	if result.Error != nil {
		return fmt.Errorf("box service: deactivate box: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
