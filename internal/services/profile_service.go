package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// ProfileService manages the local profile mirror of identity accounts.
type ProfileService struct {
	db    *gorm.DB
	authz *BoxAuthorizer
}

// NewProfileService constructs a ProfileService.
func NewProfileService(db *gorm.DB, authz *BoxAuthorizer) (*ProfileService, error) {
	if db == nil {
		return nil, errors.New("profile service: db is required")
	}
	if authz == nil {
		return nil, errors.New("profile service: authorizer is required")
	}
	return &ProfileService{db: db, authz: authz}, nil
}

// Get loads a profile with its active memberships.
func (s *ProfileService) Get(ctx context.Context, userID string) (*models.Profile, error) {
	var profile models.Profile
	err := s.db.WithContext(ensureContext(ctx)).
		Preload("Memberships", "is_active = ?", true).
		Preload("Memberships.Box").
		Where("id = ?", userID).
		First(&profile).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("profile service: load profile: %w", err)
	}
	return &profile, nil
}

// UpdateProfileInput holds the profile fields a user may change. Nil pointers
// leave the current value untouched.
type UpdateProfileInput struct {
	FullName         *string
	AvatarURL        *string
	Phone            *string
	EmergencyContact *string
	BirthDate        *string
	ActiveBoxID      *string
}

// Update applies partial profile changes. Switching the active box requires
// an active membership in the target box.
func (s *ProfileService) Update(ctx context.Context, userID string, input UpdateProfileInput) (*models.Profile, error) {
	ctx = ensureContext(ctx)

	updates := make(map[string]any)
	if input.FullName != nil {
		updates["full_name"] = *input.FullName
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = *input.AvatarURL
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.EmergencyContact != nil {
		updates["emergency_contact"] = *input.EmergencyContact
	}
	if input.BirthDate != nil {
		updates["birth_date"] = *input.BirthDate
	}
	if input.ActiveBoxID != nil {
		if *input.ActiveBoxID == "" {
			updates["active_box_id"] = nil
		} else {
			if err := s.authz.RequireRole(ctx, userID, *input.ActiveBoxID); err != nil {
				return nil, err
			}
			updates["active_box_id"] = *input.ActiveBoxID
		}
	}

	if len(updates) > 0 {
		result := s.db.WithContext(ctx).Model(&models.Profile{}).
			Where("id = ?", userID).
			Updates(updates)
		if result.Error != nil {
			return nil, fmt.Errorf("profile service: update profile: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return nil, apperrors.ErrNotFound
		}
	}

	return s.Get(ctx, userID)
}
