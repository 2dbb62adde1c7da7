package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// MembershipService manages the role-scoped links between users and boxes.
type MembershipService struct {
	db       *gorm.DB
	authz    *BoxAuthorizer
	notifier *Notifier
}

// NewMembershipService constructs a MembershipService. The notifier may be
// nil in tests.
func NewMembershipService(db *gorm.DB, authz *BoxAuthorizer, notifier *Notifier) (*MembershipService, error) {
	if db == nil {
		return nil, errors.New("membership service: db is required")
	}
	if authz == nil {
		return nil, errors.New("membership service: authorizer is required")
	}
	return &MembershipService{db: db, authz: authz, notifier: notifier}, nil
}

// ListForUser returns the user's memberships with their boxes.
func (s *MembershipService) ListForUser(ctx context.Context, userID string) ([]models.BoxMembership, error) {
	var memberships []models.BoxMembership
	err := s.db.WithContext(ensureContext(ctx)).
		Preload("Box").
		Where("user_id = ?", userID).
		Order("joined_at").
		Find(&memberships).Error
	if err != nil {
		return nil, fmt.Errorf("membership service: list for user: %w", err)
	}
	return memberships, nil
}

// ListForBox returns the box member roster page by page. Managers only.
func (s *MembershipService) ListForBox(ctx context.Context, callerID, boxID string, page, limit int) ([]models.BoxMembership, int64, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, 0, err
	}

	_, limit, offset := normalisePagination(page, limit)

	query := s.db.WithContext(ctx).Model(&models.BoxMembership{}).Where("box_id = ?", boxID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("membership service: count members: %w", err)
	}

	var memberships []models.BoxMembership
	err := query.Preload("Profile").
		Order("joined_at").
		Offset(offset).Limit(limit).
		Find(&memberships).Error
	if err != nil {
		return nil, 0, fmt.Errorf("membership service: list members: %w", err)
	}
	return memberships, total, nil
}

// UpdateMembershipInput holds the mutable membership fields.
type UpdateMembershipInput struct {
	Role     *string
	IsActive *bool
}

// Update changes a member's role or active flag. Owner only, and the owner's
// own membership is immutable so a box can never lose its last owner.
func (s *MembershipService) Update(ctx context.Context, callerID, membershipID string, input UpdateMembershipInput) (*models.BoxMembership, error) {
	ctx = ensureContext(ctx)

	membership, err := s.load(ctx, membershipID)
	if err != nil {
		return nil, err
	}

	if err := s.authz.RequireRole(ctx, callerID, membership.BoxID, models.RoleOwner); err != nil {
		return nil, err
	}
	if membership.Box != nil && membership.UserID == membership.Box.OwnerID {
		return nil, apperrors.ErrForbidden
	}

	updates := make(map[string]any)
	if input.Role != nil {
		switch *input.Role {
		case models.RoleTrainer, models.RoleAthlete:
			updates["role"] = *input.Role
		default:
			return nil, apperrors.NewBadRequest("role must be trainer or athlete")
		}
	}
	statusChanged := input.IsActive != nil && *input.IsActive != membership.IsActive
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}

	if len(updates) > 0 {
		if err := s.db.WithContext(ctx).Model(membership).Updates(updates).Error; err != nil {
			return nil, fmt.Errorf("membership service: update membership: %w", err)
		}
	}

	if statusChanged && s.notifier != nil {
		boxName := ""
		if membership.Box != nil {
			boxName = membership.Box.Name
		}
		s.notifier.MembershipStatusChanged(ctx, membership.UserID, boxName, *input.IsActive)
	}

	return s.load(ctx, membershipID)
}

// Remove deletes a membership outright. Owner only; the owner's own
// membership cannot be removed.
func (s *MembershipService) Remove(ctx context.Context, callerID, membershipID string) error {
	ctx = ensureContext(ctx)

	membership, err := s.load(ctx, membershipID)
	if err != nil {
		return err
	}

	if err := s.authz.RequireRole(ctx, callerID, membership.BoxID, models.RoleOwner); err != nil {
		return err
	}
	if membership.Box != nil && membership.UserID == membership.Box.OwnerID {
		return apperrors.ErrForbidden
	}

	if err := s.db.WithContext(ctx).Delete(&models.BoxMembership{}, "id = ?", membershipID).Error; err != nil {
		return fmt.Errorf("membership service: delete membership: %w", err)
	}
	return nil
}

func (s *MembershipService) load(ctx context.Context, membershipID string) (*models.BoxMembership, error) {
	var membership models.BoxMembership
	err := s.db.WithContext(ctx).
		Preload("Box").
		Where("id = ?", membershipID).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("membership service: load membership: %w", err)
	}
	return &membership, nil
}
