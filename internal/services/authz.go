package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

// ManagerRoles are the membership roles allowed to manage box content
// (schedules, disciplines, templates, invitations).
var ManagerRoles = []string{models.RoleOwner, models.RoleTrainer}

// BoxAuthorizer answers role questions about a user's membership in a box. It
// replaces ad-hoc scanning of membership lists with a single queryable check.
type BoxAuthorizer struct {
	db *gorm.DB
}

// NewBoxAuthorizer constructs a BoxAuthorizer.
func NewBoxAuthorizer(db *gorm.DB) (*BoxAuthorizer, error) {
	if db == nil {
		return nil, errors.New("authorizer: db is required")
	}
	return &BoxAuthorizer{db: db}, nil
}

// RequireRole returns ErrForbidden unless the user holds an active membership
// in the box with one of the required roles.
func (a *BoxAuthorizer) RequireRole(ctx context.Context, userID, boxID string, roles ...string) error {
	if userID == "" || boxID == "" {
		return apperrors.ErrForbidden
	}

	var count int64
	query := a.db.WithContext(ensureContext(ctx)).
		Model(&models.BoxMembership{}).
		Where("user_id = ? AND box_id = ? AND is_active = ?", userID, boxID, true)
	if len(roles) > 0 {
		query = query.Where("role IN ?", roles)
	}
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("authorizer: membership lookup: %w", err)
	}

	if count == 0 {
		return apperrors.ErrForbidden
	}
	return nil
}

// ActiveMembership returns the user's active membership for the box, or nil
// when none exists.
func (a *BoxAuthorizer) ActiveMembership(ctx context.Context, userID, boxID string) (*models.BoxMembership, error) {
	var membership models.BoxMembership
	err := a.db.WithContext(ensureContext(ctx)).
		Where("user_id = ? AND box_id = ? AND is_active = ?", userID, boxID, true).
		First(&membership).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("authorizer: membership lookup: %w", err)
	}
	return &membership, nil
}
