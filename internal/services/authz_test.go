package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func TestRequireRole(t *testing.T) {
	f := newFixture(t)

	err := f.authz.RequireRole(context.Background(), f.owner.ID, f.box.ID, models.RoleOwner)
	require.NoError(t, err)

	err = f.authz.RequireRole(context.Background(), f.athlete.ID, f.box.ID, ManagerRoles...)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	// Any-role check passes for plain members.
	err = f.authz.RequireRole(context.Background(), f.athlete.ID, f.box.ID)
	require.NoError(t, err)

	outsider := f.createUser(t, "outsider@box.test", "Outsider")
	err = f.authz.RequireRole(context.Background(), outsider.ID, f.box.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestRequireRoleIgnoresInactiveMemberships(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.db.Model(&models.BoxMembership{}).
		Where("box_id = ? AND user_id = ?", f.box.ID, f.athlete.ID).
		Update("is_active", false).Error)

	err := f.authz.RequireRole(context.Background(), f.athlete.ID, f.box.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	membership, err := f.authz.ActiveMembership(context.Background(), f.athlete.ID, f.box.ID)
	require.NoError(t, err)
	require.Nil(t, membership)
}
