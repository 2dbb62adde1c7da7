package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/auth"
	"github.com/boxhub/boxhub/internal/database/testutil"
	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func newAuthService(t *testing.T) (*AuthService, *identity.LocalProvider) {
	t.Helper()

	db := testutil.MustOpenTestDB(t)
	provider, err := identity.NewLocalProvider(db)
	require.NoError(t, err)
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "boxhub"})
	require.NoError(t, err)
	svc, err := NewAuthService(db, provider, jwtService)
	require.NoError(t, err)
	return svc, provider
}

func TestRegisterOwnerCreatesBoxAndMembership(t *testing.T) {
	svc, _ := newAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "owner@example.com",
		Password: "password123",
		FullName: "Olive Owner",
		Role:     models.RoleOwner,
		BoxName:  "Iron Temple",
	})
	require.NoError(t, err)

	require.NotEmpty(t, result.Token)
	require.Equal(t, "Olive Owner", result.Profile.FullName)
	require.NotNil(t, result.Profile.ActiveBoxID)
	require.Len(t, result.Profile.Memberships, 1)
	require.Equal(t, models.RoleOwner, result.Profile.Memberships[0].Role)
	require.NotNil(t, result.Profile.Memberships[0].Box)
	require.Equal(t, "Iron Temple", result.Profile.Memberships[0].Box.Name)
}

func TestRegisterAthleteWithoutBox(t *testing.T) {
	svc, _ := newAuthService(t)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "athlete@example.com",
		Password: "password123",
		FullName: "Ada Athlete",
	})
	require.NoError(t, err)

	require.Nil(t, result.Profile.ActiveBoxID)
	require.Empty(t, result.Profile.Memberships)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	input := RegisterInput{
		Email:    "dup@example.com",
		Password: "password123",
		FullName: "First",
	}
	_, err := svc.Register(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), input)
	require.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterCompensatesOnLocalFailure(t *testing.T) {
	svc, provider := newAuthService(t)

	// The referenced box does not exist, so the local transaction fails
	// after the account was provisioned upstream.
	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "doomed@example.com",
		Password: "password123",
		FullName: "Doomed",
		Role:     models.RoleAthlete,
		BoxID:    "00000000-0000-0000-0000-000000000000",
	})
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = provider.FindByEmail(context.Background(), "doomed@example.com")
	require.ErrorIs(t, err, identity.ErrAccountNotFound, "the email stays reusable")
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "login@example.com",
		Password: "password123",
		FullName: "Login User",
	})
	require.NoError(t, err)

	result, err := svc.Login(context.Background(), "login@example.com", "password123")
	require.NoError(t, err)
	require.NotEmpty(t, result.Token)
	require.Equal(t, "Login User", result.Profile.FullName)

	_, err = svc.Login(context.Background(), "login@example.com", "wrong-password")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	require.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
}

func TestLoginTokenIdentifiesUser(t *testing.T) {
	db := testutil.MustOpenTestDB(t)
	provider, err := identity.NewLocalProvider(db)
	require.NoError(t, err)
	jwtService, err := auth.NewJWTService(auth.JWTConfig{Secret: "test-secret", Issuer: "boxhub"})
	require.NoError(t, err)
	svc, err := NewAuthService(db, provider, jwtService)
	require.NoError(t, err)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "claims@example.com",
		Password: "password123",
		FullName: "Claims User",
	})
	require.NoError(t, err)

	claims, err := jwtService.ValidateAccessToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, result.Profile.ID, claims.UserID)
	require.Equal(t, "claims@example.com", claims.Email)
}
