package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/auth"
	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/logger"
	"github.com/boxhub/boxhub/pkg/metrics"
)

// AuthService handles registration and login. Accounts live in the identity
// provider; profiles, boxes and memberships live locally, so registration has
// to compensate when the local half fails.
type AuthService struct {
	db       *gorm.DB
	provider identity.Provider
	jwt      *auth.JWTService
	log      *zap.Logger
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, provider identity.Provider, jwtService *auth.JWTService) (*AuthService, error) {
	if db == nil {
		return nil, errors.New("auth service: db is required")
	}
	if provider == nil {
		return nil, errors.New("auth service: identity provider is required")
	}
	if jwtService == nil {
		return nil, errors.New("auth service: jwt service is required")
	}
	return &AuthService{
		db:       db,
		provider: provider,
		jwt:      jwtService,
		log:      logger.WithModule("auth"),
	}, nil
}

// RegisterInput captures a signup request. Role decides the onboarding shape:
// owners get a box created for them, athletes may join an existing one.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
	Role     string
	BoxName  string
	BoxID    string
}

// AuthResult bundles the issued token with the authenticated profile.
type AuthResult struct {
	Token   string          `json:"token"`
	Profile *models.Profile `json:"profile"`
}

// Register provisions the account upstream, then creates the profile and the
// role-dependent box/membership rows in one transaction. If the local
// transaction fails, the upstream account is deleted again so the email stays
// reusable.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	role := defaultIfEmpty(input.Role, models.RoleAthlete)
	if role != models.RoleOwner && role != models.RoleAthlete {
		return nil, apperrors.NewBadRequest("role must be owner or athlete")
	}

	accountID, err := s.provider.CreateAccount(ctx, input.Email, input.Password)
	if err != nil {
		if errors.Is(err, identity.ErrEmailTaken) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("auth service: create account: %w", err)
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := models.Profile{
			ID:       accountID,
			FullName: input.FullName,
		}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}

		switch role {
		case models.RoleOwner:
			box := models.Box{
				Name:    defaultIfEmpty(input.BoxName, input.FullName+"'s Box"),
				OwnerID: accountID,
			}
			if err := tx.Create(&box).Error; err != nil {
				return fmt.Errorf("create box: %w", err)
			}
			membership := models.BoxMembership{
				BoxID:    box.ID,
				UserID:   accountID,
				Role:     models.RoleOwner,
				IsActive: true,
				JoinedAt: time.Now().UTC(),
			}
			if err := tx.Create(&membership).Error; err != nil {
				return fmt.Errorf("create membership: %w", err)
			}
			if err := tx.Model(&profile).Update("active_box_id", box.ID).Error; err != nil {
				return fmt.Errorf("set active box: %w", err)
			}

		case models.RoleAthlete:
			if input.BoxID == "" {
				return nil
			}
			var box models.Box
			if err := tx.Where("id = ? AND is_active = ?", input.BoxID, true).First(&box).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return apperrors.ErrNotFound
				}
				return fmt.Errorf("load box: %w", err)
			}
			membership := models.BoxMembership{
				BoxID:    box.ID,
				UserID:   accountID,
				Role:     models.RoleAthlete,
				IsActive: true,
				JoinedAt: time.Now().UTC(),
			}
			if err := tx.Create(&membership).Error; err != nil {
				return fmt.Errorf("create membership: %w", err)
			}
			if err := tx.Model(&profile).Update("active_box_id", box.ID).Error; err != nil {
				return fmt.Errorf("set active box: %w", err)
			}
		}
		return nil
	})
	if txErr != nil {
		if err := s.provider.DeleteAccount(ctx, accountID); err != nil {
			s.log.Error("registration compensation failed, account orphaned",
				zap.String("account_id", accountID), zap.Error(err))
		}
		var appErr *apperrors.AppError
		if errors.As(txErr, &appErr) {
			return nil, appErr
		}
		return nil, fmt.Errorf("auth service: register: %w", txErr)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.issue(ctx, accountID, input.Email)
}

// Login verifies credentials against the provider and issues an access token.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	ctx = ensureContext(ctx)

	account, err := s.provider.VerifyCredentials(ctx, email, password)
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if errors.Is(err, identity.ErrAccountNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("auth service: verify credentials: %w", err)
	}

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.issue(ctx, account.ID, account.Email)
}

// Me returns the caller's profile with memberships preloaded.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.Profile, error) {
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
		return nil, fmt.Errorf("auth service: load profile: %w", err)
	}
	return &profile, nil
}

func (s *AuthService) issue(ctx context.Context, userID, email string) (*AuthResult, error) {
	token, err := s.jwt.GenerateAccessToken(auth.AccessTokenInput{UserID: userID, Email: email})
	if err != nil {
		return nil, fmt.Errorf("auth service: issue token: %w", err)
	}

	profile, err := s.Me(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Profile: profile}, nil
}
