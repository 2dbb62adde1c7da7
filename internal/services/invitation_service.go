package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/models"
	"github.com/boxhub/boxhub/pkg/crypto"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
	"github.com/boxhub/boxhub/pkg/logger"
	"github.com/boxhub/boxhub/pkg/mail"
)

// Invitation flow paths.
const (
	InvitePathNewAccount   = "new_account"
	InvitePathExistingUser = "existing_user"
)

// InvitationService onboards users into boxes. Inviting an unknown email
// provisions an account up front and mails a setup link; inviting a known one
// just notifies the user in-app.
type InvitationService struct {
	db           *gorm.DB
	authz        *BoxAuthorizer
	provider     identity.Provider
	mailer       mail.Mailer
	notifier     *Notifier
	frontendBase string
	log          *zap.Logger
}

// NewInvitationService constructs an InvitationService. Mailer and notifier
// may be nil in tests.
func NewInvitationService(db *gorm.DB, authz *BoxAuthorizer, provider identity.Provider, mailer mail.Mailer, notifier *Notifier, frontendBase string) (*InvitationService, error) {
	if db == nil {
		return nil, errors.New("invitation service: db is required")
	}
	if authz == nil {
		return nil, errors.New("invitation service: authorizer is required")
	}
	if provider == nil {
		return nil, errors.New("invitation service: identity provider is required")
	}
	return &InvitationService{
		db:           db,
		authz:        authz,
		provider:     provider,
		mailer:       mailer,
		notifier:     notifier,
		frontendBase: strings.TrimRight(frontendBase, "/"),
		log:          logger.WithModule("invitations"),
	}, nil
}

// InviteResult reports the created invitation and which path it took.
type InviteResult struct {
	Invitation *models.Invitation `json:"invitation"`
	Path       string             `json:"path"`
}

// Create invites an email address into a box. Managers only.
func (s *InvitationService) Create(ctx context.Context, callerID, boxID, email string) (*InviteResult, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, err
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, apperrors.NewBadRequest("email is required")
	}

	var box models.Box
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", boxID, true).First(&box).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("invitation service: load box: %w", err)
	}

	account, err := s.provider.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, identity.ErrAccountNotFound) {
		return nil, fmt.Errorf("invitation service: lookup account: %w", err)
	}

	if account != nil {
		membership, err := s.authz.ActiveMembership(ctx, account.ID, boxID)
		if err != nil {
			return nil, err
		}
		if membership != nil {
			return nil, ErrAlreadyMember
		}
	}

	var pending int64
	if err := s.db.WithContext(ctx).Model(&models.Invitation{}).
		Where("box_id = ? AND email = ? AND status = ?", boxID, email, models.InvitationPending).
		Count(&pending).Error; err != nil {
		return nil, fmt.Errorf("invitation service: check pending: %w", err)
	}
	if pending > 0 {
		return nil, ErrPendingInvitation
	}

	if account == nil {
		return s.createForNewAccount(ctx, &box, email)
	}
	return s.createForExistingUser(ctx, &box, email, account.ID)
}

// createForNewAccount provisions the account with a throwaway password, links
// a setup token to the invitation, and mails the setup link. The account is
// deleted again if the local rows cannot be written.
func (s *InvitationService) createForNewAccount(ctx context.Context, box *models.Box, email string) (*InviteResult, error) {
	password, err := crypto.GeneratePassword()
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate password: %w", err)
	}
	token, err := crypto.GenerateToken(32)
	if err != nil {
		return nil, fmt.Errorf("invitation service: generate token: %w", err)
	}

	accountID, err := s.provider.CreateAccount(ctx, email, password)
	if err != nil {
		return nil, fmt.Errorf("invitation service: provision account: %w", err)
	}

	invitation := models.Invitation{
		BoxID:      box.ID,
		Email:      email,
		UserID:     &accountID,
		Status:     models.InvitationPending,
		SetupToken: &token,
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		profile := models.Profile{ID: accountID}
		if err := tx.Create(&profile).Error; err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		if err := tx.Create(&invitation).Error; err != nil {
			return fmt.Errorf("create invitation: %w", err)
		}
		return nil
	})
	if txErr != nil {
		if err := s.provider.DeleteAccount(ctx, accountID); err != nil {
			s.log.Error("invitation compensation failed, account orphaned",
				zap.String("account_id", accountID), zap.Error(err))
		}
		return nil, fmt.Errorf("invitation service: create invitation: %w", txErr)
	}

	s.sendSetupEmail(ctx, email, box.Name, token)

	return &InviteResult{Invitation: &invitation, Path: InvitePathNewAccount}, nil
}

func (s *InvitationService) createForExistingUser(ctx context.Context, box *models.Box, email, userID string) (*InviteResult, error) {
	invitation := models.Invitation{
		BoxID:  box.ID,
		Email:  email,
		UserID: &userID,
		Status: models.InvitationPending,
	}
	if err := s.db.WithContext(ctx).Create(&invitation).Error; err != nil {
		return nil, fmt.Errorf("invitation service: create invitation: %w", err)
	}

	if s.notifier != nil {
		s.notifier.InvitationReceived(ctx, userID, box.Name, invitation.ID)
	}

	return &InviteResult{Invitation: &invitation, Path: InvitePathExistingUser}, nil
}

// ListByBox returns the box's invitations, newest first. Managers only.
func (s *InvitationService) ListByBox(ctx context.Context, callerID, boxID string) ([]models.Invitation, error) {
	ctx = ensureContext(ctx)

	if err := s.authz.RequireRole(ctx, callerID, boxID, ManagerRoles...); err != nil {
		return nil, err
	}

	var invitations []models.Invitation
	err := s.db.WithContext(ctx).
		Where("box_id = ?", boxID).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list: %w", err)
	}
	return invitations, nil
}

// ListMine returns the caller's pending invitations with their boxes.
func (s *InvitationService) ListMine(ctx context.Context, userID string) ([]models.Invitation, error) {
	var invitations []models.Invitation
	err := s.db.WithContext(ensureContext(ctx)).
		Preload("Box").
		Where("user_id = ? AND status = ?", userID, models.InvitationPending).
		Order("created_at DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, fmt.Errorf("invitation service: list mine: %w", err)
	}
	return invitations, nil
}

// Revoke deletes a pending invitation. Managers only.
func (s *InvitationService) Revoke(ctx context.Context, callerID, invitationID string) error {
	ctx = ensureContext(ctx)

	invitation, err := s.load(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.authz.RequireRole(ctx, callerID, invitation.BoxID, ManagerRoles...); err != nil {
		return err
	}
	if invitation.Status != models.InvitationPending {
		return ErrInvitationNotPending
	}

	if err := s.db.WithContext(ctx).Delete(&models.Invitation{}, "id = ?", invitationID).Error; err != nil {
		return fmt.Errorf("invitation service: delete: %w", err)
	}
	return nil
}

// AcceptResult reports the membership and whether it existed before the
// accept. Accepting twice is a safe no-op.
type AcceptResult struct {
	Membership     *models.BoxMembership `json:"membership"`
	AlreadyExisted bool                  `json:"already_existed"`
}

// Accept joins the invited user to the box. Only the linked user may accept.
func (s *InvitationService) Accept(ctx context.Context, callerID, invitationID string) (*AcceptResult, error) {
	ctx = ensureContext(ctx)

	invitation, err := s.load(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if err := s.guardAccept(invitation, callerID); err != nil {
		return nil, err
	}

	result, err := s.finalise(ctx, invitation)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, invitation)
	return result, nil
}

// Reject marks the invitation rejected. Only the linked user may reject.
func (s *InvitationService) Reject(ctx context.Context, callerID, invitationID string) error {
	ctx = ensureContext(ctx)

	invitation, err := s.load(ctx, invitationID)
	if err != nil {
		return err
	}
	if err := s.guardAccept(invitation, callerID); err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Model(invitation).Updates(map[string]any{
		"status":      models.InvitationRejected,
		"setup_token": nil,
	}).Error; err != nil {
		return fmt.Errorf("invitation service: reject: %w", err)
	}
	return nil
}

// CompleteSetup finishes the new-account path: the setup token authenticates
// the request, the chosen password replaces the throwaway one, and the
// membership is created. All local writes happen in one transaction.
func (s *InvitationService) CompleteSetup(ctx context.Context, token, password, fullName string) (*AcceptResult, error) {
	ctx = ensureContext(ctx)

	if token == "" {
		return nil, ErrInvitationNotFound
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Box").
		Where("setup_token = ?", token).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation service: load by token: %w", err)
	}

	if invitation.Status != models.InvitationPending {
		return nil, ErrInvitationNotPending
	}
	if invitation.UserID == nil {
		return nil, ErrInvitationNotLinked
	}

	if err := s.provider.UpdatePassword(ctx, *invitation.UserID, password); err != nil {
		return nil, fmt.Errorf("invitation service: set password: %w", err)
	}

	if fullName != "" {
		if err := s.db.WithContext(ctx).Model(&models.Profile{}).
			Where("id = ?", *invitation.UserID).
			Update("full_name", fullName).Error; err != nil {
			return nil, fmt.Errorf("invitation service: update profile: %w", err)
		}
	}

	result, err := s.finalise(ctx, &invitation)
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, &invitation)
	return result, nil
}

// SetupTokenInfo is what the setup form needs to render before asking the
// invitee for a password.
type SetupTokenInfo struct {
	InvitationID string `json:"invitation_id"`
	Email        string `json:"email"`
	BoxName      string `json:"box_name"`
}

// ValidateSetupToken checks a setup token ahead of CompleteSetup so a dead
// link is rejected before the invitee fills in the form.
func (s *InvitationService) ValidateSetupToken(ctx context.Context, token string) (*SetupTokenInfo, error) {
	ctx = ensureContext(ctx)

	if token == "" {
		return nil, ErrInvitationNotFound
	}

	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Box").
		Where("setup_token = ?", token).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation service: validate token: %w", err)
	}
	if invitation.Status != models.InvitationPending {
		return nil, ErrInvitationNotPending
	}

	info := &SetupTokenInfo{InvitationID: invitation.ID, Email: invitation.Email}
	if invitation.Box != nil {
		info.BoxName = invitation.Box.Name
	}
	return info, nil
}

func (s *InvitationService) guardAccept(invitation *models.Invitation, callerID string) error {
	if invitation.Status != models.InvitationPending {
		return ErrInvitationNotPending
	}
	if invitation.UserID == nil {
		return ErrInvitationNotLinked
	}
	if *invitation.UserID != callerID {
		return ErrUnauthorizedAccept
	}
	return nil
}

// finalise creates the membership (unless one already exists) and closes the
// invitation, atomically.
func (s *InvitationService) finalise(ctx context.Context, invitation *models.Invitation) (*AcceptResult, error) {
	var (
		membership     models.BoxMembership
		alreadyExisted bool
	)

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("box_id = ? AND user_id = ?", invitation.BoxID, *invitation.UserID).
			First(&membership).Error
		switch {
		case err == nil:
			alreadyExisted = true
		case errors.Is(err, gorm.ErrRecordNotFound):
			membership = models.BoxMembership{
				BoxID:    invitation.BoxID,
				UserID:   *invitation.UserID,
				Role:     models.RoleAthlete,
				IsActive: true,
				JoinedAt: time.Now().UTC(),
			}
			if err := tx.Create(&membership).Error; err != nil {
				return fmt.Errorf("create membership: %w", err)
			}
		default:
			return fmt.Errorf("lookup membership: %w", err)
		}

		if err := tx.Model(&models.Invitation{}).
			Where("id = ?", invitation.ID).
			Updates(map[string]any{
				"status":      models.InvitationAccepted,
				"setup_token": nil,
			}).Error; err != nil {
			return fmt.Errorf("close invitation: %w", err)
		}
		return nil
	})
	if txErr != nil {
		return nil, fmt.Errorf("invitation service: finalise: %w", txErr)
	}

	return &AcceptResult{Membership: &membership, AlreadyExisted: alreadyExisted}, nil
}

func (s *InvitationService) notifyOwner(ctx context.Context, invitation *models.Invitation) {
	if s.notifier == nil || invitation.UserID == nil {
		return
	}

	box := invitation.Box
	if box == nil {
		var loaded models.Box
		if err := s.db.WithContext(ctx).Where("id = ?", invitation.BoxID).First(&loaded).Error; err != nil {
			s.log.Warn("owner notification skipped, box lookup failed",
				zap.String("box_id", invitation.BoxID), zap.Error(err))
			return
		}
		box = &loaded
	}

	memberName := ""
	var profile models.Profile
	if err := s.db.WithContext(ctx).Where("id = ?", *invitation.UserID).First(&profile).Error; err == nil {
		memberName = profile.FullName
	}

	s.notifier.InvitationAccepted(ctx, box.OwnerID, box.Name, memberName)
}

func (s *InvitationService) sendSetupEmail(ctx context.Context, email, boxName, token string) {
	if s.mailer == nil {
		return
	}

	link := fmt.Sprintf("%s/setup-account?token=%s", s.frontendBase, token)
	msg := mail.Message{
		To:      []string{email},
		Subject: fmt.Sprintf("You have been invited to join %s", boxName),
		HTML: fmt.Sprintf(
			"<h2>Welcome to %s</h2>"+
				"<p>An account has been prepared for you. Choose a password to finish setting it up:</p>"+
				"<p><a href=%q>Complete your account</a></p>",
			boxName, link),
	}
	if err := s.mailer.Send(ctx, msg); err != nil && !errors.Is(err, mail.ErrSMTPDisabled) {
		s.log.Warn("setup email delivery failed", zap.String("email", email), zap.Error(err))
	}
}

func (s *InvitationService) load(ctx context.Context, invitationID string) (*models.Invitation, error) {
	var invitation models.Invitation
	err := s.db.WithContext(ctx).
		Preload("Box").
		Where("id = ?", invitationID).
		First(&invitation).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvitationNotFound
		}
		return nil, fmt.Errorf("invitation service: load: %w", err)
	}
	return &invitation, nil
}
