package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
	"github.com/boxhub/boxhub/pkg/crypto"
)

// LocalProvider implements Provider against the accounts table using bcrypt
// hashes. It stands in for a hosted identity service while keeping the same
// contract.
type LocalProvider struct {
	db *gorm.DB
}

// NewLocalProvider constructs a LocalProvider.
func NewLocalProvider(db *gorm.DB) (*LocalProvider, error) {
	if db == nil {
		return nil, errors.New("identity: db is required")
	}
	return &LocalProvider{db: db}, nil
}

// CreateAccount provisions an account with a bcrypt-hashed password.
func (p *LocalProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	email = normaliseEmail(email)
	if email == "" {
		return "", errors.New("identity: email is required")
	}
	if password == "" {
		return "", errors.New("identity: password is required")
	}

	var count int64
	if err := p.db.WithContext(ctx).Model(&models.Account{}).
		Where("email = ?", email).Count(&count).Error; err != nil {
		return "", fmt.Errorf("identity: check email: %w", err)
	}
	if count > 0 {
		return "", ErrEmailTaken
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("identity: hash password: %w", err)
	}

	account := models.Account{
		Email:        email,
		PasswordHash: hash,
		IsActive:     true,
	}
	if err := p.db.WithContext(ctx).Create(&account).Error; err != nil {
		return "", fmt.Errorf("identity: create account: %w", err)
	}

	return account.ID, nil
}

// UpdatePassword replaces the stored credential hash.
func (p *LocalProvider) UpdatePassword(ctx context.Context, accountID, password string) error {
	if password == "" {
		return errors.New("identity: password is required")
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return fmt.Errorf("identity: hash password: %w", err)
	}

	result := p.db.WithContext(ctx).Model(&models.Account{}).
		Where("id = ?", accountID).
		Update("password_hash", hash)
	if result.Error != nil {
		return fmt.Errorf("identity: update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// FindByEmail looks up an account by its (normalised) email address.
func (p *LocalProvider) FindByEmail(ctx context.Context, email string) (*Account, error) {
	var account models.Account
	if err := p.db.WithContext(ctx).
		Where("email = ?", normaliseEmail(email)).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}
	return toAccount(account), nil
}

// FindByID looks up an account by its id.
func (p *LocalProvider) FindByID(ctx context.Context, accountID string) (*Account, error) {
	var account models.Account
	if err := p.db.WithContext(ctx).
		Where("id = ?", accountID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}
	return toAccount(account), nil
}

// VerifyCredentials checks the email/password pair and records the login time.
func (p *LocalProvider) VerifyCredentials(ctx context.Context, email, password string) (*Account, error) {
	var account models.Account
	if err := p.db.WithContext(ctx).
		Where("email = ?", normaliseEmail(email)).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("identity: find account: %w", err)
	}

	if !account.IsActive || !crypto.VerifyPassword(account.PasswordHash, password) {
		return nil, ErrAccountNotFound
	}

	now := time.Now().UTC()
	_ = p.db.WithContext(ctx).Model(&account).Update("last_login_at", now).Error

	return toAccount(account), nil
}

// DeleteAccount removes the account row.
func (p *LocalProvider) DeleteAccount(ctx context.Context, accountID string) error {
	result := p.db.WithContext(ctx).Where("id = ?", accountID).Delete(&models.Account{})
	if result.Error != nil {
		return fmt.Errorf("identity: delete account: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

func toAccount(row models.Account) *Account {
	return &Account{
		ID:       row.ID,
		Email:    row.Email,
		IsActive: row.IsActive,
	}
}

func normaliseEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
