package identity

import (
	"context"
	"errors"
)

// Provider errors surfaced to callers.
var (
	// ErrAccountNotFound indicates no account matches the lookup.
	ErrAccountNotFound = errors.New("identity: account not found")
	// ErrEmailTaken indicates an account already exists for the email.
	ErrEmailTaken = errors.New("identity: email already registered")
)

// Account is the provider's view of a credential record.
type Account struct {
	ID       string
	Email    string
	IsActive bool
}

// Provider abstracts the identity backend that owns accounts and credentials.
// The rest of the application only needs account provisioning, lookup and
// credential verification.
type Provider interface {
	// CreateAccount provisions a new account and returns its id.
	CreateAccount(ctx context.Context, email, password string) (string, error)
	// UpdatePassword replaces the password of an existing account.
	UpdatePassword(ctx context.Context, accountID, password string) error
	// FindByEmail returns the account registered under email, or
	// ErrAccountNotFound.
	FindByEmail(ctx context.Context, email string) (*Account, error)
	// FindByID returns the account with the given id, or ErrAccountNotFound.
	FindByID(ctx context.Context, accountID string) (*Account, error)
	// VerifyCredentials checks email+password and returns the account on
	// success.
	VerifyCredentials(ctx context.Context, email, password string) (*Account, error)
	// DeleteAccount removes an account. Used to compensate when local
	// persistence fails after the account was provisioned.
	DeleteAccount(ctx context.Context, accountID string) error
}
