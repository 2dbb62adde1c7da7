package models

import "time"

// Account is the credential record managed by the identity provider. Domain
// tables reference accounts only through the profile that mirrors them.
type Account struct {
	BaseModel

	Email        string `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string `gorm:"not null" json:"-"`
	IsActive     bool   `gorm:"default:true" json:"is_active"`

	LastLoginAt *time.Time `json:"last_login_at"`
}
