package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile mirrors an identity-provider account one-to-one. Its primary key is
// the account id, so it is not based on BaseModel.
type Profile struct {
	ID        string    `gorm:"primaryKey;type:uuid" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	FullName         string  `json:"full_name"`
	AvatarURL        string  `json:"avatar_url"`
	Phone            string  `json:"phone"`
	EmergencyContact string  `json:"emergency_contact"`
	BirthDate        *string `gorm:"type:date" json:"birth_date"`
	ActiveBoxID      *string `gorm:"type:uuid" json:"active_box_id"`

	Memberships []BoxMembership `gorm:"foreignKey:UserID" json:"memberships,omitempty"`
}

// BeforeCreate rejects profiles without an explicit account id.
func (p *Profile) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		return gorm.ErrPrimaryKeyRequired
	}
	return nil
}
