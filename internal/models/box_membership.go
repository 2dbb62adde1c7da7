package models

import "time"

// Membership roles. Role drives authorization on box-scoped mutations.
const (
	RoleOwner   = "owner"
	RoleTrainer = "trainer"
	RoleAthlete = "athlete"
)

// BoxMembership is a user's role-scoped relationship to a box.
type BoxMembership struct {
	BaseModel

	BoxID    string `gorm:"type:uuid;not null;index:idx_membership_box_user,unique" json:"box_id"`
	UserID   string `gorm:"type:uuid;not null;index:idx_membership_box_user,unique" json:"user_id"`
	Role     string `gorm:"type:varchar(32);default:'athlete'" json:"role"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	JoinedAt time.Time `json:"joined_at"`

	Box     *Box     `gorm:"foreignKey:BoxID" json:"box,omitempty"`
	Profile *Profile `gorm:"foreignKey:UserID" json:"profile,omitempty"`
}
