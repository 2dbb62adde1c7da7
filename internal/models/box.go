package models

// Box is a tenant gym. Every discipline, schedule, and membership belongs to
// exactly one box.
type Box struct {
	BaseModel

	Name    string `gorm:"not null" json:"name"`
	OwnerID string `gorm:"type:uuid;not null;index" json:"owner_id"`

	Address  string `json:"address"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Website  string `json:"website"`
	IsActive bool   `gorm:"default:true" json:"is_active"`

	Memberships []BoxMembership `gorm:"foreignKey:BoxID" json:"memberships,omitempty"`
	Disciplines []Discipline    `gorm:"foreignKey:BoxID" json:"disciplines,omitempty"`
}
