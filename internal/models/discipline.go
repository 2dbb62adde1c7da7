package models

// Discipline is a named class type offered by a box.
type Discipline struct {
	BaseModel

	BoxID           string `gorm:"type:uuid;not null;index" json:"box_id"`
	Name            string `gorm:"not null" json:"name"`
	Color           string `json:"color"`
	Description     string `json:"description"`
	DurationMinutes int    `gorm:"default:60" json:"duration_minutes"`
	IsActive        bool   `gorm:"default:true" json:"is_active"`
	DisplayOrder    int    `gorm:"default:0" json:"display_order"`
}
