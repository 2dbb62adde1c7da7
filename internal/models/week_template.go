package models

// WeekTemplate is a reusable weekly pattern of class slots for a box.
type WeekTemplate struct {
	BaseModel

	BoxID       string `gorm:"type:uuid;not null;index" json:"box_id"`
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	IsActive    bool   `gorm:"default:true" json:"is_active"`

	Items []WeekTemplateItem `gorm:"foreignKey:TemplateID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// WeekTemplateItem is one slot of a week template. DayOfWeek follows the
// Monday=1..Sunday=7 convention and drives the date offset when the template
// is applied to a target week.
type WeekTemplateItem struct {
	BaseModel

	TemplateID   string  `gorm:"type:uuid;not null;index" json:"template_id"`
	DisciplineID string  `gorm:"type:uuid;not null" json:"discipline_id"`
	TrainerID    *string `gorm:"type:uuid" json:"trainer_id"`

	DayOfWeek   int    `gorm:"not null" json:"day_of_week"`
	StartTime   string `gorm:"type:varchar(5);not null" json:"start_time"`
	EndTime     string `gorm:"type:varchar(5);not null" json:"end_time"`
	MaxCapacity int    `gorm:"default:15" json:"max_capacity"`

	Name        string `json:"name"`
	Description string `json:"description"`

	Discipline *Discipline `gorm:"foreignKey:DisciplineID" json:"discipline,omitempty"`
}
