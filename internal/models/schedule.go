package models

// DefaultMaxCapacity is applied when a schedule or template item does not
// declare its own capacity.
const DefaultMaxCapacity = 15

// Schedule is one concrete, time-slotted class instance. Date and times are
// stored as plain calendar strings so week arithmetic and range filters work
// identically across database drivers.
//
// The composite unique index backs conflict-ignore inserts when a week
// template is applied: a second application of the same template to the same
// week silently skips the rows that already exist.
type Schedule struct {
	BaseModel

	BoxID        string  `gorm:"type:uuid;not null;index;uniqueIndex:idx_schedule_slot" json:"box_id"`
	DisciplineID string  `gorm:"type:uuid;not null;uniqueIndex:idx_schedule_slot" json:"discipline_id"`
	TrainerID    *string `gorm:"type:uuid" json:"trainer_id"`

	Date      string `gorm:"type:date;not null;index;uniqueIndex:idx_schedule_slot" json:"date"`
	StartTime string `gorm:"type:varchar(5);not null;uniqueIndex:idx_schedule_slot" json:"start_time"`
	EndTime   string `gorm:"type:varchar(5);not null" json:"end_time"`

	Name        string `json:"name"`
	Description string `json:"description"`
	MaxCapacity int    `gorm:"default:15" json:"max_capacity"`

	IsVisible          bool   `gorm:"default:false" json:"is_visible"`
	IsCancelled        bool   `gorm:"default:false" json:"is_cancelled"`
	CancellationReason string `json:"cancellation_reason"`

	Discipline *Discipline `gorm:"foreignKey:DisciplineID" json:"discipline,omitempty"`
	Trainer    *Profile    `gorm:"foreignKey:TrainerID" json:"trainer,omitempty"`
	Bookings   []Booking   `gorm:"foreignKey:ScheduleID" json:"bookings,omitempty"`
}
