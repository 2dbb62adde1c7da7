package models

// Booking statuses. Unsubscribing removes the row outright, so "confirmed" is
// the only status an active reservation ever holds.
const (
	BookingConfirmed = "confirmed"
)

// Booking is a per-user, per-schedule reservation record.
type Booking struct {
	BaseModel

	ScheduleID string `gorm:"type:uuid;not null;index" json:"schedule_id"`
	AthleteID  string `gorm:"type:uuid;not null;index" json:"athlete_id"`
	Status     string `gorm:"type:varchar(32);default:'confirmed'" json:"status"`

	Schedule *Schedule `gorm:"foreignKey:ScheduleID;constraint:OnDelete:CASCADE" json:"schedule,omitempty"`
	Athlete  *Profile  `gorm:"foreignKey:AthleteID" json:"athlete,omitempty"`
}
