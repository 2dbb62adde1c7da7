package models

// Invitation statuses. The state machine is pending -> accepted|rejected with
// no further transitions.
const (
	InvitationPending  = "pending"
	InvitationAccepted = "accepted"
	InvitationRejected = "rejected"
)

// Invitation onboards a user into a box. SetupToken is set only for the
// new-account path and is cleared once account setup completes.
type Invitation struct {
	BaseModel

	BoxID  string  `gorm:"type:uuid;not null;index" json:"box_id"`
	Email  string  `gorm:"not null;index" json:"email"`
	UserID *string `gorm:"type:uuid" json:"user_id"`
	Status string  `gorm:"type:varchar(16);default:'pending'" json:"status"`

	SetupToken *string `gorm:"uniqueIndex" json:"-"`

	Box *Box `gorm:"foreignKey:BoxID" json:"box,omitempty"`
}
