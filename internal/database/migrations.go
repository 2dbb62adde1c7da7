package database

import (
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/models"
)

// AutoMigrate applies the schema for all domain models in dependency order.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Account{},
		&models.Profile{},
		&models.Box{},
		&models.BoxMembership{},
		&models.Discipline{},
		&models.Schedule{},
		&models.Booking{},
		&models.WeekTemplate{},
		&models.WeekTemplateItem{},
		&models.Invitation{},
		&models.Notification{},
		&models.NotificationPreference{},
	)
}
