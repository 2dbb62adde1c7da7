package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/boxhub/boxhub/internal/database/testutil"
	"github.com/boxhub/boxhub/internal/identity"
	"github.com/boxhub/boxhub/internal/models"
)

// fixture bundles the rows most service tests need: a box with an owner, a
// discipline, and one athlete member.
type fixture struct {
	db         *gorm.DB
	authz      *BoxAuthorizer
	provider   *identity.LocalProvider
	box        models.Box
	owner      models.Profile
	athlete    models.Profile
	discipline models.Discipline
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t)

	authz, err := NewBoxAuthorizer(db)
	require.NoError(t, err)
	provider, err := identity.NewLocalProvider(db)
	require.NoError(t, err)

	f := &fixture{db: db, authz: authz, provider: provider}

	f.owner = f.createUser(t, "owner@box.test", "Olive Owner")
	f.athlete = f.createUser(t, "athlete@box.test", "Ada Athlete")

	f.box = models.Box{Name: "Test Box", OwnerID: f.owner.ID, IsActive: true}
	require.NoError(t, db.Create(&f.box).Error)

	f.addMembership(t, f.owner.ID, models.RoleOwner)
	f.addMembership(t, f.athlete.ID, models.RoleAthlete)

	f.discipline = models.Discipline{BoxID: f.box.ID, Name: "WOD", IsActive: true}
	require.NoError(t, db.Create(&f.discipline).Error)

	return f
}

func (f *fixture) createUser(t *testing.T, email, name string) models.Profile {
	t.Helper()

	accountID, err := f.provider.CreateAccount(context.Background(), email, "password123")
	require.NoError(t, err)

	profile := models.Profile{ID: accountID, FullName: name}
	require.NoError(t, f.db.Create(&profile).Error)
	return profile
}

func (f *fixture) addMembership(t *testing.T, userID, role string) models.BoxMembership {
	t.Helper()

	membership := models.BoxMembership{
		BoxID:    f.box.ID,
		UserID:   userID,
		Role:     role,
		IsActive: true,
		JoinedAt: time.Now().UTC(),
	}
	require.NoError(t, f.db.Create(&membership).Error)
	return membership
}

func (f *fixture) createSchedule(t *testing.T, date, startTime string, mutate ...func(*models.Schedule)) models.Schedule {
	t.Helper()

	schedule := models.Schedule{
		BoxID:        f.box.ID,
		DisciplineID: f.discipline.ID,
		Date:         date,
		StartTime:    startTime,
		EndTime:      "19:00",
		Name:         "WOD",
		MaxCapacity:  models.DefaultMaxCapacity,
		IsVisible:    true,
	}
	for _, fn := range mutate {
		fn(&schedule)
	}
	require.NoError(t, f.db.Create(&schedule).Error)
	return schedule
}

// notificationsFor returns the stored notifications of a user, newest first.
func (f *fixture) notificationsFor(t *testing.T, userID string) []models.Notification {
	t.Helper()

	var items []models.Notification
	require.NoError(t, f.db.
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&items).Error)
	return items
}

func (f *fixture) newNotifier(t *testing.T) *Notifier {
	t.Helper()

	svc, err := NewNotificationService(f.db, nil, nil, f.provider)
	require.NoError(t, err)
	notifier, err := NewNotifier(svc)
	require.NoError(t, err)
	return notifier
}
