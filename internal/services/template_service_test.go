package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
	apperrors "github.com/boxhub/boxhub/pkg/errors"
)

func TestImportFromWeekBuildsItems(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	f.createSchedule(t, "2026-09-07", "18:00") // Monday
	f.createSchedule(t, "2026-09-13", "10:00") // Sunday
	f.createSchedule(t, "2026-09-09", "18:00", func(s *models.Schedule) {
		s.IsCancelled = true
	})

	template, err := svc.ImportFromWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07", "Standard week")
	require.NoError(t, err)

	require.Equal(t, "Standard week", template.Name)
	require.Len(t, template.Items, 2, "cancelled slots are not imported")
	require.Equal(t, 1, template.Items[0].DayOfWeek)
	require.Equal(t, "18:00", template.Items[0].StartTime)
	require.Equal(t, 7, template.Items[1].DayOfWeek)
	require.Equal(t, "10:00", template.Items[1].StartTime)
}

func TestImportFromWeekRejectsNonMonday(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	_, err = svc.ImportFromWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-09", "")
	require.ErrorIs(t, err, ErrNotMonday)
}

func TestImportFromWeekRejectsEmptyWeek(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	_, err = svc.ImportFromWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07", "")
	require.ErrorIs(t, err, ErrEmptyWeek)
}

func TestApplyMaterialisesDrafts(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	template, err := svc.Create(context.Background(), f.owner.ID, CreateTemplateInput{
		BoxID: f.box.ID,
		Name:  "Standard week",
		Items: []TemplateItemInput{
			{DisciplineID: f.discipline.ID, DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00"},
			{DisciplineID: f.discipline.ID, DayOfWeek: 3, StartTime: "09:00", EndTime: "10:00", MaxCapacity: 8},
		},
	})
	require.NoError(t, err)

	result, err := svc.Apply(context.Background(), f.owner.ID, template.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 2, result.Created)
	require.Zero(t, result.Skipped)

	var schedules []models.Schedule
	require.NoError(t, f.db.
		Where("box_id = ?", f.box.ID).
		Order("date").
		Find(&schedules).Error)
	require.Len(t, schedules, 2)

	require.Equal(t, "2026-09-07", schedules[0].Date)
	require.Equal(t, models.DefaultMaxCapacity, schedules[0].MaxCapacity)
	require.Equal(t, "2026-09-09", schedules[1].Date)
	require.Equal(t, 8, schedules[1].MaxCapacity)
	for _, schedule := range schedules {
		require.False(t, schedule.IsVisible, "applied slots start as drafts")
	}
}

func TestApplyTwiceCreatesNoDuplicates(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	template, err := svc.Create(context.Background(), f.owner.ID, CreateTemplateInput{
		BoxID: f.box.ID,
		Name:  "Standard week",
		Items: []TemplateItemInput{
			{DisciplineID: f.discipline.ID, DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00"},
		},
	})
	require.NoError(t, err)

	first, err := svc.Apply(context.Background(), f.owner.ID, template.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 1, first.Created)

	second, err := svc.Apply(context.Background(), f.owner.ID, template.ID, "2026-09-07")
	require.NoError(t, err)
	require.EqualValues(t, 0, second.Created)
	require.Equal(t, 1, second.Skipped)

	var count int64
	require.NoError(t, f.db.Model(&models.Schedule{}).
		Where("box_id = ?", f.box.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestApplyRejectsNonMonday(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	template, err := svc.Create(context.Background(), f.owner.ID, CreateTemplateInput{
		BoxID: f.box.ID,
		Name:  "Standard week",
	})
	require.NoError(t, err)

	_, err = svc.Apply(context.Background(), f.owner.ID, template.ID, "2026-09-10")
	require.ErrorIs(t, err, ErrNotMonday)
}

func TestCheckConflicts(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	template, err := svc.Create(context.Background(), f.owner.ID, CreateTemplateInput{
		BoxID: f.box.ID,
		Name:  "Standard week",
		Items: []TemplateItemInput{
			{DisciplineID: f.discipline.ID, DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00"},
			{DisciplineID: f.discipline.ID, DayOfWeek: 2, StartTime: "18:00", EndTime: "19:00"},
		},
	})
	require.NoError(t, err)

	existing := f.createSchedule(t, "2026-09-07", "18:00")

	conflicts, err := svc.CheckConflicts(context.Background(), f.owner.ID, template.ID, "2026-09-07")
	require.NoError(t, err)
	require.Len(t, conflicts, 1)
	require.Equal(t, existing.ID, conflicts[0].ID)
}

func TestRoundTripImportThenApply(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	f.createSchedule(t, "2026-09-08", "18:00")

	template, err := svc.ImportFromWeek(context.Background(), f.owner.ID, f.box.ID, "2026-09-07", "")
	require.NoError(t, err)

	result, err := svc.Apply(context.Background(), f.owner.ID, template.ID, "2026-09-14")
	require.NoError(t, err)
	require.EqualValues(t, 1, result.Created)

	var schedule models.Schedule
	require.NoError(t, f.db.First(&schedule, "date = ?", "2026-09-15").Error)
	require.Equal(t, "18:00", schedule.StartTime)
}

func TestAddAndRemoveTemplateItems(t *testing.T) {
	f := newFixture(t)
	svc, err := NewTemplateService(f.db, f.authz)
	require.NoError(t, err)

	template, err := svc.Create(context.Background(), f.owner.ID, CreateTemplateInput{
		BoxID: f.box.ID,
		Name:  "Standard week",
		Items: []TemplateItemInput{
			{DisciplineID: f.discipline.ID, DayOfWeek: 1, StartTime: "18:00", EndTime: "19:00"},
		},
	})
	require.NoError(t, err)

	item, err := svc.AddItem(context.Background(), f.owner.ID, template.ID, TemplateItemInput{
		DisciplineID: f.discipline.ID,
		DayOfWeek:    5,
		StartTime:    "07:00",
		EndTime:      "08:00",
	})
	require.NoError(t, err)

	err = svc.RemoveItem(context.Background(), f.athlete.ID, item.ID)
	require.ErrorIs(t, err, apperrors.ErrForbidden)

	require.NoError(t, svc.RemoveItem(context.Background(), f.owner.ID, item.ID))

	err = svc.RemoveItem(context.Background(), f.owner.ID, item.ID)
	require.ErrorIs(t, err, apperrors.ErrNotFound)

	reloaded, err := svc.Get(context.Background(), f.owner.ID, template.ID)
	require.NoError(t, err)
	require.Len(t, reloaded.Items, 1)
}
