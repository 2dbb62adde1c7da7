package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/boxhub/boxhub/internal/models"
)

func TestListDisciplinesPaginates(t *testing.T) {
	f := newFixture(t)
	svc, err := NewDisciplineService(f.db, f.authz)
	require.NoError(t, err)

	// The fixture seeds one discipline already.
	for i := 0; i < 4; i++ {
		_, err := svc.Create(context.Background(), f.owner.ID, CreateDisciplineInput{
			BoxID:        f.box.ID,
			Name:         fmt.Sprintf("Class %d", i),
			DisplayOrder: i + 1,
		})
		require.NoError(t, err)
	}

	page, total, err := svc.List(context.Background(), f.athlete.ID, f.box.ID, false, 1, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.EqualValues(t, 5, total)

	page, _, err = svc.List(context.Background(), f.athlete.ID, f.box.ID, false, 3, 2)
	require.NoError(t, err)
	require.Len(t, page, 1)
}

func TestListDisciplinesHidesInactiveByDefault(t *testing.T) {
	f := newFixture(t)
	svc, err := NewDisciplineService(f.db, f.authz)
	require.NoError(t, err)

	off := false
	_, err = svc.Update(context.Background(), f.owner.ID, f.discipline.ID, UpdateDisciplineInput{
		IsActive: &off,
	})
	require.NoError(t, err)

	visible, total, err := svc.List(context.Background(), f.athlete.ID, f.box.ID, false, 1, 10)
	require.NoError(t, err)
	require.Empty(t, visible)
	require.Zero(t, total)

	all, _, err := svc.List(context.Background(), f.athlete.ID, f.box.ID, true, 1, 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
}

func TestDeleteDisciplineDeactivatesWhenScheduled(t *testing.T) {
	f := newFixture(t)
	svc, err := NewDisciplineService(f.db, f.authz)
	require.NoError(t, err)

	f.createSchedule(t, "2026-09-07", "18:00")

	require.NoError(t, svc.Delete(context.Background(), f.owner.ID, f.discipline.ID))

	var reloaded models.Discipline
	require.NoError(t, f.db.First(&reloaded, "id = ?", f.discipline.ID).Error)
	require.False(t, reloaded.IsActive, "referenced disciplines are kept for history")
}
