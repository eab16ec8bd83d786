package database

import (
	"context"
	"testing"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := models.ParseDate(s)
	require.NoError(t, err)
	return d
}

func TestUpsertCheckInIsOnePerWeek(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tm := createTeammate(t, s)
	g := createGoal(t, s, tm, "g")

	first := &models.GoalCheckIn{GoalID: g.ID, ReporterID: tm.ID, ConfidencePercentage: 40, CheckInWeekStart: mustDate(t, "2024-02-13")}
	require.NoError(t, s.UpsertCheckIn(ctx, first))
	assert.Equal(t, "2024-02-12", first.CheckInWeekStart.Format(models.DateLayout))

	reason := "supplier slipped"
	second := &models.GoalCheckIn{GoalID: g.ID, ReporterID: tm.ID, ConfidencePercentage: 30, ConfidenceReason: &reason, CheckInWeekStart: mustDate(t, "2024-02-16")}
	require.NoError(t, s.UpsertCheckIn(ctx, second))
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 30, second.ConfidencePercentage)

	all, err := s.CheckInsForGoal(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 30, all[0].ConfidencePercentage)
	require.NotNil(t, all[0].ConfidenceReason)
	assert.Equal(t, reason, *all[0].ConfidenceReason)
}

func TestUpsertCheckInRejectsOutOfRange(t *testing.T) {
	s := newTestStore(t)
	tm := createTeammate(t, s)
	g := createGoal(t, s, tm, "g")

	err := s.UpsertCheckIn(context.Background(), &models.GoalCheckIn{GoalID: g.ID, ReporterID: tm.ID, ConfidencePercentage: 120, CheckInWeekStart: time.Now()})
	assert.ErrorIs(t, err, models.ErrValidationFailed)
}

func TestPreviousCheckIn(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	tm := createTeammate(t, s)
	g := createGoal(t, s, tm, "g")

	prev, err := s.PreviousCheckIn(ctx, g.ID, mustDate(t, "2024-02-12"))
	require.NoError(t, err)
	assert.Nil(t, prev)

	for _, w := range []struct {
		week string
		conf int
	}{{"2024-01-29", 20}, {"2024-02-05", 50}, {"2024-02-12", 90}} {
		ci := &models.GoalCheckIn{GoalID: g.ID, ReporterID: tm.ID, ConfidencePercentage: w.conf, CheckInWeekStart: mustDate(t, w.week)}
		require.NoError(t, s.UpsertCheckIn(ctx, ci))
	}

	prev, err = s.PreviousCheckIn(ctx, g.ID, mustDate(t, "2024-02-14"))
	require.NoError(t, err)
	require.NotNil(t, prev)
	assert.Equal(t, 50, prev.ConfidencePercentage)

	_, err = s.CheckInForWeek(ctx, g.ID, mustDate(t, "2024-03-04"))
	assert.ErrorIs(t, err, models.ErrNotFound)

	got, err := s.CheckInsForGoals(ctx, []uuid.UUID{g.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, 20, got[0].ConfidencePercentage)
}
