package checkins

import (
	"context"
	"testing"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/arnold/goalgraph-api/internal/policy"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordBatchSkipsCompletedGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	done := fixedNow.AddDate(0, 0, -3)
	g1 := f.goal(t, nil)
	g2 := f.goal(t, func(g *models.Goal) { g.CompletedAt = &done })
	g3 := f.goal(t, nil)

	b := NewBulkRecorder(f.store, f.recorder, policy.PrivacyPolicy{})
	res, err := b.RecordBatch(ctx, map[uuid.UUID]models.BulkCheckInItem{
		g1.ID:      {ConfidencePercentage: intp(60)},
		g2.ID:      {ConfidencePercentage: intp(70)},
		g3.ID:      {ConfidencePercentage: intp(80)},
		uuid.New(): {ConfidencePercentage: intp(90)},
	}, fixedNow, f.owner)
	require.NoError(t, err)

	assert.Equal(t, 2, res.SuccessCount)
	assert.Equal(t, 0, res.FailureCount)
	assert.Empty(t, res.Errors)
	require.Len(t, res.Recorded, 2)
	recordedGoals := []uuid.UUID{res.Recorded[0].Goal.ID, res.Recorded[1].Goal.ID}
	assert.ElementsMatch(t, []uuid.UUID{g1.ID, g3.ID}, recordedGoals)
	assert.NotNil(t, res.Recorded[0].CheckIn)

	for _, id := range []uuid.UUID{g1.ID, g3.ID} {
		all, err := f.store.CheckInsForGoal(ctx, id)
		require.NoError(t, err)
		assert.Len(t, all, 1)
	}
	all, err := f.store.CheckInsForGoal(ctx, g2.ID)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestRecordBatchReportsPerItemFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	stranger := &models.Teammate{Email: "stranger@example.com"}
	require.NoError(t, f.store.CreateTeammate(ctx, stranger))

	private := f.goal(t, func(g *models.Goal) { g.PrivacyLevel = models.PrivacyCreatorOnly })
	open := f.goal(t, nil)
	bad := f.goal(t, nil)

	b := NewBulkRecorder(f.store, f.recorder, policy.PrivacyPolicy{})
	res, err := b.RecordBatch(ctx, map[uuid.UUID]models.BulkCheckInItem{
		private.ID: {ConfidencePercentage: intp(60)},
		open.ID:    {ConfidencePercentage: intp(60)},
		bad.ID:     {},
	}, time.Date(2024, 2, 14, 0, 0, 0, 0, time.UTC), stranger)
	require.NoError(t, err)

	assert.Equal(t, 1, res.SuccessCount)
	assert.Equal(t, 2, res.FailureCount)
	require.Len(t, res.Recorded, 1)
	assert.Equal(t, open.ID, res.Recorded[0].Goal.ID)
	messages := map[uuid.UUID]string{}
	for _, e := range res.Errors {
		messages[e.GoalID] = e.Message
	}
	assert.Equal(t, "You don't have permission to check in on this goal", messages[private.ID])
	assert.Equal(t, "confidence percentage is required", messages[bad.ID])

	all, err := f.store.CheckInsForGoal(ctx, open.ID)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "2024-02-12", all[0].CheckInWeekStart.Format(models.DateLayout))
}

func TestRecordBatchWithoutViewer(t *testing.T) {
	f := newFixture(t)
	g := f.goal(t, nil)
	b := NewBulkRecorder(f.store, f.recorder, policy.PrivacyPolicy{})

	res, err := b.RecordBatch(context.Background(), map[uuid.UUID]models.BulkCheckInItem{
		g.ID: {ConfidencePercentage: intp(60)},
	}, fixedNow, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.SuccessCount)
	assert.Equal(t, 1, res.FailureCount)
}
