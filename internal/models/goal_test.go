package models

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(t time.Time) *time.Time { return &t }

func validGoal() *Goal {
	return &Goal{
		Title:     "Ship the beta",
		GoalType:  GoalTypeQuantitativeKeyResult,
		Owner:     IndividualOwner(uuid.New()),
		CreatorID: uuid.New(),
	}
}

func TestGoalValidate(t *testing.T) {
	g := validGoal()
	require.NoError(t, g.Validate())

	g = &Goal{}
	err := g.Validate()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidationFailed))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Len(t, ve.Messages, 3)
}

func TestGoalValidateTargetDateOrder(t *testing.T) {
	g := validGoal()
	g.MostLikelyTargetDate = ptr(day("2024-03-31"))
	g.EarliestTargetDate = ptr(day("2024-04-01"))
	g.LatestTargetDate = ptr(day("2024-03-31"))

	var ve *ValidationError
	require.True(t, errors.As(g.Validate(), &ve))
	assert.Len(t, ve.Messages, 2)

	g.EarliestTargetDate = ptr(day("2024-03-31"))
	g.LatestTargetDate = ptr(day("2024-04-01"))
	assert.NoError(t, g.Validate())
}

func TestClampTargetDates(t *testing.T) {
	t.Run("pulls both bounds along", func(t *testing.T) {
		g := validGoal()
		g.EarliestTargetDate = ptr(day("2024-03-01"))
		g.MostLikelyTargetDate = ptr(day("2024-03-15"))
		g.LatestTargetDate = ptr(day("2024-04-01"))

		g.ClampTargetDates(day("2024-05-01"))
		assert.Equal(t, day("2024-05-01"), *g.MostLikelyTargetDate)
		assert.Equal(t, day("2024-03-01"), *g.EarliestTargetDate)
		assert.Equal(t, day("2024-05-02"), *g.LatestTargetDate)
		assert.NoError(t, g.Validate())

		g.ClampTargetDates(day("2024-02-01"))
		assert.Equal(t, day("2024-02-01"), *g.EarliestTargetDate)
		assert.Equal(t, day("2024-05-02"), *g.LatestTargetDate)
		assert.NoError(t, g.Validate())
	})

	t.Run("leaves unset bounds unset", func(t *testing.T) {
		g := validGoal()
		g.ClampTargetDates(time.Date(2024, 5, 1, 17, 30, 0, 0, time.UTC))
		assert.Equal(t, day("2024-05-01"), *g.MostLikelyTargetDate)
		assert.Nil(t, g.EarliestTargetDate)
		assert.Nil(t, g.LatestTargetDate)
	})
}

func TestLastTargetDate(t *testing.T) {
	g := validGoal()
	assert.Nil(t, g.LastTargetDate())

	g.EarliestTargetDate = ptr(day("2024-03-01"))
	g.MostLikelyTargetDate = ptr(day("2024-03-15"))
	assert.Equal(t, day("2024-03-15"), *g.LastTargetDate())

	g.LatestTargetDate = ptr(day("2024-04-01"))
	assert.Equal(t, day("2024-04-01"), *g.LastTargetDate())
}

func TestOwnerTeammateID(t *testing.T) {
	id := uuid.New()
	got, ok := IndividualOwner(id).TeammateID()
	assert.True(t, ok)
	assert.Equal(t, id, got)

	_, ok = OrgUnitOwner(id).TeammateID()
	assert.False(t, ok)
}

func TestCheckInValidate(t *testing.T) {
	c := &GoalCheckIn{GoalID: uuid.New(), ReporterID: uuid.New(), ConfidencePercentage: 100}
	assert.NoError(t, c.Validate())

	c.ConfidencePercentage = 101
	assert.ErrorIs(t, c.Validate(), ErrValidationFailed)

	c.ConfidencePercentage = -1
	assert.ErrorIs(t, c.Validate(), ErrValidationFailed)
}

func TestCheckInNewer(t *testing.T) {
	now := time.Now()
	older := &GoalCheckIn{CheckInWeekStart: day("2024-01-01"), UpdatedAt: now}
	newer := &GoalCheckIn{CheckInWeekStart: day("2024-01-08"), UpdatedAt: now.Add(-time.Hour)}

	assert.True(t, newer.Newer(older))
	assert.False(t, older.Newer(newer))
	assert.True(t, older.Newer(nil))

	sameWeek := &GoalCheckIn{CheckInWeekStart: day("2024-01-08"), UpdatedAt: now}
	assert.True(t, sameWeek.Newer(newer))
}

func TestMergeValidation(t *testing.T) {
	assert.NoError(t, MergeValidation(nil, nil))

	err := MergeValidation(
		&ValidationError{Messages: []string{"a"}},
		nil,
		&ValidationError{Messages: []string{"b", "c"}},
	)
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, []string{"a", "b", "c"}, ve.Messages)

	boom := errors.New("boom")
	assert.Equal(t, boom, MergeValidation(&ValidationError{Messages: []string{"a"}}, boom))
}

func TestValidateRequest(t *testing.T) {
	bad := 150
	err := ValidateRequest(&CheckInRequest{ConfidencePercentage: &bad})
	assert.ErrorIs(t, err, ErrValidationFailed)

	ok := 40
	assert.NoError(t, ValidateRequest(&CheckInRequest{ConfidencePercentage: &ok}))

	err = ValidateRequest(&CreateGoalRequest{Title: "x", GoalType: "epic"})
	assert.ErrorIs(t, err, ErrValidationFailed)
}
