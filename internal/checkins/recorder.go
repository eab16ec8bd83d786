// Package checkins records weekly confidence reports and applies their side
// effects on the goal: start and completion stamps, target date changes and
// confidence moments.
package checkins

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/arnold/goalgraph-api/internal/database"
	"github.com/arnold/goalgraph-api/internal/metrics"
	"github.com/arnold/goalgraph-api/internal/models"
)

const (
	// DefaultConfidence is used when a reason is given without a number and
	// the goal has no earlier check-in to inherit from.
	DefaultConfidence = 5

	DefaultMomentDelta = 20
)

// Moment describes a check-in whose confidence moved sharply.
type Moment struct {
	CheckIn  models.GoalCheckIn
	Goal     models.Goal
	Actor    models.Teammate
	Previous int
}

// MomentEmitter receives confidence moments after the check-in has been
// committed. Its errors are logged and otherwise ignored.
type MomentEmitter interface {
	EmitConfidenceMoment(ctx context.Context, m Moment) error
}

type Params struct {
	ConfidencePercentage *int
	ConfidenceReason     *string
	MostLikelyTargetDate *string
	// WeekStart defaults to the current week. Any day is normalised to its Monday.
	WeekStart *time.Time
}

type Result struct {
	CheckIn           *models.GoalCheckIn `json:"checkIn"`
	Goal              *models.Goal        `json:"goal"`
	TargetDateUpdated bool                `json:"targetDateUpdated"`
}

type Recorder struct {
	store       *database.Store
	moments     MomentEmitter
	Metrics     *metrics.Metrics
	MomentDelta int
	Now         func() time.Time
}

func NewRecorder(store *database.Store, moments MomentEmitter) *Recorder {
	return &Recorder{
		store:       store,
		moments:     moments,
		MomentDelta: DefaultMomentDelta,
		Now:         time.Now,
	}
}

// Record upserts the goal's check-in for the week. The check-in and any goal
// changes are written in one transaction. On success goal is updated in place.
func (r *Recorder) Record(ctx context.Context, goal *models.Goal, reporter *models.Teammate, p Params) (*Result, error) {
	res, prev, err := r.record(ctx, goal, reporter, p)
	r.Metrics.CheckInRecorded(err == nil)
	if err != nil {
		return nil, err
	}
	r.maybeEmitMoment(ctx, res, reporter, prev)
	return res, nil
}

func (r *Recorder) record(ctx context.Context, goal *models.Goal, reporter *models.Teammate, p Params) (*Result, *models.GoalCheckIn, error) {
	now := r.Now()
	week := models.WeekStart(now)
	if p.WeekStart != nil {
		week = models.WeekStart(*p.WeekStart)
	}

	var newMostLikely *time.Time
	if p.MostLikelyTargetDate != nil {
		d, err := models.ParseDate(*p.MostLikelyTargetDate)
		if err != nil {
			return nil, nil, err
		}
		newMostLikely = &d
	}

	updated := *goal
	res := &Result{Goal: &updated}
	var prev *models.GoalCheckIn

	err := r.store.InTx(ctx, func(tx *database.Store) error {
		var err error
		prev, err = tx.PreviousCheckIn(ctx, goal.ID, week)
		if err != nil {
			return fmt.Errorf("load previous check-in: %w", err)
		}

		confidence, err := resolveConfidence(p, prev)
		if err != nil {
			return err
		}

		goalChanged := false
		if newMostLikely != nil {
			before := updated.MostLikelyTargetDate
			updated.ClampTargetDates(*newMostLikely)
			res.TargetDateUpdated = before == nil || !before.Equal(*updated.MostLikelyTargetDate)
			goalChanged = true
		}
		if updated.StartedAt == nil {
			updated.StartedAt = &now
			goalChanged = true
		}
		if (confidence == 0 || confidence == 100) && updated.CompletedAt == nil {
			updated.CompletedAt = &now
			goalChanged = true
		}

		ci := &models.GoalCheckIn{
			GoalID:               goal.ID,
			CheckInWeekStart:     week,
			ConfidencePercentage: confidence,
			ConfidenceReason:     p.ConfidenceReason,
			ReporterID:           reporter.ID,
		}
		var goalErr error
		if goalChanged {
			goalErr = updated.Validate()
		}
		if err := models.MergeValidation(ci.Validate(), goalErr); err != nil {
			return err
		}

		if err := tx.UpsertCheckIn(ctx, ci); err != nil {
			return fmt.Errorf("save check-in: %w", err)
		}
		res.CheckIn = ci
		if goalChanged {
			if err := tx.SaveGoal(ctx, &updated); err != nil {
				return fmt.Errorf("save goal: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if goal.CompletedAt == nil && updated.CompletedAt != nil {
		r.Metrics.GoalAutoCompleted()
	}
	*goal = updated
	res.Goal = goal
	return res, prev, nil
}

func resolveConfidence(p Params, prev *models.GoalCheckIn) (int, error) {
	if p.ConfidencePercentage != nil {
		return *p.ConfidencePercentage, nil
	}
	if p.ConfidenceReason == nil && p.MostLikelyTargetDate == nil {
		return 0, &models.ValidationError{Messages: []string{"confidence percentage is required"}}
	}
	if prev != nil {
		return prev.ConfidencePercentage, nil
	}
	return DefaultConfidence, nil
}

func (r *Recorder) maybeEmitMoment(ctx context.Context, res *Result, actor *models.Teammate, prev *models.GoalCheckIn) {
	if r.moments == nil || prev == nil {
		return
	}
	delta := res.CheckIn.ConfidencePercentage - prev.ConfidencePercentage
	if delta < 0 {
		delta = -delta
	}
	if delta < r.MomentDelta {
		return
	}
	err := r.moments.EmitConfidenceMoment(ctx, Moment{
		CheckIn:  *res.CheckIn,
		Goal:     *res.Goal,
		Actor:    *actor,
		Previous: prev.ConfidencePercentage,
	})
	r.Metrics.MomentEmitted(err)
	if err != nil {
		slog.Warn("confidence moment not delivered",
			slog.String("goal_id", res.Goal.ID.String()),
			slog.String("check_in_id", res.CheckIn.ID.String()),
			slog.Any("error", err))
	}
}
