package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (s *Store) CheckInsForGoals(ctx context.Context, ids []uuid.UUID) ([]models.GoalCheckIn, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []models.GoalCheckIn
	err := s.conn(ctx).Where("goal_id IN ?", ids).
		Order("check_in_week_start ASC").
		Find(&out).Error
	return out, err
}

func (s *Store) CheckInsForGoal(ctx context.Context, goalID uuid.UUID) ([]models.GoalCheckIn, error) {
	return s.CheckInsForGoals(ctx, []uuid.UUID{goalID})
}

func (s *Store) CheckInForWeek(ctx context.Context, goalID uuid.UUID, week time.Time) (*models.GoalCheckIn, error) {
	var ci models.GoalCheckIn
	err := s.conn(ctx).
		Where("goal_id = ? AND check_in_week_start = ?", goalID, models.WeekStart(week)).
		First(&ci).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("check-in for goal %s week %s: %w", goalID, week.Format(models.DateLayout), models.ErrNotFound)
		}
		return nil, err
	}
	return &ci, nil
}

// PreviousCheckIn returns the most recent check-in of the goal from any week
// other than week, or nil when there is none.
func (s *Store) PreviousCheckIn(ctx context.Context, goalID uuid.UUID, week time.Time) (*models.GoalCheckIn, error) {
	var ci models.GoalCheckIn
	err := s.conn(ctx).
		Where("goal_id = ? AND check_in_week_start <> ?", goalID, models.WeekStart(week)).
		Order("check_in_week_start DESC, updated_at DESC").
		First(&ci).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &ci, nil
}

// UpsertCheckIn writes the check-in for (goal, week). A concurrent write for
// the same key lands on the same row through the unique index; the last
// writer's confidence fields win. ci is reloaded from the stored row.
func (s *Store) UpsertCheckIn(ctx context.Context, ci *models.GoalCheckIn) error {
	ci.CheckInWeekStart = models.WeekStart(ci.CheckInWeekStart)
	err := s.conn(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "goal_id"}, {Name: "check_in_week_start"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"confidence_percentage",
			"confidence_reason",
			"reporter_id",
			"updated_at",
		}),
	}).Create(ci).Error
	if err != nil {
		return err
	}
	stored, err := s.CheckInForWeek(ctx, ci.GoalID, ci.CheckInWeekStart)
	if err != nil {
		return err
	}
	*ci = *stored
	return nil
}
