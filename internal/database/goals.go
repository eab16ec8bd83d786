package database

import (
	"context"
	"fmt"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/arnold/goalgraph-api/internal/outline"
	"github.com/google/uuid"
)

type GoalFilter struct {
	OwnerID       *uuid.UUID
	IncludeClosed bool
}

func (s *Store) GetGoal(ctx context.Context, id uuid.UUID) (*models.Goal, error) {
	var g models.Goal
	if err := s.conn(ctx).First(&g, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "goal", id)
	}
	return &g, nil
}

// GoalsByIDs returns the live goals among ids in creation order. Missing or
// deleted ids are skipped.
func (s *Store) GoalsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Goal, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var goals []models.Goal
	err := s.conn(ctx).Where("id IN ?", ids).Order("created_at ASC, id ASC").Find(&goals).Error
	return goals, err
}

func (s *Store) ListGoals(ctx context.Context, f GoalFilter) ([]models.Goal, error) {
	q := s.conn(ctx).Order("created_at ASC, id ASC")
	if f.OwnerID != nil {
		q = q.Where("owner_id = ?", *f.OwnerID)
	}
	if !f.IncludeClosed {
		q = q.Where("completed_at IS NULL")
	}
	var goals []models.Goal
	err := q.Find(&goals).Error
	return goals, err
}

func (s *Store) CreateGoal(ctx context.Context, g *models.Goal) error {
	return s.conn(ctx).Create(g).Error
}

// CreateGoalWithParent inserts a new goal and its link under parentID in one
// transaction. A goal that did not exist before cannot be on a cycle, so no
// cycle check runs.
func (s *Store) CreateGoalWithParent(ctx context.Context, g *models.Goal, parentID uuid.UUID) error {
	return s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.GetGoal(ctx, parentID); err != nil {
			return err
		}
		if err := tx.conn(ctx).Create(g).Error; err != nil {
			return err
		}
		return tx.conn(ctx).Create(&models.GoalLink{ParentGoalID: parentID, ChildGoalID: g.ID}).Error
	})
}

func (s *Store) SaveGoal(ctx context.Context, g *models.Goal) error {
	if err := g.Validate(); err != nil {
		return err
	}
	return s.conn(ctx).Save(g).Error
}

// DeleteGoal soft-deletes the goal. Its links stay in place but stop showing
// up in graph queries.
func (s *Store) DeleteGoal(ctx context.Context, id uuid.UUID) error {
	res := s.conn(ctx).Delete(&models.Goal{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("goal %s: %w", id, models.ErrNotFound)
	}
	return nil
}

// CreateOutline creates one goal per outline item, copying owner, creator,
// privacy and posture from template, and links each item to its parent item.
// Items without a parent hang under parentID when it is given. Nothing is
// written unless every item succeeds.
func (s *Store) CreateOutline(ctx context.Context, items []outline.Item, template models.Goal, parentID *uuid.UUID) ([]models.Goal, error) {
	created := make([]models.Goal, len(items))
	err := s.InTx(ctx, func(tx *Store) error {
		if parentID != nil {
			if _, err := tx.GetGoal(ctx, *parentID); err != nil {
				return err
			}
		}
		for i, item := range items {
			g := models.Goal{
				Title:             item.Title,
				GoalType:          item.GoalType,
				Owner:             template.Owner,
				CreatorID:         template.CreatorID,
				PrivacyLevel:      template.PrivacyLevel,
				InitialConfidence: template.InitialConfidence,
			}
			if err := tx.conn(ctx).Create(&g).Error; err != nil {
				return fmt.Errorf("outline item %d: %w", i, err)
			}
			created[i] = g

			var parent *uuid.UUID
			switch {
			case item.ParentIndex != nil:
				if *item.ParentIndex < 0 || *item.ParentIndex >= i {
					return &models.ValidationError{Messages: []string{fmt.Sprintf("outline item %d has an invalid parent", i)}}
				}
				parent = &created[*item.ParentIndex].ID
			case parentID != nil:
				parent = parentID
			}
			if parent == nil {
				continue
			}
			if err := tx.conn(ctx).Create(&models.GoalLink{ParentGoalID: *parent, ChildGoalID: g.ID}).Error; err != nil {
				return fmt.Errorf("outline item %d link: %w", i, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
