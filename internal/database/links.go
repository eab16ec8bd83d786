package database

import (
	"context"
	"fmt"

	"github.com/arnold/goalgraph-api/internal/hierarchy"
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

const liveLinks = "parent_goal_id IN (SELECT id FROM goals WHERE deleted_at IS NULL) " +
	"AND child_goal_id IN (SELECT id FROM goals WHERE deleted_at IS NULL)"

// Links returns every link between live goals.
func (s *Store) Links(ctx context.Context) ([]models.GoalLink, error) {
	var links []models.GoalLink
	err := s.conn(ctx).Where(liveLinks).Find(&links).Error
	return links, err
}

// LoadGraph loads the whole link table into an in-memory adjacency graph.
func (s *Store) LoadGraph(ctx context.Context) (*hierarchy.Graph, error) {
	links, err := s.Links(ctx)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	return hierarchy.NewGraph(links), nil
}

func (s *Store) LinksAmong(ctx context.Context, ids []uuid.UUID) ([]models.GoalLink, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var links []models.GoalLink
	err := s.conn(ctx).
		Where("parent_goal_id IN ? AND child_goal_id IN ?", ids, ids).
		Order("created_at ASC").
		Find(&links).Error
	return links, err
}

// CreateLink adds parentID -> childID after checking both goals exist and
// that the new edge keeps the graph acyclic.
func (s *Store) CreateLink(ctx context.Context, parentID, childID uuid.UUID) (*models.GoalLink, error) {
	if parentID == childID {
		return nil, models.ErrCycleDetected
	}
	link := &models.GoalLink{ParentGoalID: parentID, ChildGoalID: childID}
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.GetGoal(ctx, parentID); err != nil {
			return err
		}
		if _, err := tx.GetGoal(ctx, childID); err != nil {
			return err
		}
		graph, err := tx.LoadGraph(ctx)
		if err != nil {
			return err
		}
		if graph.WouldCycle(parentID, childID) {
			return fmt.Errorf("%s -> %s: %w", parentID, childID, models.ErrCycleDetected)
		}
		var existing int64
		if err := tx.conn(ctx).Model(&models.GoalLink{}).
			Where("parent_goal_id = ? AND child_goal_id = ?", parentID, childID).
			Count(&existing).Error; err != nil {
			return err
		}
		if existing > 0 {
			return &models.ValidationError{Messages: []string{"goals are already linked"}}
		}
		return tx.conn(ctx).Create(link).Error
	})
	if err != nil {
		return nil, err
	}
	return link, nil
}

func (s *Store) DeleteLink(ctx context.Context, parentID, childID uuid.UUID) error {
	res := s.conn(ctx).Where("parent_goal_id = ? AND child_goal_id = ?", parentID, childID).Delete(&models.GoalLink{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("link %s -> %s: %w", parentID, childID, models.ErrNotFound)
	}
	return nil
}
