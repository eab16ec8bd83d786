package hierarchy

import (
	"log/slog"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

// Structure is the shape of a bounded set of goals: the roots of the set and,
// for each goal, its children that are also in the set.
type Structure struct {
	Roots       []models.Goal
	ParentChild map[uuid.UUID][]models.Goal
}

// Build arranges goals into roots and a parent -> children map. Only links
// with both ends inside goals count, so a goal whose parent was left out of
// the set is a root here even if it has a parent globally. Children keep the
// input order of goals. Goals caught in a stored cycle are unreachable from
// any root; the first of each such component is promoted to a root.
func Build(goals []models.Goal, links []models.GoalLink) Structure {
	inSet := make(map[uuid.UUID]struct{}, len(goals))
	for _, g := range goals {
		inSet[g.ID] = struct{}{}
	}

	parentsOf := make(map[uuid.UUID][]uuid.UUID)
	seenLink := make(map[[2]uuid.UUID]struct{})
	for _, l := range links {
		if _, ok := inSet[l.ParentGoalID]; !ok {
			continue
		}
		if _, ok := inSet[l.ChildGoalID]; !ok {
			continue
		}
		key := [2]uuid.UUID{l.ParentGoalID, l.ChildGoalID}
		if _, dup := seenLink[key]; dup {
			continue
		}
		seenLink[key] = struct{}{}
		parentsOf[l.ChildGoalID] = append(parentsOf[l.ChildGoalID], l.ParentGoalID)
	}

	s := Structure{ParentChild: make(map[uuid.UUID][]models.Goal, len(goals))}
	for _, g := range goals {
		if _, ok := s.ParentChild[g.ID]; !ok {
			s.ParentChild[g.ID] = []models.Goal{}
		}
		parents := parentsOf[g.ID]
		if len(parents) == 0 {
			s.Roots = append(s.Roots, g)
			continue
		}
		for _, p := range parents {
			s.ParentChild[p] = append(s.ParentChild[p], g)
		}
	}

	reached := make(map[uuid.UUID]bool, len(goals))
	for _, r := range s.Roots {
		s.markReached(r.ID, reached)
	}
	for _, g := range goals {
		if reached[g.ID] {
			continue
		}
		slog.Warn("goal hierarchy contains a cycle; promoting goal to root", slog.String("goal_id", g.ID.String()))
		s.Roots = append(s.Roots, g)
		s.markReached(g.ID, reached)
	}
	return s
}

func (s Structure) markReached(id uuid.UUID, reached map[uuid.UUID]bool) {
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if reached[cur] {
			continue
		}
		reached[cur] = true
		for _, c := range s.ParentChild[cur] {
			stack = append(stack, c.ID)
		}
	}
}
