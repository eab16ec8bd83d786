package hierarchy

import (
	"context"
	"fmt"
	"time"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

type LinkLoader interface {
	// LinksAmong returns the links whose parent and child are both in ids.
	LinksAmong(ctx context.Context, ids []uuid.UUID) ([]models.GoalLink, error)
}

type CheckInLoader interface {
	// CheckInsForGoals returns every check-in of the given goals in one fetch.
	CheckInsForGoals(ctx context.Context, ids []uuid.UUID) ([]models.GoalCheckIn, error)
}

type ViewPolicy interface {
	CanView(goal *models.Goal, viewer *models.Teammate) bool
}

// Node is one goal in an enriched tree. A goal with several parents in scope
// shares the same Node under each of them.
type Node struct {
	Goal                  models.Goal         `json:"goal"`
	Children              []*Node             `json:"children"`
	DirectChildrenCount   int                 `json:"directChildrenCount"`
	TotalDescendantsCount int                 `json:"totalDescendantsCount"`
	MostRecentCheckIn     *models.GoalCheckIn `json:"mostRecentCheckIn"`
	CurrentWeekCheckIn    *models.GoalCheckIn `json:"currentWeekCheckIn"`
	CanCheckIn            bool                `json:"canCheckIn"`
}

type Tree struct {
	Roots                     []*Node                            `json:"roots"`
	MostRecentCheckInsByGoal  map[uuid.UUID]*models.GoalCheckIn `json:"mostRecentCheckInsByGoal"`
	CurrentWeekCheckInsByGoal map[uuid.UUID]*models.GoalCheckIn `json:"currentWeekCheckInsByGoal"`
	CanCheckInGoals           map[uuid.UUID]struct{}             `json:"-"`
}

type Enricher struct {
	Links    LinkLoader
	CheckIns CheckInLoader
	Policy   ViewPolicy
}

func NewEnricher(links LinkLoader, checkIns CheckInLoader, policy ViewPolicy) *Enricher {
	return &Enricher{Links: links, CheckIns: checkIns, Policy: policy}
}

// Enrich builds the nested tree for goals as seen by viewer. currentWeek may
// be any day; it is normalised to its Monday. A nil viewer can check in on
// nothing.
func (e *Enricher) Enrich(ctx context.Context, goals []models.Goal, viewer *models.Teammate, currentWeek time.Time) (*Tree, error) {
	ids := make([]uuid.UUID, len(goals))
	for i := range goals {
		ids[i] = goals[i].ID
	}

	links, err := e.Links.LinksAmong(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load links: %w", err)
	}
	checkIns, err := e.CheckIns.CheckInsForGoals(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load check-ins: %w", err)
	}

	week := models.WeekStart(currentWeek)
	tree := &Tree{
		MostRecentCheckInsByGoal:  make(map[uuid.UUID]*models.GoalCheckIn),
		CurrentWeekCheckInsByGoal: make(map[uuid.UUID]*models.GoalCheckIn),
		CanCheckInGoals:           make(map[uuid.UUID]struct{}),
	}
	for i := range checkIns {
		ci := &checkIns[i]
		if ci.Newer(tree.MostRecentCheckInsByGoal[ci.GoalID]) {
			tree.MostRecentCheckInsByGoal[ci.GoalID] = ci
		}
		if models.WeekStart(ci.CheckInWeekStart).Equal(week) {
			tree.CurrentWeekCheckInsByGoal[ci.GoalID] = ci
		}
	}
	if viewer != nil && e.Policy != nil {
		for i := range goals {
			if e.Policy.CanView(&goals[i], viewer) {
				tree.CanCheckInGoals[goals[i].ID] = struct{}{}
			}
		}
	}

	s := Build(goals, links)
	b := &treeBuilder{
		s:           s,
		tree:        tree,
		nodes:       make(map[uuid.UUID]*Node),
		descendants: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		inProgress:  make(map[uuid.UUID]bool),
	}
	for _, root := range s.Roots {
		tree.Roots = append(tree.Roots, b.node(root))
	}
	return tree, nil
}

type treeBuilder struct {
	s           Structure
	tree        *Tree
	nodes       map[uuid.UUID]*Node
	descendants map[uuid.UUID]map[uuid.UUID]struct{}
	inProgress  map[uuid.UUID]bool
}

func (b *treeBuilder) node(g models.Goal) *Node {
	if n, ok := b.nodes[g.ID]; ok {
		return n
	}
	_, canCheckIn := b.tree.CanCheckInGoals[g.ID]
	n := &Node{
		Goal:                g,
		Children:            []*Node{},
		DirectChildrenCount: len(b.s.ParentChild[g.ID]),
		MostRecentCheckIn:   b.tree.MostRecentCheckInsByGoal[g.ID],
		CurrentWeekCheckIn:  b.tree.CurrentWeekCheckInsByGoal[g.ID],
		CanCheckIn:          canCheckIn,
	}
	if b.inProgress[g.ID] {
		return n
	}
	b.inProgress[g.ID] = true
	for _, child := range b.s.ParentChild[g.ID] {
		n.Children = append(n.Children, b.node(child))
	}
	delete(b.inProgress, g.ID)
	n.TotalDescendantsCount = len(b.descendantSet(g.ID))
	b.nodes[g.ID] = n
	return n
}

// descendantSet is memoised per Enrich call so shared subtrees are counted
// once per node and only computed once.
func (b *treeBuilder) descendantSet(id uuid.UUID) map[uuid.UUID]struct{} {
	if set, ok := b.descendants[id]; ok {
		return set
	}
	set := make(map[uuid.UUID]struct{})
	b.descendants[id] = set
	for _, child := range b.s.ParentChild[id] {
		if _, ok := set[child.ID]; ok {
			continue
		}
		set[child.ID] = struct{}{}
		for d := range b.descendantSet(child.ID) {
			set[d] = struct{}{}
		}
	}
	delete(set, id)
	return set
}
