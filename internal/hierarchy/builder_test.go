package hierarchy

import (
	"testing"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goal(title string) models.Goal {
	return models.Goal{ID: uuid.New(), Title: title, GoalType: models.GoalTypeQuantitativeKeyResult}
}

func titles(goals []models.Goal) []string {
	out := make([]string, len(goals))
	for i, g := range goals {
		out[i] = g.Title
	}
	return out
}

func TestBuildRootsAreRelativeToTheSet(t *testing.T) {
	a, b, c := goal("a"), goal("b"), goal("c")
	links := []models.GoalLink{link(a.ID, b.ID), link(b.ID, c.ID)}

	full := Build([]models.Goal{a, b, c}, links)
	assert.Equal(t, []string{"a"}, titles(full.Roots))
	assert.Equal(t, []string{"b"}, titles(full.ParentChild[a.ID]))
	assert.Equal(t, []string{"c"}, titles(full.ParentChild[b.ID]))

	// b's parent is outside the scope, so b is a root here.
	partial := Build([]models.Goal{b, c}, links)
	assert.Equal(t, []string{"b"}, titles(partial.Roots))
	assert.Equal(t, []string{"c"}, titles(partial.ParentChild[b.ID]))
}

func TestBuildEveryGoalHasAnEntry(t *testing.T) {
	a, b := goal("a"), goal("b")
	s := Build([]models.Goal{a, b}, nil)

	assert.Equal(t, []string{"a", "b"}, titles(s.Roots))
	require.Contains(t, s.ParentChild, a.ID)
	require.Contains(t, s.ParentChild, b.ID)
	assert.Empty(t, s.ParentChild[a.ID])
	assert.NotNil(t, s.ParentChild[a.ID])
}

func TestBuildKeepsInputOrderAndDropsDuplicateLinks(t *testing.T) {
	p, x, y, z := goal("p"), goal("x"), goal("y"), goal("z")
	links := []models.GoalLink{link(p.ID, z.ID), link(p.ID, x.ID), link(p.ID, y.ID), link(p.ID, x.ID)}

	s := Build([]models.Goal{p, x, y, z}, links)
	assert.Equal(t, []string{"x", "y", "z"}, titles(s.ParentChild[p.ID]))
}

func TestBuildSharedChildAppearsUnderEachParent(t *testing.T) {
	p1, p2, c := goal("p1"), goal("p2"), goal("c")
	s := Build([]models.Goal{p1, p2, c}, []models.GoalLink{link(p1.ID, c.ID), link(p2.ID, c.ID)})

	assert.Equal(t, []string{"p1", "p2"}, titles(s.Roots))
	assert.Equal(t, []string{"c"}, titles(s.ParentChild[p1.ID]))
	assert.Equal(t, []string{"c"}, titles(s.ParentChild[p2.ID]))
}

func TestBuildPromotesDetachedCycle(t *testing.T) {
	p, a, b := goal("p"), goal("a"), goal("b")
	links := []models.GoalLink{link(a.ID, b.ID), link(b.ID, a.ID)}

	s := Build([]models.Goal{p, a, b}, links)
	assert.Equal(t, []string{"p", "a"}, titles(s.Roots))
	assert.Equal(t, []string{"b"}, titles(s.ParentChild[a.ID]))
	assert.Equal(t, []string{"a"}, titles(s.ParentChild[b.ID]))
}
