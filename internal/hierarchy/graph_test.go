package hierarchy

import (
	"testing"

	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func link(parent, child uuid.UUID) models.GoalLink {
	return models.GoalLink{ID: uuid.New(), ParentGoalID: parent, ChildGoalID: child}
}

func ids(n int) []uuid.UUID {
	out := make([]uuid.UUID, n)
	for i := range out {
		out[i] = uuid.New()
	}
	return out
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func TestHierarchyIDs(t *testing.T) {
	// a -> b -> c, d -> c, e unlinked
	g := ids(5)
	a, b, c, d, e := g[0], g[1], g[2], g[3], g[4]
	graph := NewGraph([]models.GoalLink{link(a, b), link(b, c), link(d, c)})

	t.Run("spans parents and children in any combination", func(t *testing.T) {
		assert.ElementsMatch(t, []uuid.UUID{a, b, c, d}, keys(graph.HierarchyIDs(a)))
	})

	t.Run("is symmetric across the component", func(t *testing.T) {
		want := keys(graph.HierarchyIDs(a))
		for _, id := range []uuid.UUID{b, c, d} {
			assert.ElementsMatch(t, want, keys(graph.HierarchyIDs(id)))
		}
	})

	t.Run("isolated goal is a singleton", func(t *testing.T) {
		assert.Equal(t, []uuid.UUID{e}, keys(graph.HierarchyIDs(e)))
	})
}

func TestAncestorsDescendants(t *testing.T) {
	g := ids(4)
	a, b, c, d := g[0], g[1], g[2], g[3]
	graph := NewGraph([]models.GoalLink{link(a, b), link(b, c), link(a, d)})

	assert.ElementsMatch(t, []uuid.UUID{b, c, d}, keys(graph.Descendants(a)))
	assert.ElementsMatch(t, []uuid.UUID{a, b}, keys(graph.Ancestors(c)))
	assert.Empty(t, graph.Ancestors(a))
	assert.Empty(t, graph.Descendants(c))
	assert.Equal(t, []uuid.UUID{a}, graph.Parents(b))
	assert.ElementsMatch(t, []uuid.UUID{b, d}, graph.Children(a))
}

func TestWouldCycle(t *testing.T) {
	g := ids(4)
	a, b, c, d := g[0], g[1], g[2], g[3]
	graph := NewGraph([]models.GoalLink{link(a, b), link(b, c)})

	assert.True(t, graph.WouldCycle(c, a))
	assert.True(t, graph.WouldCycle(b, a))
	assert.True(t, graph.WouldCycle(a, a))
	assert.False(t, graph.WouldCycle(a, c))
	assert.False(t, graph.WouldCycle(d, a))
	assert.True(t, graph.Reaches(a, c))
	assert.False(t, graph.Reaches(c, a))
}

func TestWalkTerminatesOnStoredCycle(t *testing.T) {
	g := ids(3)
	a, b, c := g[0], g[1], g[2]
	graph := NewGraph([]models.GoalLink{link(a, b), link(b, c), link(c, a)})

	assert.ElementsMatch(t, []uuid.UUID{a, b, c}, keys(graph.HierarchyIDs(a)))
	assert.ElementsMatch(t, []uuid.UUID{b, c}, keys(graph.Descendants(a)))
}
