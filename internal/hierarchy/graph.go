// Package hierarchy answers structural questions about the goal graph:
// which goals are connected, which are roots within a scope, and what the
// nested tree looks like once check-ins and permissions are attached.
//
// A Graph is loaded once per request from the stored links and then walked
// in memory. Walks are iterative with a visited set, so a malformed cycle in
// storage terminates instead of looping.
package hierarchy

import (
	"github.com/arnold/goalgraph-api/internal/models"
	"github.com/google/uuid"
)

// Graph is an adjacency view over GoalLinks. It is not safe for concurrent
// mutation; build it, then query it.
type Graph struct {
	parents  map[uuid.UUID][]uuid.UUID
	children map[uuid.UUID][]uuid.UUID
}

func NewGraph(links []models.GoalLink) *Graph {
	g := &Graph{
		parents:  make(map[uuid.UUID][]uuid.UUID),
		children: make(map[uuid.UUID][]uuid.UUID),
	}
	for _, l := range links {
		g.AddLink(l.ParentGoalID, l.ChildGoalID)
	}
	return g
}

func (g *Graph) AddLink(parentID, childID uuid.UUID) {
	g.children[parentID] = append(g.children[parentID], childID)
	g.parents[childID] = append(g.parents[childID], parentID)
}

func (g *Graph) Parents(id uuid.UUID) []uuid.UUID  { return g.parents[id] }
func (g *Graph) Children(id uuid.UUID) []uuid.UUID { return g.children[id] }

// HierarchyIDs returns every goal reachable from id by following parent and
// child edges in any combination, id included. An unlinked goal yields a
// singleton set.
func (g *Graph) HierarchyIDs(id uuid.UUID) map[uuid.UUID]struct{} {
	return g.walk(id, func(n uuid.UUID) [][]uuid.UUID {
		return [][]uuid.UUID{g.parents[n], g.children[n]}
	})
}

// Ancestors returns all goals above id, excluding id itself.
func (g *Graph) Ancestors(id uuid.UUID) map[uuid.UUID]struct{} {
	seen := g.walk(id, func(n uuid.UUID) [][]uuid.UUID {
		return [][]uuid.UUID{g.parents[n]}
	})
	delete(seen, id)
	return seen
}

// Descendants returns all goals below id, excluding id itself.
func (g *Graph) Descendants(id uuid.UUID) map[uuid.UUID]struct{} {
	seen := g.walk(id, func(n uuid.UUID) [][]uuid.UUID {
		return [][]uuid.UUID{g.children[n]}
	})
	delete(seen, id)
	return seen
}

// Reaches reports whether to is reachable from from along child edges.
// A node always reaches itself.
func (g *Graph) Reaches(from, to uuid.UUID) bool {
	if from == to {
		return true
	}
	_, ok := g.Descendants(from)[to]
	return ok
}

// WouldCycle reports whether adding parentID -> childID would close a cycle.
func (g *Graph) WouldCycle(parentID, childID uuid.UUID) bool {
	return g.Reaches(childID, parentID)
}

func (g *Graph) walk(start uuid.UUID, next func(uuid.UUID) [][]uuid.UUID) map[uuid.UUID]struct{} {
	visited := map[uuid.UUID]struct{}{start: {}}
	queue := []uuid.UUID{start}
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		for _, ids := range next(n) {
			for _, id := range ids {
				if _, ok := visited[id]; ok {
					continue
				}
				visited[id] = struct{}{}
				queue = append(queue, id)
			}
		}
	}
	return visited
}
